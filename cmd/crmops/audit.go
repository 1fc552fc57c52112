package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/enrich"
	"github.com/adrata/crmops/internal/events"
	"github.com/adrata/crmops/internal/pipeline"
)

func newAuditCmd() *cobra.Command {
	var (
		workspaceID string
		fix         bool
		probe       bool
		publish     bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit email domains against company websites",
		Long: `Audit compares each buyer-group member's email domain with their
company's website domain and reports mismatches by category and
severity. With --fix, members whose email sits on the same name under
a different TLD are removed from the buyer group and an audit note is
recorded. With --probe, company websites are fetched to resolve
redirects before comparing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := setupBatch(ctx)
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			opts := []pipeline.AuditorOption{
				pipeline.WithAutoFix(fix),
			}
			if probe {
				opts = append(opts, pipeline.WithSiteProber(enrich.NewSiteProbe()))
			}
			if publish && len(cfg.KafkaBrokers) > 0 {
				publisher := events.NewPublisher(cfg.KafkaBrokers,
					events.WithRankTopic(cfg.KafkaRankTopic),
					events.WithAuditTopic(cfg.KafkaAuditTopic),
				)
				defer func() { _ = publisher.Close() }()
				opts = append(opts, pipeline.WithAuditPublisher(publisher))
			}

			auditor := pipeline.NewAuditor(store, opts...)
			report, err := auditor.Run(ctx, repository.PersonFilter{
				WorkspaceID:  workspaceID,
				InBuyerGroup: true,
			})
			if err != nil {
				return err
			}

			return pipeline.WriteAuditReport(os.Stdout, report)
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "restrict to a single workspace")
	cmd.Flags().BoolVar(&fix, "fix", false, "clear buyer-group membership for high-severity mismatches")
	cmd.Flags().BoolVar(&probe, "probe", false, "fetch company websites to resolve their canonical domain")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish audit-finding events to Kafka")

	return cmd
}
