package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/events"
	"github.com/adrata/crmops/internal/pipeline"
)

func newRescoreCmd() *cobra.Command {
	var (
		workspaceID string
		companyID   string
		limit       int
		publish     bool
	)

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Reclassify roles and recompute global ranks for all buyer-group members",
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

			var opts []pipeline.RescorerOption
			if publish && len(cfg.KafkaBrokers) > 0 {
				publisher := events.NewPublisher(cfg.KafkaBrokers,
					events.WithRankTopic(cfg.KafkaRankTopic),
					events.WithAuditTopic(cfg.KafkaAuditTopic),
				)
				defer func() { _ = publisher.Close() }()
				opts = append(opts, pipeline.WithRescorePublisher(publisher))
			}

			rescorer := pipeline.NewRescorer(store, pipeline.NewScorer(calculatorFromConfig(cfg)), opts...)
			report, err := rescorer.Run(ctx, repository.PersonFilter{
				WorkspaceID:  workspaceID,
				CompanyID:    companyID,
				InBuyerGroup: true,
				Limit:        limit,
			})
			if err != nil {
				return err
			}

			return pipeline.WriteRescoreReport(os.Stdout, report)
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "restrict to a single workspace")
	cmd.Flags().StringVar(&companyID, "company", "", "restrict to a single company")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of people to rescore (0 = all)")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish rank-update events to Kafka")

	return cmd
}
