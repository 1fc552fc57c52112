package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/config"
	"github.com/adrata/crmops/internal/enrich"
	"github.com/adrata/crmops/internal/pipeline"
	"github.com/adrata/crmops/pkg/logger"
)

func newEnrichCmd() *cobra.Command {
	var (
		workspaceID string
		allPeople   bool
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fill missing person fields from external data providers",
		Long: `Enrich looks up people against the configured data providers
(Coresignal, Lusha, Prospeo) and fills in missing job titles, emails,
phone numbers and network sizes. By default only people without a job
title are processed; --all enriches every buyer-group member.`,
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

			providers := providersFromConfig(cfg)
			if len(providers) == 0 {
				return fmt.Errorf("no enrichment providers configured; set at least one API key")
			}

			opts := []enrich.EnricherOption{
				enrich.WithRequestDelay(cfg.EnrichRequestDelay()),
			}
			if cfg.RedisAddr != "" {
				cache, err := enrich.NewCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.EnrichCacheTTL())
				if err != nil {
					return fmt.Errorf("connect enrichment cache: %w", err)
				}
				defer func() { _ = cache.Close() }()
				opts = append(opts, enrich.WithCache(cache))
				logger.Get().Info(ctx, "enrichment cache enabled", logger.String("addr", cfg.RedisAddr))
			}

			runner := pipeline.NewEnrichRunner(store, enrich.NewEnricher(providers, opts...))
			report, err := runner.Run(ctx, repository.PersonFilter{
				WorkspaceID:  workspaceID,
				MissingTitle: !allPeople,
				InBuyerGroup: true,
				Limit:        limit,
			})
			if err != nil {
				return err
			}

			return pipeline.WriteEnrichReport(os.Stdout, report)
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "restrict to a single workspace")
	cmd.Flags().BoolVar(&allPeople, "all", false, "enrich every buyer-group member, not only those missing a title")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of people to enrich (0 = all)")

	return cmd
}

// providersFromConfig builds the provider chain from whichever API
// keys are present, in fallback order.
func providersFromConfig(cfg *config.Config) []enrich.Provider {
	var providers []enrich.Provider
	if cfg.CoresignalAPIKey != "" {
		providers = append(providers, enrich.NewCoresignalClient(cfg.CoresignalAPIKey, ""))
	}
	if cfg.LushaAPIKey != "" {
		providers = append(providers, enrich.NewLushaClient(cfg.LushaAPIKey, ""))
	}
	if cfg.ProspeoAPIKey != "" {
		providers = append(providers, enrich.NewProspeoClient(cfg.ProspeoAPIKey, ""))
	}
	return providers
}
