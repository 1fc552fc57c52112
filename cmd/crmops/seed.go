package main

import (
	"context"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/adrata/crmops/internal/seed"
)

// Default seed configuration constants.
const (
	defaultNumCompanies    = 10
	defaultNumPeople       = 500
	defaultTopN            = 50
	defaultWorkerMultiple  = 2
	defaultRequestTimeout  = 30 * time.Second
	defaultSettleWait      = 10 * time.Second
	defaultSeedRunDeadline = 10 * time.Minute
)

func newSeedCmd() *cobra.Command {
	var cfg seed.Config
	var logFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load synthetic CRM data into a running service and verify the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := seed.SetupLogging(logFile); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultSeedRunDeadline)
			defer cancel()

			return seed.Run(ctx, &cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	cmd.Flags().IntVar(&cfg.NumCompanies, "companies", defaultNumCompanies, "number of companies to generate")
	cmd.Flags().IntVar(&cfg.NumPeople, "people", defaultNumPeople, "number of people to generate")
	cmd.Flags().IntVar(&cfg.TopN, "top", defaultTopN, "number of queue entries to fetch")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkerMultiple, "number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", defaultRequestTimeout, "HTTP request timeout")
	cmd.Flags().DurationVar(&cfg.Wait, "wait", defaultSettleWait, "settle time before verifying")
	cmd.Flags().StringVar(&cfg.OutputFile, "output", "", "output file for generated records (default: seed_records_TIMESTAMP.json)")
	cmd.Flags().StringVar(&logFile, "log", "", "log file for seed output (default: seed_log_TIMESTAMP.log)")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")

	return cmd
}
