package main

import (
	"context"
	"fmt"

	"github.com/adrata/crmops/internal/adapters/repository"
	"github.com/adrata/crmops/internal/config"
	"github.com/adrata/crmops/pkg/logger"
)

// setupBatch initializes logging and loads configuration for the
// one-shot pipeline commands.
func setupBatch(ctx context.Context) (*config.Config, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	return cfg, nil
}

// openStore connects to the configured Postgres database. The batch
// pipelines operate on persisted CRM data and have no in-memory mode.
func openStore(ctx context.Context, cfg *config.Config) (*repository.PostgresStore, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url must be configured for batch commands")
	}
	store, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	return store, nil
}
