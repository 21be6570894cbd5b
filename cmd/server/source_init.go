// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/covera/internal/config"
	"github.com/tomtom215/covera/internal/database"
	"github.com/tomtom215/covera/internal/database/postgres"
	"github.com/tomtom215/covera/internal/logging"
)

// openSource opens the configured customer data source. The returned close
// function is safe to call more than once.
func openSource(ctx context.Context, cfg *config.DatabaseConfig) (database.Source, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverDuckDB, "":
		return openDuckDB(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openDuckDB(ctx context.Context, cfg *config.DatabaseConfig) (database.Source, func(), error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := onceCloser(func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	})

	if cfg.SeedDemo {
		stats, err := db.SeedDemo(ctx)
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
		logging.Info().
			Int("customers", stats.Customers).
			Int("contracts", stats.Contracts).
			Msg("Demo portfolio loaded")
	}

	logging.Info().Str("path", cfg.Path).Msg("DuckDB data source ready")
	return db, closeFn, nil
}

func openPostgres(ctx context.Context, cfg *config.DatabaseConfig) (database.Source, func(), error) {
	if cfg.PostgresURL == "" {
		return nil, nil, fmt.Errorf("postgres driver selected but DATABASE_URL is empty")
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(cfg.PostgresURL); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		logging.Info().Msg("PostgreSQL schema migrated")
	}

	store, err := postgres.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logging.Info().Msg("PostgreSQL data source ready")
	return store, onceCloser(store.Close), nil
}

func onceCloser(fn func()) func() {
	var once sync.Once
	return func() { once.Do(fn) }
}

func resilientConfig(cfg *config.Config) database.ResilientConfig {
	rc := database.DefaultResilientConfig(cfg.Database.Driver)
	rc.FailureThreshold = cfg.Breaker.FailureThreshold
	rc.MaxRequests = cfg.Breaker.MaxRequests
	rc.Interval = cfg.Breaker.Interval
	rc.Timeout = cfg.Breaker.Timeout
	return rc
}
