// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

// Command migrate manages the PostgreSQL schema used by the covera server.
//
//	migrate -dsn postgres://... -up
//	migrate -version
//
// The DSN defaults to DATABASE_URL.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/tomtom215/covera/internal/database/postgres"
	"github.com/tomtom215/covera/internal/logging"
)

const envDSN = "DATABASE_URL"

func main() {
	var (
		dsn     = flag.String("dsn", "", "PostgreSQL connection string (default $DATABASE_URL)")
		up      = flag.Bool("up", false, "Run all up migrations")
		down    = flag.Bool("down", false, "Run all down migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version (use with caution)")
	)
	flag.Parse()

	logCfg := logging.DefaultConfig()
	logCfg.Format = "console"
	logging.Init(logCfg)

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	if *dsn == "" {
		*dsn = os.Getenv(envDSN)
	}
	if *dsn == "" {
		logging.Fatal().Msg("no DSN: pass -dsn or set " + envDSN)
	}

	m, err := postgres.NewMigrator(*dsn)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create migrator")
	}
	defer func() { _, _ = m.Close() }()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			logging.Fatal().Err(err).Msg("Failed to get version")
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			logging.Fatal().Err(err).Msg("Failed to force version")
		}
		logging.Info().Int("version", *force).Msg("Forced migration version")
	case *up:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logging.Fatal().Err(err).Msg("Failed to run up migrations")
		}
		logging.Info().Msg("Migrations applied")
	case *down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logging.Fatal().Err(err).Msg("Failed to run down migrations")
		}
		logging.Info().Msg("Migrations reverted")
	case *steps != 0:
		if err := m.Steps(*steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logging.Fatal().Err(err).Msg("Failed to run migrations")
		}
		logging.Info().Int("steps", *steps).Msg("Migration steps applied")
	default:
		fmt.Println("usage: migrate [-dsn <connection-string>] [-up|-down|-steps N|-version|-force N]")
		flag.PrintDefaults()
	}
}
