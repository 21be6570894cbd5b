// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/covera/internal/api"
	"github.com/tomtom215/covera/internal/config"
	"github.com/tomtom215/covera/internal/database"
	"github.com/tomtom215/covera/internal/logging"
	"github.com/tomtom215/covera/internal/metrics"
	"github.com/tomtom215/covera/internal/middleware"
	"github.com/tomtom215/covera/internal/supervisor"
	"github.com/tomtom215/covera/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logCfg.Version = version
	logging.Init(logCfg)

	metrics.SetAppInfo(version)
	logging.Info().
		Str("version", version).
		Str("driver", cfg.Database.Driver).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Covera")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	source, closeSource, err := openSource(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open data source")
	}
	defer closeSource()

	provider := database.NewResilientProvider(source, resilientConfig(cfg))

	engine, err := initEngine(cfg, provider)
	if err != nil {
		closeSource()
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}
	trainer := services.NewInstrumentedTrainer(engine)

	handler := api.NewHandler(api.HandlerDeps{
		Store:         provider,
		Engine:        engine,
		Trainer:       trainer,
		Breaker:       provider,
		Version:       version,
		LookupTimeout: cfg.Database.QueryTimeout,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins:          cfg.Server.CORSOrigins,
		RateLimitRequests:    cfg.Server.RateLimitReqs,
		RateLimitWindow:      cfg.Server.RateLimitWindow,
		RateLimitDisabled:    cfg.Server.RateLimitDisabled,
		SlowRequestThreshold: middleware.DefaultSlowThreshold,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		closeSource()
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddModelService(services.NewTrainingService(trainer, services.TrainingServiceConfig{
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
		Interval:       cfg.Recommend.TrainInterval,
	}, logging.WithComponent("training")))
	tree.AddAPIService(services.NewHTTPService(server, server.Addr, cfg.Server.ShutdownTimeout, logging.WithComponent("http")))

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Covera stopped")
	if ctx.Err() == nil {
		// The tree exited without a signal: every layer gave up.
		closeSource()
		os.Exit(1)
	}
}
