// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package api

import (
	"context"
	"time"

	"github.com/tomtom215/covera/internal/database"
	"github.com/tomtom215/covera/internal/recommend"
)

// defaultLookupTimeout bounds customer and contract lookups.
const defaultLookupTimeout = 5 * time.Second

// PortfolioStore serves single-record lookups. The resilient provider and
// both database stores satisfy it.
type PortfolioStore interface {
	GetCustomer(ctx context.Context, id int64) (*recommend.CustomerRecord, error)
	GetContract(ctx context.Context, id int64) (*recommend.ContractRecord, error)
	Ping(ctx context.Context) error
}

// Recommender is the read side of *recommend.Engine.
type Recommender interface {
	Recommend(ctx context.Context, customerID int64, n int) (*recommend.Result, error)
	GetStatus() recommend.TrainingStatus
	GetMetrics() recommend.Metrics
	GetConfig() *recommend.Config
	Rules() *recommend.RuleTable
}

// Trainer runs one training cycle.
type Trainer interface {
	Train(ctx context.Context) (*recommend.TrainingResult, error)
}

// BreakerReporter exposes the data source circuit breaker.
type BreakerReporter interface {
	Stats() database.ResilientStats
}

// HandlerDeps are the Handler dependencies. Breaker is optional.
type HandlerDeps struct {
	Store         PortfolioStore
	Engine        Recommender
	Trainer       Trainer
	Breaker       BreakerReporter
	Version       string
	LookupTimeout time.Duration
}

// Handler serves the API endpoints.
//
// Handler methods are split across files:
//   - handlers_health.go: probes and the service banner
//   - handlers_portfolio.go: customer and contract lookups
//   - handlers_recommend.go: recommendations, training, engine introspection
//   - handlers_rules.go: sub-sector rule table
type Handler struct {
	store         PortfolioStore
	engine        Recommender
	trainer       Trainer
	breaker       BreakerReporter
	version       string
	lookupTimeout time.Duration
	cacheEnabled  bool
	maxN          int
	startTime     time.Time
}

// NewHandler creates the API handler.
//
//nolint:gocritic // hugeParam: deps is read once at startup
func NewHandler(deps HandlerDeps) *Handler {
	timeout := deps.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	h := &Handler{
		store:         deps.Store,
		engine:        deps.Engine,
		trainer:       deps.Trainer,
		breaker:       deps.Breaker,
		version:       deps.Version,
		lookupTimeout: timeout,
		startTime:     time.Now(),
	}
	if deps.Engine != nil {
		cfg := deps.Engine.GetConfig()
		h.cacheEnabled = cfg.Cache.Enabled
		h.maxN = cfg.Limits.MaxN
	}
	return h
}
