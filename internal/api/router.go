// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/covera/internal/middleware"
)

// RouterConfig holds HTTP middleware settings.
type RouterConfig struct {
	// CORSOrigins lists allowed origins. Empty disables cross-origin access.
	CORSOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// SlowRequestThreshold raises access log lines to warn.
	SlowRequestThreshold time.Duration
}

// DefaultRouterConfig returns the settings used when none are configured.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSOrigins:          []string{},
		RateLimitRequests:    100,
		RateLimitWindow:      time.Minute,
		SlowRequestThreshold: middleware.DefaultSlowThreshold,
	}
}

// NewRouter builds the chi router.
//
//nolint:gocritic // hugeParam: cfg is read once at startup
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global stack, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(cfg.SlowRequestThreshold))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         86400,
	}))
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	r.Get("/", h.Root)
	r.Handle("/metrics", promhttp.Handler())

	// Probes are not rate limited.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(cfg))
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/customers/{id}", h.GetCustomer)
		r.Get("/contracts/{id}", h.GetContract)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/status", h.GetTrainingStatus)
			r.Get("/metrics", h.GetEngineMetrics)
			r.Get("/config", h.GetEngineConfig)
			r.Post("/train", h.TriggerTraining)
			r.Get("/{customerID}", h.GetRecommendations)
		})

		r.Get("/rules", h.ListRules)
		r.Get("/rules/{subSector}", h.GetRule)
	})

	return r
}

// rateLimit limits requests per client IP with go-chi/httprate.
//
//nolint:gocritic // hugeParam: cfg is read once at startup
func rateLimit(cfg RouterConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled || cfg.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(
		cfg.RateLimitRequests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Rate limit exceeded", nil)
		}),
	)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
}
