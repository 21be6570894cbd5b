// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/covera/internal/database"
)

// pingTimeout bounds the data source check in health probes.
const pingTimeout = 2 * time.Second

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status            string                   `json:"status"` // healthy, degraded
	Version           string                   `json:"version,omitempty"`
	DatabaseConnected bool                     `json:"database_connected"`
	ModelTrained      bool                     `json:"model_trained"`
	ModelVersion      int                      `json:"model_version"`
	LastTrainedAt     *time.Time               `json:"last_trained_at,omitempty"`
	Breaker           *database.ResilientStats `json:"breaker,omitempty"`
	Uptime            float64                  `json:"uptime_seconds"`
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{
		"message": "Covera insurance product recommendation API",
		"version": h.version,
	}, time.Time{})
}

// Health handles GET /api/v1/health. It always answers 200; the status field
// says whether every dependency is usable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.pingStore(r.Context()) == nil
	status := h.engine.GetStatus()

	health := HealthStatus{
		Status:            "healthy",
		Version:           h.version,
		DatabaseConnected: dbConnected,
		ModelTrained:      status.Trained,
		ModelVersion:      status.ModelVersion,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if !status.LastTrainedAt.IsZero() {
		t := status.LastTrainedAt
		health.LastTrainedAt = &t
	}
	if h.breaker != nil {
		stats := h.breaker.Stats()
		health.Breaker = &stats
	}
	if !dbConnected || !status.Trained {
		health.Status = "degraded"
	}

	respondJSON(w, r, http.StatusOK, health, time.Time{})
}

// HealthLive handles GET /api/v1/health/live. The process is alive when it
// can answer.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Time{})
}

// HealthReady handles GET /api/v1/health/ready. Ready means the data source
// answers and a model is published; otherwise 503.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbErr := h.pingStore(r.Context())
	trained := h.engine.GetStatus().Trained

	if dbErr != nil || !trained {
		respondErrorDetails(w, r, http.StatusServiceUnavailable, "NOT_READY", "Service not ready",
			map[string]bool{
				"database_connected": dbErr == nil,
				"model_trained":      trained,
			}, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"ready": true}, time.Time{})
}

func (h *Handler) pingStore(ctx context.Context) error {
	if h.store == nil {
		return errNoStore
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.store.Ping(ctx)
}
