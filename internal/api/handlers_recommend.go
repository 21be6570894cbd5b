// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/covera/internal/logging"
	"github.com/tomtom215/covera/internal/metrics"
	"github.com/tomtom215/covera/internal/recommend"
	"github.com/tomtom215/covera/internal/validation"
)

type recommendParams struct {
	CustomerID int64 `validate:"gt=0"`
	Limit      int   `validate:"gte=0"`
}

// StatusResponse is the body of GET /api/v1/recommendations/status.
type StatusResponse struct {
	recommend.TrainingStatus
	Breaker any `json:"breaker,omitempty"`
}

// GetRecommendations handles GET /api/v1/recommendations/{customerID}.
//
// Query parameters:
//   - limit: list size, default from configuration, at most max_n
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	customerID, ok := parseID(w, r, "customerID")
	if !ok {
		return
	}
	params := recommendParams{CustomerID: customerID}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid limit: must be an integer", nil)
			return
		}
		params.Limit = limit
	}
	if verr := validation.ValidateStruct(&params); verr != nil {
		apiErr := verr.ToAPIError()
		respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}
	if h.maxN > 0 && params.Limit > h.maxN {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
			fmt.Sprintf("Limit must be less than or equal to %d", h.maxN), nil)
		return
	}

	res, err := h.engine.Recommend(r.Context(), params.CustomerID, params.Limit)
	if err != nil {
		metrics.RecordRecommendation(recommendOutcome(err), 0, time.Since(start))
		respondDomainError(w, r, err)
		return
	}
	if h.cacheEnabled {
		metrics.RecordCacheLookup(res.CacheHit)
	}
	if !res.Found {
		metrics.RecordRecommendation(metrics.OutcomeNotFound, 0, time.Since(start))
		respondError(w, r, http.StatusNotFound, ErrCodeCustomerNotFound,
			"Customer not found in the trained population", nil)
		return
	}

	outcome := metrics.OutcomeServed
	if len(res.Items) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.RecordRecommendation(outcome, len(res.Items), time.Since(start))
	logging.Ctx(r.Context()).Debug().
		Int64("customer_id", params.CustomerID).
		Int("returned", len(res.Items)).
		Bool("cache_hit", res.CacheHit).
		Msg("Recommendations served")

	respondJSON(w, r, http.StatusOK, res, start)
}

func recommendOutcome(err error) string {
	switch {
	case errors.Is(err, recommend.ErrNotTrained):
		return metrics.OutcomeNotTrained
	case errors.Is(err, recommend.ErrDataIntegrity):
		return metrics.OutcomeIntegrity
	default:
		return metrics.OutcomeError
	}
}

// TriggerTraining handles POST /api/v1/recommendations/train. The run is
// synchronous and survives a client disconnect; the engine applies its own
// training timeout.
func (h *Handler) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.trainer == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeInternal, "Training is not available", nil)
		return
	}

	result, err := h.trainer.Train(context.WithoutCancel(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("version", result.ModelVersion).
		Float64("accuracy", result.Accuracy).
		Msg("Training triggered via API")

	respondJSON(w, r, http.StatusOK, result, start)
}

// GetTrainingStatus handles GET /api/v1/recommendations/status.
func (h *Handler) GetTrainingStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{TrainingStatus: h.engine.GetStatus()}
	if h.breaker != nil {
		resp.Breaker = h.breaker.Stats()
	}
	respondJSON(w, r, http.StatusOK, resp, time.Time{})
}

// GetEngineMetrics handles GET /api/v1/recommendations/metrics.
func (h *Handler) GetEngineMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.engine.GetMetrics(), time.Time{})
}

// GetEngineConfig handles GET /api/v1/recommendations/config.
func (h *Handler) GetEngineConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.engine.GetConfig(), time.Time{})
}
