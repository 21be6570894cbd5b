// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/covera/internal/recommend"
	"github.com/tomtom215/covera/internal/validation"
)

// RulesResponse is the body of GET /api/v1/rules.
type RulesResponse struct {
	Count int                 `json:"count"`
	Rules map[string][]string `json:"rules"`
}

// RuleResponse is the body of GET /api/v1/rules/{subSector}.
type RuleResponse struct {
	SubSector string   `json:"sub_sector"`
	Branches  []string `json:"branches"`
}

type ruleParams struct {
	SubSector string `validate:"required,label"`
}

// ListRules handles GET /api/v1/rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules := h.engine.Rules()
	respondJSON(w, r, http.StatusOK, RulesResponse{
		Count: rules.Len(),
		Rules: rules.Map(),
	}, time.Time{})
}

// GetRule handles GET /api/v1/rules/{subSector}. Matching ignores case,
// accents and repeated spaces.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "subSector"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid sub-sector encoding", nil)
		return
	}
	params := ruleParams{SubSector: raw}
	if verr := validation.ValidateStruct(&params); verr != nil {
		apiErr := verr.ToAPIError()
		respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	rules := h.engine.Rules()
	if !rules.Has(params.SubSector) {
		respondError(w, r, http.StatusNotFound, ErrCodeRuleNotFound, "No rule for sub-sector", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, RuleResponse{
		SubSector: recommend.NormalizeLabel(params.SubSector),
		Branches:  rules.Branches(params.SubSector),
	}, time.Time{})
}
