// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/covera/internal/recommend"
	"github.com/tomtom215/covera/internal/validation"
)

// CustomerResponse is the API view of a customer. Unknown values are null.
type CustomerResponse struct {
	ID           int64    `json:"id"`
	EntityType   string   `json:"entity_type,omitempty"`
	Gender       string   `json:"gender,omitempty"`
	FamilyStatus string   `json:"family_status,omitempty"`
	BirthDate    *string  `json:"birth_date"`
	Age          *float64 `json:"age"`
	Sector       string   `json:"sector,omitempty"`
	SubSector    string   `json:"sub_sector,omitempty"`
	City         string   `json:"city,omitempty"`
	Governorate  string   `json:"governorate,omitempty"`
	Enabled      bool     `json:"is_enabled"`
}

// ContractResponse is the API view of a contract. Unknown values are null.
type ContractResponse struct {
	ID            int64    `json:"id"`
	CustomerID    int64    `json:"customer_id"`
	ProductID     *int64   `json:"product_id"`
	TotalPremium  *float64 `json:"total_premium"`
	Status        string   `json:"contract_status,omitempty"`
	PaymentStatus string   `json:"payment_status,omitempty"`
}

type idParam struct {
	ID int64 `validate:"gt=0"`
}

//nolint:gocritic // hugeParam: record converted once per request
func newCustomerResponse(c recommend.CustomerRecord, now time.Time) CustomerResponse {
	resp := CustomerResponse{
		ID:           c.ID,
		EntityType:   string(c.EntityType),
		Gender:       c.Gender,
		FamilyStatus: c.FamilyStatus,
		Sector:       c.Sector,
		SubSector:    c.SubSector,
		City:         c.City,
		Governorate:  c.Governorate,
		Enabled:      c.Enabled,
	}
	if !c.BirthDate.IsZero() {
		d := c.BirthDate.Format(time.DateOnly)
		age := recommend.AgeAt(c.BirthDate, now)
		resp.BirthDate = &d
		resp.Age = &age
	}
	return resp
}

//nolint:gocritic // hugeParam: record converted once per request
func newContractResponse(c recommend.ContractRecord) ContractResponse {
	resp := ContractResponse{
		ID:            c.ID,
		CustomerID:    c.CustomerID,
		Status:        string(c.Status),
		PaymentStatus: c.PaymentStatus,
	}
	if c.ProductID != 0 {
		p := c.ProductID
		resp.ProductID = &p
	}
	if !math.IsNaN(c.TotalPremium) {
		v := c.TotalPremium
		resp.TotalPremium = &v
	}
	return resp
}

// parseID reads a positive int64 path parameter. It writes the 400 response
// and returns false on failure.
func parseID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid "+name+": must be an integer", nil)
		return 0, false
	}
	if verr := validation.ValidateStruct(&idParam{ID: id}); verr != nil {
		apiErr := verr.ToAPIError()
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation, "Invalid "+name+": must be positive", apiErr.Details, nil)
		return 0, false
	}
	return id, true
}

func (h *Handler) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.lookupTimeout)
}

// GetCustomer handles GET /api/v1/customers/{id}. Disabled customers are
// reported as not found.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := h.lookupContext(r.Context())
	defer cancel()

	customer, err := h.store.GetCustomer(ctx, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newCustomerResponse(*customer, time.Now()), start)
}

// GetContract handles GET /api/v1/contracts/{id}.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := h.lookupContext(r.Context())
	defer cancel()

	contract, err := h.store.GetContract(ctx, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, newContractResponse(*contract), start)
}
