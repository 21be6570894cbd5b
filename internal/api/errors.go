// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/covera/internal/database"
	"github.com/tomtom215/covera/internal/recommend"
)

var errNoStore = errors.New("no data store configured")

// errorMapping is the HTTP rendering of a domain error.
type errorMapping struct {
	status  int
	code    string
	message string
}

// mapDomainError translates recommend and data source errors to HTTP.
// Unknown errors become 500.
func mapDomainError(err error) errorMapping {
	switch {
	case errors.Is(err, recommend.ErrCustomerNotFound):
		return errorMapping{http.StatusNotFound, ErrCodeCustomerNotFound, "Customer not found"}
	case errors.Is(err, recommend.ErrContractNotFound):
		return errorMapping{http.StatusNotFound, ErrCodeContractNotFound, "Contract not found"}
	case errors.Is(err, recommend.ErrNotTrained):
		return errorMapping{http.StatusServiceUnavailable, ErrCodeModelNotTrained, "No recommendation model has been trained yet"}
	case errors.Is(err, recommend.ErrTrainingInProgress):
		return errorMapping{http.StatusConflict, ErrCodeTrainingInProgress, "A training run is already in progress"}
	case errors.Is(err, recommend.ErrEmptyDataset):
		return errorMapping{http.StatusUnprocessableEntity, ErrCodeEmptyDataset, "No labeled rows to train on"}
	case errors.Is(err, recommend.ErrDataIntegrity):
		return errorMapping{http.StatusConflict, ErrCodeDataIntegrity, "Recommendation references a product missing from the catalog"}
	case database.IsUnavailable(err):
		return errorMapping{http.StatusServiceUnavailable, ErrCodeSourceUnavailable, "Data source temporarily unavailable"}
	default:
		return errorMapping{http.StatusInternalServerError, ErrCodeInternal, "Internal server error"}
	}
}

func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	m := mapDomainError(err)
	respondError(w, r, m.status, m.code, m.message, err)
}
