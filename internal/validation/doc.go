// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

// Package validation wraps go-playground/validator v10 with a shared
// instance and API-friendly error messages.
//
// Request parameter structs declare their rules with tags and handlers turn
// failures into the VALIDATION_ERROR envelope:
//
//	type recommendParams struct {
//	    CustomerID int64 `validate:"gt=0"`
//	    Limit      int   `validate:"gte=1,lte=10"`
//	}
//
//	if verr := validation.ValidateStruct(&p); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
//	    return
//	}
//
// The custom "label" tag accepts printable text without control characters,
// used for sub-sector names taken from URL paths.
package validation
