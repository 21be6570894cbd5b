// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/covera/internal/logging"
)

// Error codes returned in the error envelope.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeCustomerNotFound   = "CUSTOMER_NOT_FOUND"
	ErrCodeContractNotFound   = "CONTRACT_NOT_FOUND"
	ErrCodeRuleNotFound       = "RULE_NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeTrainingInProgress = "TRAINING_IN_PROGRESS"
	ErrCodeEmptyDataset       = "EMPTY_DATASET"
	ErrCodeDataIntegrity      = "DATA_INTEGRITY_ERROR"
	ErrCodeModelNotTrained    = "MODEL_NOT_TRAINED"
	ErrCodeSourceUnavailable  = "SOURCE_UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// Response is the envelope of every API response.
type Response struct {
	Status   string     `json:"status"`
	Data     any        `json:"data,omitempty"`
	Error    *ErrorBody `json:"error,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

func newMetadata(r *http.Request, start time.Time) Metadata {
	md := Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
	if !start.IsZero() {
		md.QueryTimeMS = time.Since(start).Milliseconds()
	}
	return md
}

// respondJSON writes a success envelope. start may be zero.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any, start time.Time) {
	writeEnvelope(w, r, status, &Response{
		Status:   "success",
		Data:     data,
		Metadata: newMetadata(r, start),
	})
}

// respondError writes an error envelope. err is logged, never sent to the
// client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondErrorDetails(w, r, status, code, message, nil, err)
}

func respondErrorDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details any, err error) {
	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}
	writeEnvelope(w, r, status, &Response{
		Status:   "error",
		Error:    &ErrorBody{Code: code, Message: message, Details: details},
		Metadata: newMetadata(r, time.Time{}),
	})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// sanitizeLogValue strips line breaks so client-influenced text cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	return strings.NewReplacer("\n", `\n`, "\r", `\r`).Replace(s)
}
