// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/covera/internal/logging"
)

// DefaultSlowThreshold is the latency above which requests log at warn level.
const DefaultSlowThreshold = time.Second

// AccessLog logs one line per request through the request-scoped logger.
// Server errors log at error level, slow requests at warn, the rest at debug.
// Place it after RequestID so the line carries the request ID.
func AccessLog(slowThreshold time.Duration) func(http.Handler) http.Handler {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			logger := logging.Ctx(r.Context())
			var event *zerolog.Event
			switch {
			case rec.status >= http.StatusInternalServerError:
				event = logger.Error()
			case elapsed > slowThreshold:
				event = logger.Warn().Bool("slow", true)
			default:
				event = logger.Debug()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", rec.status).
				Int64("duration_ms", elapsed.Milliseconds()).
				Msg("HTTP request")
		})
	}
}
