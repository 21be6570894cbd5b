// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

/*
Package middleware provides the covera HTTP middleware.

  - RequestID: propagates or generates X-Request-ID and stores it for logging.Ctx
  - PrometheusMetrics: request count, latency and in-flight gauge, labeled by chi route pattern
  - AccessLog: one zerolog line per request, warn above a latency threshold

The router in internal/api composes them with the chi ecosystem middleware
(Recoverer, RealIP, Compress, go-chi/cors, go-chi/httprate):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(time.Second))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
