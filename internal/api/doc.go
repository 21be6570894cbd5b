// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

/*
Package api exposes the covera HTTP API on a chi router.

Endpoints:

	GET  /                                   service banner
	GET  /metrics                            Prometheus exposition
	GET  /api/v1/health                      dependency summary
	GET  /api/v1/health/live                 liveness probe
	GET  /api/v1/health/ready                readiness (data source reachable and a model published)
	GET  /api/v1/customers/{id}              enabled customer by ID
	GET  /api/v1/contracts/{id}              contract by ID
	GET  /api/v1/recommendations/{id}?limit  top-N products for a customer
	POST /api/v1/recommendations/train       synchronous training run
	GET  /api/v1/recommendations/status      training status and breaker state
	GET  /api/v1/recommendations/metrics     engine counters
	GET  /api/v1/recommendations/config      effective engine configuration
	GET  /api/v1/rules                       sub-sector rule table
	GET  /api/v1/rules/{subSector}           branches recommended for one sub-sector

Every response uses the same envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","request_id":"..."}}
	{"status":"error","error":{"code":"CUSTOMER_NOT_FOUND","message":"..."},"metadata":{...}}

Recommendation errors map to status codes as follows: unknown customer 404,
no published model 503, data source breaker open 503, product missing from
the product index 409.
*/
package api
