// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

// Package metrics defines the Prometheus collectors exported by Covera.
//
// Collectors are registered on the default registry through promauto and
// served by promhttp on /metrics. Callers use the Record* helpers rather
// than touching the collectors directly:
//
//	metrics.RecordRecommendation(metrics.OutcomeServed, len(items), time.Since(start))
//	metrics.RecordTrainingSuccess(snapshot, elapsed)
//
// Families:
//
//	covera_api_*               HTTP request count, latency, in-flight gauge
//	covera_recommend_*         outcomes, latency, list size, cache hits
//	covera_training_*          runs by result, duration, row counts
//	covera_model_*             accuracy, version, classes, customers
//	covera_data_load_*         data source latency and failures
//	covera_circuit_breaker_*   data source breaker state
package metrics
