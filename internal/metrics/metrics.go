// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package metrics

import (
	"errors"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation outcomes.
const (
	OutcomeServed     = "served"
	OutcomeEmpty      = "empty"
	OutcomeNotFound   = "not_found"
	OutcomeIntegrity  = "integrity_error"
	OutcomeNotTrained = "not_trained"
	OutcomeError      = "error"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covera_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "covera_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "covera_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Recommendation Metrics
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covera_recommend_requests_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "covera_recommend_duration_seconds",
			Help:    "Time to produce a recommendation list",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	RecommendItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "covera_recommend_items",
			Help:    "Number of products returned per served request",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "covera_recommend_cache_hits_total",
			Help: "Recommendation cache hits",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "covera_recommend_cache_misses_total",
			Help: "Recommendation cache misses",
		},
	)

	// Training Metrics
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covera_training_runs_total",
			Help: "Training runs by result",
		},
		[]string{"result"}, // "success", "failure", "skipped"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "covera_training_duration_seconds",
			Help:    "Duration of training runs",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ModelAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "covera_model_accuracy",
			Help: "Held-out accuracy of the published model",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "covera_model_version",
			Help: "Version of the published model",
		},
	)

	ModelLastTrained = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "covera_model_last_trained_timestamp_seconds",
			Help: "Unix time of the last successful training run",
		},
	)

	TrainingRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "covera_training_rows",
			Help: "Row counts of the last successful training run",
		},
		[]string{"set"}, // "dataset", "labeled", "train", "test"
	)

	ModelClasses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "covera_model_classes",
			Help: "Number of product classes known to the published model",
		},
	)

	ModelCustomers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "covera_model_customers",
			Help: "Number of customer profiles in the published model",
		},
	)

	// Data Source Metrics
	DataLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "covera_data_load_duration_seconds",
			Help:    "Duration of data source loads",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "entity"},
	)

	DataLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covera_data_load_errors_total",
			Help: "Data source load failures",
		},
		[]string{"source", "entity"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "covera_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covera_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "covera_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records the outcome of one recommendation request.
func RecordRecommendation(outcome string, items int, duration time.Duration) {
	RecommendRequestsTotal.WithLabelValues(outcome).Inc()
	RecommendDuration.Observe(duration.Seconds())
	if outcome == OutcomeServed || outcome == OutcomeEmpty {
		RecommendItems.Observe(float64(items))
	}
}

// RecordCacheLookup records a recommendation cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		RecommendCacheHits.Inc()
	} else {
		RecommendCacheMisses.Inc()
	}
}

// TrainingSnapshot is the subset of a training result exported as metrics.
type TrainingSnapshot struct {
	ModelVersion int
	Accuracy     float64
	Evaluated    bool
	DatasetRows  int
	LabeledRows  int
	TrainRows    int
	TestRows     int
	Classes      int
	Customers    int
	TrainedAt    time.Time
}

// RecordTrainingSuccess records a successful training run and the published model.
//
//nolint:gocritic // hugeParam: snapshot is a plain value copied once per training run
func RecordTrainingSuccess(s TrainingSnapshot, duration time.Duration) {
	TrainingRunsTotal.WithLabelValues("success").Inc()
	TrainingDuration.Observe(duration.Seconds())

	if s.Evaluated {
		ModelAccuracy.Set(s.Accuracy)
	}
	ModelVersion.Set(float64(s.ModelVersion))
	ModelLastTrained.Set(float64(s.TrainedAt.Unix()))
	ModelClasses.Set(float64(s.Classes))
	ModelCustomers.Set(float64(s.Customers))

	TrainingRows.WithLabelValues("dataset").Set(float64(s.DatasetRows))
	TrainingRows.WithLabelValues("labeled").Set(float64(s.LabeledRows))
	TrainingRows.WithLabelValues("train").Set(float64(s.TrainRows))
	TrainingRows.WithLabelValues("test").Set(float64(s.TestRows))
}

// RecordTrainingFailure records a failed training run. Runs rejected because
// another run was active are counted as skipped.
func RecordTrainingFailure(err error, skipped func(error) bool, duration time.Duration) {
	if skipped != nil && skipped(err) {
		TrainingRunsTotal.WithLabelValues("skipped").Inc()
		return
	}
	TrainingRunsTotal.WithLabelValues("failure").Inc()
	TrainingDuration.Observe(duration.Seconds())
}

// RecordDataLoad records a data source load.
func RecordDataLoad(source, entity string, duration time.Duration, err error) {
	DataLoadDuration.WithLabelValues(source, entity).Observe(duration.Seconds())
	if err != nil {
		DataLoadErrors.WithLabelValues(source, entity).Inc()
	}
}

// Breaker states as exported by CircuitBreakerState.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// RecordBreakerTransition records a circuit breaker state change.
func RecordBreakerTransition(name, from, to string, state int) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// IsAny reports whether err matches any of targets. It is a convenience for
// RecordTrainingFailure callers.
func IsAny(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}
