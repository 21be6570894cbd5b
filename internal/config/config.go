// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package config

import (
	"time"
)

// Database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
//
// Loading order (see Load):
//  1. Defaults
//  2. Optional .env file (godotenv, does not override the real environment)
//  3. Optional YAML config file
//  4. Environment variables
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Recommend RecommendConfig `koanf:"recommend"`
	Rules     RulesConfig     `koanf:"rules"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed origins. "*" allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig selects and configures the customer data source.
type DatabaseConfig struct {
	// Driver is duckdb (embedded) or postgres.
	// Default: duckdb
	Driver string `koanf:"driver" validate:"oneof=duckdb postgres"`

	// DuckDB settings.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"` // 0 = runtime.NumCPU()

	// SeedDemo loads a small demo portfolio into an empty DuckDB store.
	SeedDemo bool `koanf:"seed_demo"`

	// PostgreSQL settings.
	PostgresURL string `koanf:"postgres_url"`

	// AutoMigrate applies the embedded schema migrations at startup.
	// Default: true
	AutoMigrate bool `koanf:"auto_migrate"`

	MaxConns          int32         `koanf:"max_conns" validate:"gte=0"`
	MinConns          int32         `koanf:"min_conns" validate:"gte=0"`
	MaxConnLifetime   time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `koanf:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `koanf:"health_check_period"`

	// QueryTimeout bounds single lookups (customer, contract).
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// TopN is the default list size.
	// Default: 3
	TopN int `koanf:"top_n" validate:"gte=1"`

	// MaxN is the largest list size a caller may request.
	// Default: 10
	MaxN int `koanf:"max_n" validate:"gte=1"`

	// Profile is latest, first or mean.
	// Default: latest
	Profile string `koanf:"profile" validate:"oneof=latest first mean"`

	// BlendPolicy is none, boost or filter.
	// Default: none
	BlendPolicy string  `koanf:"blend_policy" validate:"oneof=none boost filter"`
	BlendWeight float64 `koanf:"blend_weight" validate:"gte=0"`

	// Forest parameters.
	NumTrees        int   `koanf:"num_trees" validate:"gte=1"`
	MaxDepth        int   `koanf:"max_depth" validate:"gte=0"`
	MinSamplesSplit int   `koanf:"min_samples_split" validate:"gte=2"`
	MinSamplesLeaf  int   `koanf:"min_samples_leaf" validate:"gte=1"`
	MaxFeatures     int   `koanf:"max_features" validate:"gte=0"`
	NumWorkers      int   `koanf:"num_workers" validate:"gte=0"` // 0 = runtime.NumCPU()
	Seed            int64 `koanf:"seed"`

	// TestFraction is the held-out share used for accuracy.
	// Default: 0.2
	TestFraction float64 `koanf:"test_fraction" validate:"gte=0,lt=1"`

	TrainInterval    time.Duration `koanf:"train_interval"`
	TrainOnStartup   bool          `koanf:"train_on_startup"`
	TrainTimeout     time.Duration `koanf:"train_timeout"`
	LoadTimeout      time.Duration `koanf:"load_timeout"`
	MinLabeledRows   int           `koanf:"min_labeled_rows" validate:"gte=1"`
	MaterializeTable bool          `koanf:"materialize_table"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries" validate:"gte=0"`
}

// RulesConfig points at an optional sub-sector rule file. When Path is
// empty the built-in table is used.
type RulesConfig struct {
	Path string `koanf:"path"`
}

// BreakerConfig configures the circuit breaker around data loading.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// breaker opens.
	// Default: 3
	FailureThreshold uint32 `koanf:"failure_threshold" validate:"gte=1"`

	// MaxRequests is the number of probes allowed while half-open.
	// Default: 1
	MaxRequests uint32 `koanf:"max_requests" validate:"gte=1"`

	// Interval is the cyclic period for clearing counts while closed.
	// Zero never clears.
	Interval time.Duration `koanf:"interval"`

	// Timeout is how long the breaker stays open.
	// Default: 30s
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is json or console.
	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
