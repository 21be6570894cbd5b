// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/covera/config.yaml",
	"/etc/covera/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the .env file path.
const DotEnvPathEnvVar = "DOTENV_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      10 * time.Minute, // POST /recommendations/train is synchronous
			ShutdownTimeout:   30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Database: DatabaseConfig{
			Driver:            DriverDuckDB,
			Path:              "/data/covera.duckdb",
			MaxMemory:         "1GB",
			Threads:           0,
			SeedDemo:          false,
			PostgresURL:       "",
			AutoMigrate:       true,
			MaxConns:          10,
			MinConns:          2,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   30 * time.Minute,
			HealthCheckPeriod: time.Minute,
			QueryTimeout:      5 * time.Second,
		},
		Recommend: RecommendConfig{
			TopN:             3,
			MaxN:             10,
			Profile:          "latest",
			BlendPolicy:      "none",
			BlendWeight:      0.1,
			NumTrees:         50,
			MaxDepth:         0,
			MinSamplesSplit:  2,
			MinSamplesLeaf:   1,
			MaxFeatures:      0,
			NumWorkers:       0,
			Seed:             42,
			TestFraction:     0.2,
			TrainInterval:    24 * time.Hour,
			TrainOnStartup:   true,
			TrainTimeout:     10 * time.Minute,
			LoadTimeout:      2 * time.Minute,
			MinLabeledRows:   1,
			MaterializeTable: true,
			CacheEnabled:     true,
			CacheTTL:         5 * time.Minute,
			CacheMaxEntries:  10000,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 3,
			MaxRequests:      1,
			Interval:         0,
			Timeout:          30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Default returns the built-in defaults without reading any source.
func Default() *Config {
	return defaultConfig()
}

// Load builds the configuration from defaults, an optional .env file, an
// optional YAML file and the environment, then validates it.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads DOTENV_PATH or ./.env when present. Variables already set
// in the environment win.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated environment values.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to config paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_read_timeout":   "server.read_timeout",
	"http_write_timeout":  "server.write_timeout",
	"shutdown_timeout":    "server.shutdown_timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Database
	"db_driver":              "database.driver",
	"duckdb_path":            "database.path",
	"duckdb_max_memory":      "database.max_memory",
	"duckdb_threads":         "database.threads",
	"seed_demo_data":         "database.seed_demo",
	"database_url":           "database.postgres_url",
	"db_auto_migrate":        "database.auto_migrate",
	"db_max_conns":           "database.max_conns",
	"db_min_conns":           "database.min_conns",
	"db_max_conn_lifetime":   "database.max_conn_lifetime",
	"db_max_conn_idle_time":  "database.max_conn_idle_time",
	"db_health_check_period": "database.health_check_period",
	"db_query_timeout":       "database.query_timeout",

	// Recommendation engine
	"recommend_top_n":             "recommend.top_n",
	"recommend_max_n":             "recommend.max_n",
	"recommend_profile":           "recommend.profile",
	"recommend_blend_policy":      "recommend.blend_policy",
	"recommend_blend_weight":      "recommend.blend_weight",
	"recommend_num_trees":         "recommend.num_trees",
	"recommend_max_depth":         "recommend.max_depth",
	"recommend_min_samples_split": "recommend.min_samples_split",
	"recommend_min_samples_leaf":  "recommend.min_samples_leaf",
	"recommend_max_features":      "recommend.max_features",
	"recommend_workers":           "recommend.num_workers",
	"recommend_seed":              "recommend.seed",
	"recommend_test_fraction":     "recommend.test_fraction",
	"recommend_train_interval":    "recommend.train_interval",
	"recommend_train_on_startup":  "recommend.train_on_startup",
	"recommend_train_timeout":     "recommend.train_timeout",
	"recommend_load_timeout":      "recommend.load_timeout",
	"recommend_min_labeled_rows":  "recommend.min_labeled_rows",
	"recommend_materialize_table": "recommend.materialize_table",
	"recommend_cache_enabled":     "recommend.cache_enabled",
	"recommend_cache_ttl":         "recommend.cache_ttl",
	"recommend_cache_max_entries": "recommend.cache_max_entries",

	// Rules
	"rules_path": "rules.path",

	// Circuit breaker
	"breaker_failure_threshold": "breaker.failure_threshold",
	"breaker_max_requests":      "breaker.max_requests",
	"breaker_interval":          "breaker.interval",
	"breaker_timeout":           "breaker.timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths:
//
//	DATABASE_URL      -> database.postgres_url
//	RECOMMEND_TOP_N   -> recommend.top_n
//	HTTP_PORT         -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
