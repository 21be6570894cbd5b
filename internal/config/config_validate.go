// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/covera/internal/logging"
	"github.com/tomtom215/covera/internal/validation"
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %s", c.Server.WriteTimeout)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			return fmt.Errorf("server.rate_limit_reqs must be at least 1 when rate limiting is enabled, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive, got %s", c.Server.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	db := &c.Database
	switch db.Driver {
	case DriverDuckDB:
		if strings.TrimSpace(db.Path) == "" {
			return fmt.Errorf("database.path is required for the duckdb driver")
		}
	case DriverPostgres:
		if db.PostgresURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
		if err := validatePostgresURL(db.PostgresURL); err != nil {
			return fmt.Errorf("DATABASE_URL is invalid: %w", err)
		}
		if db.MinConns > db.MaxConns {
			return fmt.Errorf("database.min_conns (%d) must not exceed database.max_conns (%d)", db.MinConns, db.MaxConns)
		}
		if db.SeedDemo {
			return fmt.Errorf("database.seed_demo is only supported with the duckdb driver")
		}
	}
	if db.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive, got %s", db.QueryTimeout)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := &c.Recommend
	if r.TopN > r.MaxN {
		return fmt.Errorf("recommend.top_n (%d) must not exceed recommend.max_n (%d)", r.TopN, r.MaxN)
	}
	if r.TrainInterval < 0 {
		return fmt.Errorf("recommend.train_interval must not be negative, got %s", r.TrainInterval)
	}
	if r.TrainTimeout <= 0 {
		return fmt.Errorf("recommend.train_timeout must be positive, got %s", r.TrainTimeout)
	}
	if r.LoadTimeout <= 0 {
		return fmt.Errorf("recommend.load_timeout must be positive, got %s", r.LoadTimeout)
	}
	if r.CacheEnabled && r.CacheTTL <= 0 {
		return fmt.Errorf("recommend.cache_ttl must be positive when the cache is enabled, got %s", r.CacheTTL)
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if c.Breaker.Timeout <= 0 {
		return fmt.Errorf("breaker.timeout must be positive, got %s", c.Breaker.Timeout)
	}
	if c.Breaker.Interval < 0 {
		return fmt.Errorf("breaker.interval must not be negative, got %s", c.Breaker.Interval)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, disabled; got %q", c.Logging.Level)
	}
	return nil
}

func validatePostgresURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("scheme must be postgres or postgresql, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
