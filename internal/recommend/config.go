// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/covera/internal/recommend/forest"
)

// ProfileStrategy selects which of a customer's rows is used as the query
// for prediction when the customer has several contracts.
type ProfileStrategy string

const (
	// ProfileLatest uses the row of the contract with the highest ID.
	ProfileLatest ProfileStrategy = "latest"
	// ProfileFirst uses the row of the contract with the lowest ID.
	ProfileFirst ProfileStrategy = "first"
	// ProfileMean averages numeric fields across rows and takes categorical
	// fields from the latest row.
	ProfileMean ProfileStrategy = "mean"
)

// BlendPolicy controls how the rule table affects ranking.
type BlendPolicy string

const (
	// BlendNone ranks by probability; rule matches are reported only.
	BlendNone BlendPolicy = "none"
	// BlendBoost adds Blend.Weight to the score of rule-matching products.
	BlendBoost BlendPolicy = "boost"
	// BlendFilter drops products outside the customer's rule branches when
	// the customer's sub-sector has a rule.
	BlendFilter BlendPolicy = "filter"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Limits bounds the size of recommendation lists.
	Limits LimitsConfig `json:"limits"`

	// Profile selects the per-customer query row.
	// Default: latest.
	Profile ProfileStrategy `json:"profile"`

	// Blend controls rule-table blending.
	Blend BlendConfig `json:"blend"`

	// Forest contains classifier parameters.
	Forest forest.Config `json:"forest"`

	// Evaluation controls the held-out split.
	Evaluation EvaluationConfig `json:"evaluation"`

	// Training contains training schedule parameters.
	Training TrainingConfig `json:"training"`

	// Cache contains caching parameters.
	Cache CacheConfig `json:"cache"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultN is the number of recommendations returned when the caller
	// does not ask for a specific count.
	// Default: 3.
	DefaultN int `json:"default_n"`

	// MaxN is the largest count a caller may request.
	// Default: 10.
	MaxN int `json:"max_n"`
}

// BlendConfig contains rule-blending parameters.
type BlendConfig struct {
	// Policy is none, boost or filter.
	// Default: none.
	Policy BlendPolicy `json:"policy"`

	// Weight is the additive boost under BlendBoost.
	// Default: 0.1.
	Weight float64 `json:"weight"`
}

// EvaluationConfig controls accuracy evaluation.
type EvaluationConfig struct {
	// TestFraction is the held-out share per class.
	// Default: 0.2.
	TestFraction float64 `json:"test_fraction"`

	// Seed makes the split reproducible.
	// Default: 42.
	Seed int64 `json:"seed"`
}

// TrainingConfig contains training schedule parameters.
type TrainingConfig struct {
	// Interval is the time between scheduled training runs.
	// Default: 24h.
	Interval time.Duration `json:"interval"`

	// Timeout is the maximum time allowed for a training run.
	// Default: 10m.
	Timeout time.Duration `json:"timeout"`

	// LoadTimeout bounds loading the source collections.
	// Default: 2m.
	LoadTimeout time.Duration `json:"load_timeout"`

	// MinLabeledRows is the minimum number of labeled rows required to train.
	// Default: 1.
	MinLabeledRows int `json:"min_labeled_rows"`

	// MaterializeTable rebuilds the training table in the data source when
	// it supports it.
	// Default: true.
	MaterializeTable bool `json:"materialize_table"`
}

// CacheConfig contains caching parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached entries.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			DefaultN: 3,
			MaxN:     10,
		},
		Profile: ProfileLatest,
		Blend: BlendConfig{
			Policy: BlendNone,
			Weight: 0.1,
		},
		Forest: forest.DefaultConfig(),
		Evaluation: EvaluationConfig{
			TestFraction: 0.2,
			Seed:         42,
		},
		Training: TrainingConfig{
			Interval:         24 * time.Hour,
			Timeout:          10 * time.Minute,
			LoadTimeout:      2 * time.Minute,
			MinLabeledRows:   1,
			MaterializeTable: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Limits.DefaultN < 1 {
		return fmt.Errorf("limits.default_n must be positive, got %d", c.Limits.DefaultN)
	}
	if c.Limits.MaxN < c.Limits.DefaultN {
		return fmt.Errorf("limits.max_n must be >= limits.default_n, got %d < %d", c.Limits.MaxN, c.Limits.DefaultN)
	}

	switch c.Profile {
	case ProfileLatest, ProfileFirst, ProfileMean:
	default:
		return fmt.Errorf("profile must be one of latest, first, mean, got %q", c.Profile)
	}

	switch c.Blend.Policy {
	case BlendNone, BlendBoost, BlendFilter:
	default:
		return fmt.Errorf("blend.policy must be one of none, boost, filter, got %q", c.Blend.Policy)
	}
	if c.Blend.Weight < 0 {
		return fmt.Errorf("blend.weight must be non-negative, got %f", c.Blend.Weight)
	}

	if err := c.Forest.Validate(); err != nil {
		return err
	}

	if c.Evaluation.TestFraction < 0 || c.Evaluation.TestFraction >= 1 {
		return fmt.Errorf("evaluation.test_fraction must be in [0, 1), got %f", c.Evaluation.TestFraction)
	}

	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}
	if c.Training.LoadTimeout <= 0 {
		return fmt.Errorf("training.load_timeout must be positive, got %v", c.Training.LoadTimeout)
	}
	if c.Training.MinLabeledRows < 1 {
		return fmt.Errorf("training.min_labeled_rows must be positive, got %d", c.Training.MinLabeledRows)
	}

	if c.Cache.Enabled && c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be positive when cache is enabled, got %d", c.Cache.MaxEntries)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	clone := *c
	return &clone
}
