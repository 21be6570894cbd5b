// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package forest

import (
	"fmt"
	"math"
)

// Config contains parameters for the random forest.
type Config struct {
	// NumTrees is the number of trees in the ensemble.
	// Default: 50.
	NumTrees int `json:"num_trees"`

	// MaxDepth limits tree depth. Zero means unlimited.
	// Default: 0.
	MaxDepth int `json:"max_depth"`

	// MinSamplesSplit is the minimum node size that may be split.
	// Default: 2.
	MinSamplesSplit int `json:"min_samples_split"`

	// MinSamplesLeaf is the minimum number of samples in each child.
	// Default: 1.
	MinSamplesLeaf int `json:"min_samples_leaf"`

	// MaxFeatures is the number of features tried per split.
	// Zero means the square root of the feature count.
	// Default: 0.
	MaxFeatures int `json:"max_features"`

	// DisableBootstrap trains every tree on the full sample.
	// Default: false.
	DisableBootstrap bool `json:"disable_bootstrap"`

	// NumWorkers bounds concurrent tree construction.
	// Default: 4.
	NumWorkers int `json:"num_workers"`

	// Seed makes training reproducible. Tree i uses Seed+i. Zero is a
	// valid seed; DefaultConfig uses 42.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the default forest parameters.
func DefaultConfig() Config {
	return Config{
		NumTrees:        50,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		NumWorkers:      4,
		Seed:            42,
	}
}

// withDefaults fills zero-valued size and worker fields. Seed is kept as
// given.
//
//nolint:gocritic // hugeParam: cfg passed by value, returns modified copy
func withDefaults(cfg Config) Config {
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 50
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = 1
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.NumTrees < 0 {
		return fmt.Errorf("forest.num_trees must be non-negative, got %d", c.NumTrees)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("forest.max_depth must be non-negative, got %d", c.MaxDepth)
	}
	if c.MaxFeatures < 0 {
		return fmt.Errorf("forest.max_features must be non-negative, got %d", c.MaxFeatures)
	}
	if c.MinSamplesLeaf < 0 {
		return fmt.Errorf("forest.min_samples_leaf must be non-negative, got %d", c.MinSamplesLeaf)
	}
	return nil
}

// featuresPerSplit resolves MaxFeatures against the feature count.
func (c *Config) featuresPerSplit(width int) int {
	m := c.MaxFeatures
	if m <= 0 {
		m = int(math.Sqrt(float64(width)))
	}
	if m < 1 {
		m = 1
	}
	if m > width {
		m = width
	}
	return m
}
