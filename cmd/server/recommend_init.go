// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package main

import (
	"runtime"

	"github.com/tomtom215/covera/internal/config"
	"github.com/tomtom215/covera/internal/logging"
	"github.com/tomtom215/covera/internal/recommend"
)

// initEngine builds the recommendation engine over dp with the configured
// rule table.
func initEngine(cfg *config.Config, dp recommend.DataProvider) (*recommend.Engine, error) {
	rules, err := config.LoadRuleTable(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}

	engineCfg := buildEngineConfig(cfg)
	logger := logging.Logger()
	logger.Info().
		Str("profile", string(engineCfg.Profile)).
		Str("blend_policy", string(engineCfg.Blend.Policy)).
		Int("num_trees", engineCfg.Forest.NumTrees).
		Int("rules", rules.Len()).
		Dur("train_interval", engineCfg.Training.Interval).
		Bool("train_on_startup", cfg.Recommend.TrainOnStartup).
		Msg("Initializing recommendation engine")

	return recommend.NewEngine(engineCfg, dp, rules, logger)
}

// buildEngineConfig maps application configuration onto the engine's.
// Zero forest values keep the engine defaults.
func buildEngineConfig(cfg *config.Config) *recommend.Config {
	rc := cfg.Recommend
	out := recommend.DefaultConfig()

	out.Limits.DefaultN = rc.TopN
	out.Limits.MaxN = rc.MaxN
	out.Profile = recommend.ProfileStrategy(rc.Profile)
	out.Blend.Policy = recommend.BlendPolicy(rc.BlendPolicy)
	out.Blend.Weight = rc.BlendWeight

	out.Forest.NumTrees = rc.NumTrees
	out.Forest.MaxDepth = rc.MaxDepth
	out.Forest.MinSamplesSplit = rc.MinSamplesSplit
	out.Forest.MinSamplesLeaf = rc.MinSamplesLeaf
	out.Forest.MaxFeatures = rc.MaxFeatures
	out.Forest.NumWorkers = rc.NumWorkers
	if out.Forest.NumWorkers <= 0 {
		out.Forest.NumWorkers = runtime.NumCPU()
	}
	out.Forest.Seed = rc.Seed

	out.Evaluation.TestFraction = rc.TestFraction
	out.Evaluation.Seed = rc.Seed

	out.Training.Interval = rc.TrainInterval
	out.Training.Timeout = rc.TrainTimeout
	out.Training.LoadTimeout = rc.LoadTimeout
	out.Training.MinLabeledRows = rc.MinLabeledRows
	out.Training.MaterializeTable = rc.MaterializeTable

	out.Cache.Enabled = rc.CacheEnabled
	out.Cache.TTL = rc.CacheTTL
	out.Cache.MaxEntries = rc.CacheMaxEntries
	return out
}
