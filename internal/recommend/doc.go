// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

// Package recommend implements the insurance product recommendation pipeline.
//
// # Pipeline
//
// Training runs these stages in order:
//
//   - BuildTrainingRows: left-joins enabled customers, their contracts and
//     per-contract claim counts into TrainingRows
//   - LabeledFeatures: derives FeatureVectors (age from birth year) and drops
//     rows without a product
//   - preprocess.Fit: learns imputation, one-hot encoding and scaling
//   - forest.Fit: trains a random forest with product IDs as classes
//
// The fitted pipeline and forest, together with each customer's query
// vector, owned products and the product index, form a Model. Inference
// goes through Model.Recommend, which excludes owned and zero-probability
// products, orders by probability (ties by product ID) and resolves product
// details.
//
// # Rule Blending
//
// The RuleTable maps customer sub-sectors to relevant insurance branches.
// Config.Blend selects how it influences ranking:
//
//   - none: ranking is purely probabilistic; matches are reported in
//     Recommendation.RuleMatch
//   - boost: matching products get an additive score boost
//   - filter: only matching products are kept for sub-sectors with a rule
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), db, nil, logger)
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Train(ctx)
//	// result.Accuracy holds the held-out accuracy
//
//	res, err := engine.Recommend(ctx, customerID, 3)
//	if !res.Found {
//	    // customer unknown to the trained model
//	}
//
// # Thread Safety
//
// A Model is immutable. The Engine publishes a new Model atomically after
// each successful training run, so Recommend never observes a partially
// fitted state and never blocks on training.
package recommend
