// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

// Package forest implements a random forest classifier over dense float
// features with integer class labels.
//
// Trees are CART trees grown on bootstrap samples with gini impurity and a
// random subset of features per split. Probabilities are the mean of the
// per-tree leaf class distributions, so a class no tree ever reaches gets
// exactly zero.
package forest
