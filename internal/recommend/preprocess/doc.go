// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

// Package preprocess turns raw categorical and numeric feature rows into a
// dense numeric design matrix.
//
// A Pipeline is produced by Fit and never modified afterwards:
//
//	p, err := preprocess.Fit(preprocess.Config{
//	    CategoricalColumns: []string{"gender", "city"},
//	    NumericColumns:     []string{"age"},
//	}, rows)
//	x, err := p.Transform(row)
//
// Categorical values unseen during Fit are encoded as zeros instead of
// failing, so inference never rejects a customer for a new city or
// sub-sector.
package preprocess
