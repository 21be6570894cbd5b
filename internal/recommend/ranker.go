// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

import (
	"fmt"
	"sort"
)

// RankInput is the classifier output for one customer.
type RankInput struct {
	// Classes and Proba are aligned: Proba[i] is the probability of Classes[i].
	Classes []int64
	Proba   []float64

	// Owned holds the products the customer already has.
	Owned map[int64]struct{}

	SubSector string

	// N is the maximum number of recommendations.
	N int
}

// Rank turns class probabilities into at most in.N recommendations.
//
// Owned products and products with probability exactly zero are excluded.
// The remaining candidates are blended, then ordered by score descending
// with ties broken by ascending product ID. A selected product missing from
// the product index yields a *DataIntegrityError.
//
//nolint:gocritic // hugeParam: in passed by value for immutability
func Rank(in RankInput, products map[int64]ProductRecord, rules *RuleTable, blender Blender) ([]Recommendation, error) {
	if len(in.Classes) != len(in.Proba) {
		return nil, fmt.Errorf("rank: %d classes but %d probabilities", len(in.Classes), len(in.Proba))
	}
	if blender == nil {
		blender = noBlender{}
	}

	candidates := make([]Candidate, 0, len(in.Classes))
	for i, pid := range in.Classes {
		p := in.Proba[i]
		if p <= 0 {
			continue
		}
		if _, owned := in.Owned[pid]; owned {
			continue
		}
		c := Candidate{ProductID: pid, Probability: p, Score: p}
		if prod, ok := products[pid]; ok {
			c.Indexed = true
			c.BranchName = prod.BranchName
			c.RuleMatch = rules.Matches(in.SubSector, prod.BranchName)
		}
		candidates = append(candidates, c)
	}

	candidates = blender.Apply(in.SubSector, candidates)

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ProductID < candidates[j].ProductID
	})

	if in.N >= 0 && len(candidates) > in.N {
		candidates = candidates[:in.N]
	}

	recs := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		prod, ok := products[c.ProductID]
		if !ok {
			return nil, &DataIntegrityError{Entity: "product", ID: c.ProductID}
		}
		recs = append(recs, Recommendation{
			ProductID:     prod.ID,
			ProductName:   prod.Name,
			SubBranchID:   prod.SubBranchID,
			SubBranchName: prod.SubBranchName,
			BranchID:      prod.BranchID,
			BranchName:    prod.BranchName,
			Probability:   c.Probability,
			Score:         c.Score,
			RuleMatch:     c.RuleMatch,
		})
	}
	return recs, nil
}
