// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

// Candidate is a product the ranker is considering for a customer.
type Candidate struct {
	ProductID   int64
	Probability float64
	Score       float64

	// BranchName is empty when the product is missing from the index.
	BranchName string
	Indexed    bool
	RuleMatch  bool
}

// Blender combines classifier output with the rule table. Implementations
// must be deterministic and must not drop candidates that are not Indexed,
// so that integrity errors still surface.
type Blender interface {
	// Name returns the policy name.
	Name() string

	// Apply returns the candidates to rank, with adjusted scores.
	// RuleMatch is already set on every candidate.
	Apply(subSector string, candidates []Candidate) []Candidate
}

// NewBlender returns the blender for a policy. Unknown policies fall back to
// BlendNone.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func NewBlender(cfg BlendConfig, rules *RuleTable) Blender {
	switch cfg.Policy {
	case BlendBoost:
		return boostBlender{weight: cfg.Weight}
	case BlendFilter:
		return filterBlender{rules: rules}
	default:
		return noBlender{}
	}
}

type noBlender struct{}

func (noBlender) Name() string { return string(BlendNone) }

func (noBlender) Apply(_ string, candidates []Candidate) []Candidate {
	return candidates
}

// boostBlender adds a constant to the score of rule-matching products.
// Ranking follows the boosted score, so probabilities in the output are not
// necessarily non-increasing.
type boostBlender struct {
	weight float64
}

func (boostBlender) Name() string { return string(BlendBoost) }

func (b boostBlender) Apply(_ string, candidates []Candidate) []Candidate {
	for i := range candidates {
		if candidates[i].RuleMatch {
			candidates[i].Score += b.weight
		}
	}
	return candidates
}

// filterBlender keeps only rule-matching products for sub-sectors that have
// a rule. Customers in other sub-sectors are left unfiltered.
type filterBlender struct {
	rules *RuleTable
}

func (filterBlender) Name() string { return string(BlendFilter) }

func (f filterBlender) Apply(subSector string, candidates []Candidate) []Candidate {
	if !f.rules.Has(subSector) {
		return candidates
	}
	kept := candidates[:0]
	for _, c := range candidates {
		if c.RuleMatch || !c.Indexed {
			kept = append(kept, c)
		}
	}
	return kept
}
