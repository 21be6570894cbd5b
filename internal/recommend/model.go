// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

import (
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/covera/internal/recommend/forest"
	"github.com/tomtom215/covera/internal/recommend/preprocess"
)

// Model is a fitted recommendation model: the preprocessing pipeline, the
// classifier, and the customer and product state captured at training time.
// A Model is never modified after construction and is safe for concurrent
// use. A new training run builds a new Model.
type Model struct {
	version   int
	trainedAt time.Time
	accuracy  float64

	pipeline *preprocess.Pipeline
	forest   *forest.Forest
	classes  []int64

	profiles map[int64]profile
	products map[int64]ProductRecord
	rules    *RuleTable
	blender  Blender
	defaultN int
}

// profile is the prediction query of one customer.
type profile struct {
	features  FeatureVector
	encoded   []float64
	owned     map[int64]struct{}
	subSector string
}

// modelParts carries everything needed to assemble a Model.
type modelParts struct {
	version   int
	trainedAt time.Time
	accuracy  float64
	pipeline  *preprocess.Pipeline
	forest    *forest.Forest
	rows      []TrainingRow
	products  []ProductRecord
	rules     *RuleTable
	blender   Blender
	strategy  ProfileStrategy
	defaultN  int
}

// newModel builds the per-customer profiles and the product index. rows
// must be ordered by (CustomerID, ContractID). Only customers with at least
// one labeled row get a profile.
func newModel(parts *modelParts) (*Model, error) {
	m := &Model{
		version:   parts.version,
		trainedAt: parts.trainedAt,
		accuracy:  parts.accuracy,
		pipeline:  parts.pipeline,
		forest:    parts.forest,
		classes:   parts.forest.Classes(),
		profiles:  make(map[int64]profile),
		products:  make(map[int64]ProductRecord, len(parts.products)),
		rules:     parts.rules,
		blender:   parts.blender,
		defaultN:  parts.defaultN,
	}
	for _, p := range parts.products {
		m.products[p.ID] = p
	}

	for start := 0; start < len(parts.rows); {
		end := start + 1
		for end < len(parts.rows) && parts.rows[end].CustomerID == parts.rows[start].CustomerID {
			end++
		}
		group := labeledRows(parts.rows[start:end])
		start = end
		if len(group) == 0 {
			// No contract with a product: outside the trained population.
			continue
		}

		fv := selectProfile(group, parts.strategy, parts.trainedAt)
		x, err := m.pipeline.Transform(toPipelineRow(&fv))
		if err != nil {
			return nil, fmt.Errorf("encode customer %d: %w", fv.CustomerID, err)
		}

		owned := make(map[int64]struct{}, len(group))
		for i := range group {
			owned[group[i].ProductID] = struct{}{}
		}

		m.profiles[fv.CustomerID] = profile{
			features:  fv,
			encoded:   x,
			owned:     owned,
			subSector: group[0].SubSector,
		}
	}

	return m, nil
}

// labeledRows returns the rows of group that carry a product, in order.
func labeledRows(group []TrainingRow) []TrainingRow {
	out := make([]TrainingRow, 0, len(group))
	for i := range group {
		if group[i].HasProduct() {
			out = append(out, group[i])
		}
	}
	return out
}

// selectProfile reduces a customer's rows to one feature vector.
func selectProfile(group []TrainingRow, strategy ProfileStrategy, now time.Time) FeatureVector {
	switch strategy {
	case ProfileFirst:
		return ExtractFeatures(group[0], now)
	case ProfileMean:
		fv := ExtractFeatures(group[len(group)-1], now)
		fv.TotalPremium = meanObserved(group, func(r *TrainingRow) float64 { return r.TotalPremium })
		fv.ClaimsCount = meanObserved(group, func(r *TrainingRow) float64 { return float64(r.ClaimsCount) })
		return fv
	default:
		return ExtractFeatures(group[len(group)-1], now)
	}
}

// meanObserved averages the non-missing values of field, or returns a
// missing value when there are none.
func meanObserved(group []TrainingRow, field func(*TrainingRow) float64) float64 {
	var sum float64
	n := 0
	for i := range group {
		if v := field(&group[i]); !IsMissing(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return Missing()
	}
	return sum / float64(n)
}

func toPipelineRow(fv *FeatureVector) preprocess.Row {
	return preprocess.Row{Categorical: fv.Categorical(), Numeric: fv.Numeric()}
}

// Recommend ranks products for a customer. n <= 0 uses the model default.
// An unknown customer yields a Result with Found false and no error. A
// recommended product missing from the product index yields a
// *DataIntegrityError.
func (m *Model) Recommend(customerID int64, n int) (*Result, error) {
	if n <= 0 {
		n = m.defaultN
	}
	res := &Result{
		CustomerID:   customerID,
		Items:        []Recommendation{},
		ModelVersion: m.version,
	}

	p, ok := m.profiles[customerID]
	if !ok {
		return res, nil
	}
	res.Found = true

	proba, err := m.forest.PredictProba(p.encoded)
	if err != nil {
		return nil, fmt.Errorf("predict customer %d: %w", customerID, err)
	}

	items, err := Rank(RankInput{
		Classes:   m.classes,
		Proba:     proba,
		Owned:     p.owned,
		SubSector: p.subSector,
		N:         n,
	}, m.products, m.rules, m.blender)
	if err != nil {
		return nil, fmt.Errorf("rank customer %d: %w", customerID, err)
	}
	res.Items = items
	return res, nil
}

// Probabilities returns the class probabilities for a known customer,
// aligned with Classes.
func (m *Model) Probabilities(customerID int64) ([]float64, bool, error) {
	p, ok := m.profiles[customerID]
	if !ok {
		return nil, false, nil
	}
	proba, err := m.forest.PredictProba(p.encoded)
	if err != nil {
		return nil, true, err
	}
	return proba, true, nil
}

// Owned returns the products a customer already holds, sorted.
func (m *Model) Owned(customerID int64) []int64 {
	p, ok := m.profiles[customerID]
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(p.owned))
	for id := range p.owned {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// HasCustomer reports whether the customer is part of the trained population.
func (m *Model) HasCustomer(customerID int64) bool {
	_, ok := m.profiles[customerID]
	return ok
}

// Classes returns the products the classifier can predict, ascending.
func (m *Model) Classes() []int64 { return append([]int64(nil), m.classes...) }

// Version returns the model version.
func (m *Model) Version() int { return m.version }

// TrainedAt returns when the model was built.
func (m *Model) TrainedAt() time.Time { return m.trainedAt }

// Accuracy returns the held-out accuracy recorded at training.
func (m *Model) Accuracy() float64 { return m.accuracy }

// Customers returns the number of customers with a profile.
func (m *Model) Customers() int { return len(m.profiles) }

// FeatureNames returns the encoded feature names.
func (m *Model) FeatureNames() []string { return m.pipeline.FeatureNames() }

// BlendPolicy returns the name of the active blending policy.
func (m *Model) BlendPolicy() string { return m.blender.Name() }

// Profile returns the feature vector used as a customer's query.
func (m *Model) Profile(customerID int64) (FeatureVector, bool) {
	p, ok := m.profiles[customerID]
	return p.features, ok
}
