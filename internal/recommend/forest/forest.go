// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package forest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoSamples is returned when fitting on an empty design matrix.
	ErrNoSamples = errors.New("forest: no samples")

	// ErrShape is returned for inconsistent matrix dimensions.
	ErrShape = errors.New("forest: inconsistent shape")
)

// Forest is a fitted random forest classifier. It is immutable and safe for
// concurrent prediction.
type Forest struct {
	cfg     Config
	classes []int64
	trees   []*tree
	width   int
}

// Fit trains a forest on x with labels y. Trees are built concurrently, each
// with its own RNG seeded from cfg.Seed and the tree index, so the result
// does not depend on scheduling.
//
//nolint:gocritic // hugeParam: cfg passed by value to keep the caller's copy intact
func Fit(ctx context.Context, cfg Config, x [][]float64, y []int64) (*Forest, error) {
	cfg = withDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, ErrNoSamples
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrShape, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: zero features", ErrShape)
	}
	for i := range x {
		if len(x[i]) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(x[i]), width)
		}
	}

	classes, encoded := encodeLabels(y)

	f := &Forest{
		cfg:     cfg,
		classes: classes,
		trees:   make([]*tree, cfg.NumTrees),
		width:   width,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.NumWorkers)

	for i := 0; i < cfg.NumTrees; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i))) //nolint:gosec // math/rand is fine for bootstrap sampling
			samples := f.sample(len(x), rng)
			f.trees[i] = buildTree(&f.cfg, x, encoded, len(classes), samples, rng)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build trees: %w", err)
	}
	return f, nil
}

func (f *Forest) sample(n int, rng *rand.Rand) []int {
	samples := make([]int, n)
	if f.cfg.DisableBootstrap {
		for i := range samples {
			samples[i] = i
		}
		return samples
	}
	for i := range samples {
		samples[i] = rng.Intn(n)
	}
	return samples
}

// Classes returns the known classes in ascending order. Probability vectors
// returned by PredictProba are aligned with it.
func (f *Forest) Classes() []int64 {
	return append([]int64(nil), f.classes...)
}

// NumTrees returns the ensemble size.
func (f *Forest) NumTrees() int {
	return len(f.trees)
}

// Width returns the number of input features.
func (f *Forest) Width() int {
	return f.width
}

// PredictProba returns per-class probabilities for x as the mean of the
// trees' leaf distributions. The values sum to 1.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.width {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrShape, len(x), f.width)
	}
	proba := make([]float64, len(f.classes))
	for _, t := range f.trees {
		for c, p := range t.predict(x) {
			proba[c] += p
		}
	}
	n := float64(len(f.trees))
	for c := range proba {
		proba[c] /= n
	}
	return proba, nil
}

// Predict returns the most probable class, the smallest on ties.
func (f *Forest) Predict(x []float64) (int64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.classes[best], nil
}

// Score returns the accuracy of the forest on x and y.
func (f *Forest) Score(x [][]float64, y []int64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d rows, %d labels", ErrShape, len(x), len(y))
	}
	if len(x) == 0 {
		return 0, ErrNoSamples
	}
	correct := 0
	for i := range x {
		pred, err := f.Predict(x[i])
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x)), nil
}

// encodeLabels maps labels to dense indices over the sorted distinct labels.
func encodeLabels(y []int64) ([]int64, []int) {
	set := make(map[int64]struct{})
	for _, v := range y {
		set[v] = struct{}{}
	}
	classes := make([]int64, 0, len(set))
	for v := range set {
		classes = append(classes, v)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	index := make(map[int64]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	encoded := make([]int, len(y))
	for i, v := range y {
		encoded[i] = index[v]
	}
	return classes, encoded
}
