// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package forest

import (
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions sample indices into train and test sets,
// keeping each class's share of the test set close to testFraction.
// Classes with a single sample go entirely to train, and every class keeps
// at least one training sample. Both index slices are sorted ascending.
func StratifiedSplit(y []int64, testFraction float64, seed int64) (train, test []int) {
	byClass := make(map[int64][]int)
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}
	classes := make([]int64, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // math/rand is fine for evaluation splits

	train = make([]int, 0, len(y))
	test = make([]int, 0, int(float64(len(y))*testFraction)+1)

	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := 0
		if len(idx) > 1 && testFraction > 0 {
			nTest = int(math.Round(float64(len(idx)) * testFraction))
			if nTest >= len(idx) {
				nTest = len(idx) - 1
			}
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// Rows selects rows of x by index.
func Rows(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

// Labels selects labels by index.
func Labels(y []int64, idx []int) []int64 {
	out := make([]int64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
