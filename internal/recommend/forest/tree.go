// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package forest

import (
	"math/rand"
	"sort"
)

const leaf = -1

// node is a decision tree node. Leaves have feature == leaf and carry the
// class distribution of their training samples.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	dist      []float64
}

// tree is a CART classification tree stored as a flat node slice.
type tree struct {
	nodes []node
}

// treeBuilder holds the shared, read-only training data for one tree.
type treeBuilder struct {
	cfg         *Config
	x           [][]float64
	y           []int // class indices
	numClasses  int
	maxFeatures int
	rng         *rand.Rand
	nodes       []node
}

func buildTree(cfg *Config, x [][]float64, y []int, numClasses int, samples []int, rng *rand.Rand) *tree {
	b := &treeBuilder{
		cfg:         cfg,
		x:           x,
		y:           y,
		numClasses:  numClasses,
		maxFeatures: cfg.featuresPerSplit(len(x[0])),
		rng:         rng,
		nodes:       make([]node, 0, 2*len(samples)/cfg.MinSamplesSplit+1),
	}
	b.grow(samples, 0)
	return &tree{nodes: b.nodes}
}

// grow appends the subtree for samples and returns its root index.
func (b *treeBuilder) grow(samples []int, depth int) int {
	counts := b.classCounts(samples)
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{feature: leaf})

	if b.isTerminal(samples, counts, depth) {
		b.nodes[id].dist = distribution(counts, len(samples))
		return id
	}

	feature, threshold, ok := b.bestSplit(samples, counts)
	if !ok {
		b.nodes[id].dist = distribution(counts, len(samples))
		return id
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = node{feature: feature, threshold: threshold, left: l, right: r}
	return id
}

func (b *treeBuilder) isTerminal(samples []int, counts []int, depth int) bool {
	if len(samples) < b.cfg.MinSamplesSplit || len(samples) < 2*b.cfg.MinSamplesLeaf {
		return true
	}
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return true
	}
	for _, c := range counts {
		if c == len(samples) {
			return true
		}
	}
	return false
}

// bestSplit searches a random feature subset for the threshold minimizing
// the weighted gini impurity of the children.
func (b *treeBuilder) bestSplit(samples []int, counts []int) (int, float64, bool) {
	width := len(b.x[0])
	candidates := b.rng.Perm(width)[:b.maxFeatures]

	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := 0.0
	n := len(samples)

	order := make([]int, n)
	leftCounts := make([]int, b.numClasses)
	rightCounts := make([]int, b.numClasses)

	for _, f := range candidates {
		copy(order, samples)
		sort.SliceStable(order, func(i, j int) bool {
			return b.x[order[i]][f] < b.x[order[j]][f]
		})
		if b.x[order[0]][f] == b.x[order[n-1]][f] {
			continue
		}

		for k := range leftCounts {
			leftCounts[k] = 0
		}
		copy(rightCounts, counts)

		for i := 0; i < n-1; i++ {
			c := b.y[order[i]]
			leftCounts[c]++
			rightCounts[c]--

			nl, nr := i+1, n-i-1
			cur, next := b.x[order[i]][f], b.x[order[i+1]][f]
			if cur == next || nl < b.cfg.MinSamplesLeaf || nr < b.cfg.MinSamplesLeaf {
				continue
			}

			impurity := (float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)) / float64(n)
			if bestFeature < 0 || impurity < bestImpurity {
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				bestImpurity = impurity
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) classCounts(samples []int) []int {
	counts := make([]int, b.numClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}
	return counts
}

// predict returns the leaf distribution reached by x.
func (t *tree) predict(x []float64) []float64 {
	i := 0
	for t.nodes[i].feature != leaf {
		n := &t.nodes[i]
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
	return t.nodes[i].dist
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func distribution(counts []int, n int) []float64 {
	dist := make([]float64, len(counts))
	if n == 0 {
		return dist
	}
	for i, c := range counts {
		dist[i] = float64(c) / float64(n)
	}
	return dist
}
