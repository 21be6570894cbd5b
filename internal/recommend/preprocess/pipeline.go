// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package preprocess

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoRows is returned when fitting on an empty sample.
var ErrNoRows = errors.New("preprocess: no rows to fit")

// Row is one raw sample. An empty categorical string and a NaN numeric value
// are missing.
type Row struct {
	Categorical []string
	Numeric     []float64
}

// Config names the columns of each group, in Row order.
type Config struct {
	CategoricalColumns []string
	NumericColumns     []string
}

// Pipeline is a fitted preprocessing transform. It cannot be refitted: a new
// Pipeline is built by Fit for every training run, so concurrent Transform
// calls always see the same state.
type Pipeline struct {
	catColumns []string
	numColumns []string

	// Categorical state, per column.
	catFill    []string
	categories [][]string
	catIndex   []map[string]int
	offsets    []int

	// Numeric state, per column.
	numFill []float64
	mean    []float64
	scale   []float64

	width int
}

// Fit learns imputation, encoding and scaling state from rows.
//
// Categorical columns are imputed with the most frequent value (the
// lexicographically smallest on ties) and one-hot encoded over the sorted
// categories observed after imputation. Numeric columns are imputed with
// the median and standardized with the mean and population standard
// deviation of the imputed values; a zero deviation scales by one.
func Fit(cfg Config, rows []Row) (*Pipeline, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	p := &Pipeline{
		catColumns: append([]string(nil), cfg.CategoricalColumns...),
		numColumns: append([]string(nil), cfg.NumericColumns...),
	}
	nc, nn := len(p.catColumns), len(p.numColumns)

	for i := range rows {
		if err := p.checkShape(&rows[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	p.catFill = make([]string, nc)
	p.categories = make([][]string, nc)
	p.catIndex = make([]map[string]int, nc)
	p.offsets = make([]int, nc)

	offset := 0
	for c := 0; c < nc; c++ {
		counts := make(map[string]int)
		for i := range rows {
			if v := rows[i].Categorical[c]; v != "" {
				counts[v]++
			}
		}
		p.catFill[c] = mostFrequent(counts)

		seen := make(map[string]struct{}, len(counts)+1)
		for i := range rows {
			v := rows[i].Categorical[c]
			if v == "" {
				v = p.catFill[c]
			}
			seen[v] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)

		idx := make(map[string]int, len(cats))
		for j, v := range cats {
			idx[v] = j
		}
		p.categories[c] = cats
		p.catIndex[c] = idx
		p.offsets[c] = offset
		offset += len(cats)
	}

	p.numFill = make([]float64, nn)
	p.mean = make([]float64, nn)
	p.scale = make([]float64, nn)

	for c := 0; c < nn; c++ {
		observed := make([]float64, 0, len(rows))
		for i := range rows {
			if v := rows[i].Numeric[c]; !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		p.numFill[c] = median(observed)

		var sum float64
		for i := range rows {
			sum += p.impute(c, rows[i].Numeric[c])
		}
		mean := sum / float64(len(rows))

		var sq float64
		for i := range rows {
			d := p.impute(c, rows[i].Numeric[c]) - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(len(rows)))
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		p.mean[c] = mean
		p.scale[c] = std
	}

	p.width = offset + nn
	return p, nil
}

// Transform encodes a single row. Categories not seen during Fit encode as
// an all-zero block.
func (p *Pipeline) Transform(row Row) ([]float64, error) {
	if err := p.checkShape(&row); err != nil {
		return nil, err
	}
	out := make([]float64, p.width)

	for c, v := range row.Categorical {
		if v == "" {
			v = p.catFill[c]
		}
		if j, ok := p.catIndex[c][v]; ok {
			out[p.offsets[c]+j] = 1
		}
	}

	base := p.width - len(p.numColumns)
	for c, v := range row.Numeric {
		out[base+c] = (p.impute(c, v) - p.mean[c]) / p.scale[c]
	}
	return out, nil
}

// TransformAll encodes rows into a design matrix.
func (p *Pipeline) TransformAll(rows []Row) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i := range rows {
		x, err := p.Transform(rows[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = x
	}
	return out, nil
}

// Width returns the number of encoded columns.
func (p *Pipeline) Width() int {
	return p.width
}

// FeatureNames returns the encoded column names, "column=value" for one-hot
// columns followed by the numeric column names.
func (p *Pipeline) FeatureNames() []string {
	names := make([]string, 0, p.width)
	for c, col := range p.catColumns {
		for _, v := range p.categories[c] {
			names = append(names, col+"="+v)
		}
	}
	return append(names, p.numColumns...)
}

// Categories returns the categories learned for a categorical column.
func (p *Pipeline) Categories(column string) []string {
	for c, col := range p.catColumns {
		if col == column {
			return append([]string(nil), p.categories[c]...)
		}
	}
	return nil
}

// ImputedCategorical returns the fill value of a categorical column.
func (p *Pipeline) ImputedCategorical(column string) (string, bool) {
	for c, col := range p.catColumns {
		if col == column {
			return p.catFill[c], true
		}
	}
	return "", false
}

// ImputedNumeric returns the fill value of a numeric column.
func (p *Pipeline) ImputedNumeric(column string) (float64, bool) {
	for c, col := range p.numColumns {
		if col == column {
			return p.numFill[c], true
		}
	}
	return 0, false
}

func (p *Pipeline) impute(c int, v float64) float64 {
	if math.IsNaN(v) {
		return p.numFill[c]
	}
	return v
}

func (p *Pipeline) checkShape(row *Row) error {
	if len(row.Categorical) != len(p.catColumns) {
		return fmt.Errorf("preprocess: got %d categorical values, want %d", len(row.Categorical), len(p.catColumns))
	}
	if len(row.Numeric) != len(p.numColumns) {
		return fmt.Errorf("preprocess: got %d numeric values, want %d", len(row.Numeric), len(p.numColumns))
	}
	return nil
}

// mostFrequent returns the most common key, the smallest key on ties, or ""
// when counts is empty.
func mostFrequent(counts map[string]int) string {
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

// median returns the median of values, or 0 when empty. values is reordered.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sort.Float64s(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
