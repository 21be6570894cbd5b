// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package preprocess

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{
	CategoricalColumns: []string{"city", "gender"},
	NumericColumns:     []string{"age", "premium"},
}

func nan() float64 { return math.NaN() }

func fitRows() []Row {
	return []Row{
		{Categorical: []string{"Tunis", "M"}, Numeric: []float64{30, 100}},
		{Categorical: []string{"Sfax", "F"}, Numeric: []float64{40, nan()}},
		{Categorical: []string{"Tunis", ""}, Numeric: []float64{nan(), 300}},
		{Categorical: []string{"", "F"}, Numeric: []float64{50, 200}},
	}
}

func TestFit_LearnsImputation(t *testing.T) {
	t.Parallel()

	p, err := Fit(testConfig, fitRows())
	require.NoError(t, err)

	city, ok := p.ImputedCategorical("city")
	require.True(t, ok)
	assert.Equal(t, "Tunis", city)

	gender, _ := p.ImputedCategorical("gender")
	assert.Equal(t, "F", gender)

	age, ok := p.ImputedNumeric("age")
	require.True(t, ok)
	assert.Equal(t, 40.0, age)

	premium, _ := p.ImputedNumeric("premium")
	assert.Equal(t, 200.0, premium)

	_, ok = p.ImputedNumeric("missing")
	assert.False(t, ok)
}

func TestFit_MostFrequentTieIsSmallest(t *testing.T) {
	t.Parallel()

	p, err := Fit(Config{CategoricalColumns: []string{"c"}}, []Row{
		{Categorical: []string{"b"}, Numeric: []float64{}},
		{Categorical: []string{"a"}, Numeric: []float64{}},
		{Categorical: []string{""}, Numeric: []float64{}},
	})
	require.NoError(t, err)

	fill, _ := p.ImputedCategorical("c")
	assert.Equal(t, "a", fill)
}

func TestFit_Encoding(t *testing.T) {
	t.Parallel()

	p, err := Fit(testConfig, fitRows())
	require.NoError(t, err)

	assert.Equal(t, []string{"Sfax", "Tunis"}, p.Categories("city"))
	assert.Equal(t, []string{"F", "M"}, p.Categories("gender"))
	assert.Equal(t, 6, p.Width())
	assert.Equal(t,
		[]string{"city=Sfax", "city=Tunis", "gender=F", "gender=M", "age", "premium"},
		p.FeatureNames())
}

func TestTransform_Standardizes(t *testing.T) {
	t.Parallel()

	p, err := Fit(testConfig, fitRows())
	require.NoError(t, err)

	x, err := p.TransformAll(fitRows())
	require.NoError(t, err)
	require.Len(t, x, 4)

	// Numeric columns have zero mean and unit population variance after fit.
	for col := 4; col < 6; col++ {
		var mean, sq float64
		for _, row := range x {
			mean += row[col]
		}
		mean /= float64(len(x))
		for _, row := range x {
			sq += (row[col] - mean) * (row[col] - mean)
		}
		assert.InDelta(t, 0, mean, 1e-9, "column %d mean", col)
		assert.InDelta(t, 1, sq/float64(len(x)), 1e-9, "column %d variance", col)
	}

	// Missing city is imputed as Tunis.
	assert.Equal(t, []float64{0, 1}, x[3][0:2])
}

func TestTransform_UnseenCategoryIsZeroVector(t *testing.T) {
	t.Parallel()

	p, err := Fit(testConfig, fitRows())
	require.NoError(t, err)

	x, err := p.Transform(Row{Categorical: []string{"Bizerte", "M"}, Numeric: []float64{30, 100}})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0}, x[0:2], "unseen city")
	assert.Equal(t, []float64{0, 1}, x[2:4], "known gender")
}

func TestTransform_MissingNumericUsesMedian(t *testing.T) {
	t.Parallel()

	p, err := Fit(testConfig, fitRows())
	require.NoError(t, err)

	withMedian, err := p.Transform(Row{Categorical: []string{"Tunis", "M"}, Numeric: []float64{40, 200}})
	require.NoError(t, err)
	withMissing, err := p.Transform(Row{Categorical: []string{"Tunis", "M"}, Numeric: []float64{nan(), nan()}})
	require.NoError(t, err)

	assert.Equal(t, withMedian, withMissing)
	for _, v := range withMissing {
		assert.False(t, math.IsNaN(v))
	}
}

func TestTransform_Deterministic(t *testing.T) {
	t.Parallel()

	p, err := Fit(testConfig, fitRows())
	require.NoError(t, err)

	row := Row{Categorical: []string{"Sfax", ""}, Numeric: []float64{33, nan()}}
	a, err := p.Transform(row)
	require.NoError(t, err)
	b, err := p.Transform(row)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFit_ConstantColumnScale(t *testing.T) {
	t.Parallel()

	p, err := Fit(Config{NumericColumns: []string{"n"}}, []Row{
		{Categorical: []string{}, Numeric: []float64{5}},
		{Categorical: []string{}, Numeric: []float64{5}},
	})
	require.NoError(t, err)

	x, err := p.Transform(Row{Categorical: []string{}, Numeric: []float64{7}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, x)
}

func TestFit_AllMissingNumeric(t *testing.T) {
	t.Parallel()

	p, err := Fit(Config{NumericColumns: []string{"n"}}, []Row{
		{Categorical: []string{}, Numeric: []float64{nan()}},
	})
	require.NoError(t, err)

	fill, _ := p.ImputedNumeric("n")
	assert.Equal(t, 0.0, fill)
}

func TestFit_Errors(t *testing.T) {
	t.Parallel()

	_, err := Fit(testConfig, nil)
	require.ErrorIs(t, err, ErrNoRows)

	_, err = Fit(testConfig, []Row{{Categorical: []string{"only-one"}, Numeric: []float64{1, 2}}})
	require.Error(t, err)

	p, err := Fit(testConfig, fitRows())
	require.NoError(t, err)
	_, err = p.Transform(Row{Categorical: []string{"Tunis", "M"}, Numeric: []float64{1}})
	require.Error(t, err)
}

func TestMedian(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 0.0, median(nil))
}
