// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

import (
	"time"
)

// CategoricalColumns lists the categorical feature columns in encoding order.
var CategoricalColumns = []string{
	"entity_type",
	"gender",
	"family_status",
	"sector",
	"sub_sector",
	"city",
	"governorate",
}

// NumericColumns lists the numeric feature columns in encoding order.
var NumericColumns = []string{
	"age",
	"total_premium",
	"claims_count",
}

// FeatureVector holds the model inputs derived from one TrainingRow.
// Empty categorical values and NaN numeric values are missing and are
// imputed by the preprocessing pipeline.
type FeatureVector struct {
	CustomerID int64
	ContractID int64
	ProductID  int64

	EntityType   string
	Gender       string
	FamilyStatus string
	Sector       string
	SubSector    string
	City         string
	Governorate  string

	Age          float64
	TotalPremium float64
	ClaimsCount  float64
}

// Categorical returns the categorical values in CategoricalColumns order.
func (f *FeatureVector) Categorical() []string {
	return []string{
		f.EntityType,
		f.Gender,
		f.FamilyStatus,
		f.Sector,
		f.SubSector,
		f.City,
		f.Governorate,
	}
}

// Numeric returns the numeric values in NumericColumns order.
func (f *FeatureVector) Numeric() []float64 {
	return []float64{f.Age, f.TotalPremium, f.ClaimsCount}
}

// AgeAt returns now's year minus the birth year. Month and day are ignored,
// so the result can be one year above the exact age. A zero birth date
// yields a missing value.
func AgeAt(birth, now time.Time) float64 {
	if birth.IsZero() {
		return Missing()
	}
	return float64(now.Year() - birth.Year())
}

// ExtractFeatures derives the feature vector of a row. Age is always
// computed from the birth date; every other field passes through.
//
//nolint:gocritic // hugeParam: row passed by value for immutability
func ExtractFeatures(row TrainingRow, now time.Time) FeatureVector {
	return FeatureVector{
		CustomerID:   row.CustomerID,
		ContractID:   row.ContractID,
		ProductID:    row.ProductID,
		EntityType:   string(row.EntityType),
		Gender:       row.Gender,
		FamilyStatus: row.FamilyStatus,
		Sector:       row.Sector,
		SubSector:    row.SubSector,
		City:         row.City,
		Governorate:  row.Governorate,
		Age:          AgeAt(row.BirthDate, now),
		TotalPremium: row.TotalPremium,
		ClaimsCount:  float64(row.ClaimsCount),
	}
}

// LabeledFeatures drops rows without a product and returns the remaining
// feature vectors with their targets, in input order.
func LabeledFeatures(rows []TrainingRow, now time.Time) ([]FeatureVector, []int64) {
	features := make([]FeatureVector, 0, len(rows))
	labels := make([]int64, 0, len(rows))
	for i := range rows {
		if !rows[i].HasProduct() {
			continue
		}
		features = append(features, ExtractFeatures(rows[i], now))
		labels = append(labels, rows[i].ProductID)
	}
	return features, labels
}
