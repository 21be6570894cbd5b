// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

import (
	"errors"
	"testing"
)

func testProducts() map[int64]ProductRecord {
	return map[int64]ProductRecord{
		1: {ID: 1, Name: "Auto Tous Risques", SubBranchID: 10, SubBranchName: "Auto", BranchID: 100, BranchName: "AUTOMOBILE"},
		2: {ID: 2, Name: "Incendie Habitation", SubBranchID: 20, SubBranchName: "Habitation", BranchID: 200, BranchName: "INCENDIE"},
		3: {ID: 3, Name: "RC Pro", SubBranchID: 30, SubBranchName: "RC", BranchID: 300, BranchName: "RESPONSABILITE CIVILE"},
		4: {ID: 4, Name: "Vie Epargne", SubBranchID: 40, SubBranchName: "Epargne", BranchID: 400, BranchName: "VIE"},
		5: {ID: 5, Name: "Multirisque Bureau", SubBranchID: 50, SubBranchName: "Bureau", BranchID: 500, BranchName: "MULTIRISQUE BUREAU"},
	}
}

func owned(ids ...int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func productIDs(recs []Recommendation) []int64 {
	ids := make([]int64, len(recs))
	for i, r := range recs {
		ids[i] = r.ProductID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRank_ExcludesOwnedAndZeroProbability(t *testing.T) {
	t.Parallel()

	recs, err := Rank(RankInput{
		Classes: []int64{1, 2, 3, 4, 5},
		Proba:   []float64{0.5, 0.3, 0.1, 0.05, 0.0},
		Owned:   owned(1, 2),
		N:       3,
	}, testProducts(), DefaultRuleTable(), nil)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if got, want := productIDs(recs), []int64{3, 4}; !equalIDs(got, want) {
		t.Errorf("Rank() = %v, want %v", got, want)
	}
	if recs[0].ProductName != "RC Pro" || recs[0].BranchName != "RESPONSABILITE CIVILE" {
		t.Errorf("first recommendation not resolved: %+v", recs[0])
	}
	if recs[0].SubBranchID != 30 || recs[0].BranchID != 300 {
		t.Errorf("hierarchy ids = (%d, %d), want (30, 300)", recs[0].SubBranchID, recs[0].BranchID)
	}
}

func TestRank_LimitAndOrdering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		proba []float64
		owned map[int64]struct{}
		n     int
		want  []int64
	}{
		{
			name:  "top three by probability",
			proba: []float64{0.1, 0.4, 0.2, 0.25, 0.05},
			n:     3,
			want:  []int64{2, 4, 3},
		},
		{
			name:  "ties broken by ascending product id",
			proba: []float64{0.2, 0.2, 0.2, 0.2, 0.2},
			n:     3,
			want:  []int64{1, 2, 3},
		},
		{
			name:  "fewer candidates than n",
			proba: []float64{0.6, 0.4, 0, 0, 0},
			n:     3,
			want:  []int64{1, 2},
		},
		{
			name:  "everything owned",
			proba: []float64{0.2, 0.2, 0.2, 0.2, 0.2},
			owned: owned(1, 2, 3, 4, 5),
			n:     3,
			want:  []int64{},
		},
		{
			name:  "custom n",
			proba: []float64{0.1, 0.4, 0.2, 0.25, 0.05},
			n:     5,
			want:  []int64{2, 4, 3, 1, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recs, err := Rank(RankInput{
				Classes: []int64{1, 2, 3, 4, 5},
				Proba:   tt.proba,
				Owned:   tt.owned,
				N:       tt.n,
			}, testProducts(), DefaultRuleTable(), nil)
			if err != nil {
				t.Fatalf("Rank() error = %v", err)
			}
			if got := productIDs(recs); !equalIDs(got, tt.want) {
				t.Errorf("Rank() = %v, want %v", got, tt.want)
			}
			for i := 1; i < len(recs); i++ {
				if recs[i].Probability > recs[i-1].Probability {
					t.Errorf("probabilities increase at %d: %v > %v", i, recs[i].Probability, recs[i-1].Probability)
				}
			}
			for _, r := range recs {
				if r.Probability == 0 {
					t.Errorf("zero-probability product %d returned", r.ProductID)
				}
			}
		})
	}
}

func TestRank_MissingProductIsIntegrityError(t *testing.T) {
	t.Parallel()

	_, err := Rank(RankInput{
		Classes: []int64{1, 99},
		Proba:   []float64{0.3, 0.7},
		N:       3,
	}, testProducts(), DefaultRuleTable(), nil)

	var integrity *DataIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("Rank() error = %v, want *DataIntegrityError", err)
	}
	if integrity.ID != 99 || integrity.Entity != "product" {
		t.Errorf("integrity error = %+v, want product 99", integrity)
	}
	if !errors.Is(err, ErrDataIntegrity) {
		t.Error("errors.Is(err, ErrDataIntegrity) = false, want true")
	}
}

func TestRank_MissingProductOutsideTopNIsIgnored(t *testing.T) {
	t.Parallel()

	recs, err := Rank(RankInput{
		Classes: []int64{1, 2, 99},
		Proba:   []float64{0.6, 0.35, 0.05},
		N:       2,
	}, testProducts(), DefaultRuleTable(), nil)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got, want := productIDs(recs), []int64{1, 2}; !equalIDs(got, want) {
		t.Errorf("Rank() = %v, want %v", got, want)
	}
}

func TestRank_MismatchedInput(t *testing.T) {
	t.Parallel()

	_, err := Rank(RankInput{Classes: []int64{1, 2}, Proba: []float64{1}, N: 3}, testProducts(), nil, nil)
	if err == nil {
		t.Fatal("Rank() error = nil, want error for mismatched lengths")
	}
}

func TestRank_Blending(t *testing.T) {
	t.Parallel()

	rules := NewRuleTable(map[string][]string{
		"INFORMATIQUE ET TELECOM": {"RESPONSABILITÉ CIVILE", "MULTIRISQUE BUREAU"},
	})
	base := RankInput{
		Classes:   []int64{1, 2, 3, 4, 5},
		Proba:     []float64{0.4, 0.3, 0.15, 0.1, 0.05},
		SubSector: "Informatique et Telecom",
		N:         3,
	}

	tests := []struct {
		name      string
		cfg       BlendConfig
		subSector string
		want      []int64
	}{
		{"none keeps probability order", BlendConfig{Policy: BlendNone}, base.SubSector, []int64{1, 2, 3}},
		{"boost lifts matching branches", BlendConfig{Policy: BlendBoost, Weight: 0.5}, base.SubSector, []int64{3, 5, 1}},
		{"filter keeps matching branches", BlendConfig{Policy: BlendFilter}, base.SubSector, []int64{3, 5}},
		{"filter ignores sub-sectors without rules", BlendConfig{Policy: BlendFilter}, "UNKNOWN", []int64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := base
			in.SubSector = tt.subSector
			recs, err := Rank(in, testProducts(), rules, NewBlender(tt.cfg, rules))
			if err != nil {
				t.Fatalf("Rank() error = %v", err)
			}
			if got := productIDs(recs); !equalIDs(got, tt.want) {
				t.Errorf("Rank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRank_ProbabilityOrderByPolicy(t *testing.T) {
	t.Parallel()

	// CONSTRUCTION lists RESPONSABILITÉ CIVILE (product 3) but not
	// AUTOMOBILE or INCENDIE.
	rules := DefaultRuleTable()
	in := RankInput{
		Classes:   []int64{1, 2, 3},
		Proba:     []float64{0.6, 0.3, 0.15},
		SubSector: "CONSTRUCTION",
		N:         3,
	}

	tests := []struct {
		name          string
		policy        BlendPolicy
		want          []int64
		nonIncreasing bool
	}{
		{"none", BlendNone, []int64{1, 2, 3}, true},
		{"filter", BlendFilter, []int64{3}, true},
		{"boost reorders by score", BlendBoost, []int64{3, 1, 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recs, err := Rank(in, testProducts(), rules, NewBlender(BlendConfig{Policy: tt.policy, Weight: 0.5}, rules))
			if err != nil {
				t.Fatalf("Rank() error = %v", err)
			}
			if got := productIDs(recs); !equalIDs(got, tt.want) {
				t.Fatalf("Rank() = %v, want %v", got, tt.want)
			}

			monotone := true
			for i := 1; i < len(recs); i++ {
				if recs[i].Probability > recs[i-1].Probability {
					monotone = false
				}
				if recs[i].Score > recs[i-1].Score {
					t.Errorf("score increases at %d: %v > %v", i, recs[i].Score, recs[i-1].Score)
				}
			}
			if monotone != tt.nonIncreasing {
				t.Errorf("probabilities non-increasing = %v, want %v", monotone, tt.nonIncreasing)
			}
		})
	}
}

func TestRank_RuleMatchIsAdvisoryUnderNone(t *testing.T) {
	t.Parallel()

	recs, err := Rank(RankInput{
		Classes:   []int64{1, 3},
		Proba:     []float64{0.7, 0.3},
		SubSector: "TRANSPORT TERRESTRE",
		N:         3,
	}, testProducts(), DefaultRuleTable(), NewBlender(BlendConfig{Policy: BlendNone}, nil))
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	// TRANSPORT TERRESTRE lists AUTOMOBILE and RESPONSABILITÉ CIVILE.
	for _, r := range recs {
		if !r.RuleMatch {
			t.Errorf("product %d RuleMatch = false, want true", r.ProductID)
		}
		if r.Score != r.Probability {
			t.Errorf("product %d score = %v, want probability %v", r.ProductID, r.Score, r.Probability)
		}
	}
}

func TestFilterBlender_KeepsUnindexedCandidates(t *testing.T) {
	t.Parallel()

	rules := NewRuleTable(map[string][]string{"IMMOBILIER": {"INCENDIE"}})
	got := NewBlender(BlendConfig{Policy: BlendFilter}, rules).Apply("IMMOBILIER", []Candidate{
		{ProductID: 1, Indexed: true, RuleMatch: false},
		{ProductID: 2, Indexed: true, RuleMatch: true},
		{ProductID: 3, Indexed: false},
	})
	if len(got) != 2 || got[0].ProductID != 2 || got[1].ProductID != 3 {
		t.Errorf("Apply() = %+v, want products 2 and 3", got)
	}
}

func TestNewBlender_Names(t *testing.T) {
	t.Parallel()

	tests := []struct {
		policy BlendPolicy
		want   string
	}{
		{BlendNone, "none"},
		{BlendBoost, "boost"},
		{BlendFilter, "filter"},
		{BlendPolicy("unknown"), "none"},
	}
	for _, tt := range tests {
		if got := NewBlender(BlendConfig{Policy: tt.policy}, nil).Name(); got != tt.want {
			t.Errorf("NewBlender(%q).Name() = %q, want %q", tt.policy, got, tt.want)
		}
	}
}
