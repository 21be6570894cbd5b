// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/covera/internal/recommend"
	"github.com/tomtom215/covera/internal/recommend/forest"
)

func TestSeedDemo(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	stats, err := db.SeedDemo(ctx)
	if err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	if stats.Customers != demoCustomers {
		t.Errorf("Customers = %d, want %d", stats.Customers, demoCustomers)
	}
	if stats.Branches != len(demoBranches) || stats.Products == 0 || stats.Contracts == 0 {
		t.Errorf("stats = %+v", stats)
	}

	customers, err := db.GetCustomers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(customers) != stats.Customers {
		t.Errorf("GetCustomers() len = %d, want %d", len(customers), stats.Customers)
	}
	disabled := 0
	for i := range customers {
		if !customers[i].Enabled {
			disabled++
		}
	}
	if disabled != demoCustomers/15 {
		t.Errorf("disabled customers = %d, want %d", disabled, demoCustomers/15)
	}

	contracts, err := db.GetContracts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(contracts) != stats.Contracts {
		t.Errorf("GetContracts() len = %d, want %d", len(contracts), stats.Contracts)
	}
	products, err := db.GetProducts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != stats.Products {
		t.Errorf("GetProducts() len = %d, want %d", len(products), stats.Products)
	}

	// Second call is a no-op.
	again, err := db.SeedDemo(ctx)
	if err != nil {
		t.Fatalf("second SeedDemo() error = %v", err)
	}
	if again.Customers != 0 {
		t.Errorf("second SeedDemo() inserted %d customers, want 0", again.Customers)
	}
}

func TestSeedDemo_Deterministic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a, err := setupTestDB(t).SeedDemo(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := setupTestDB(t).SeedDemo(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if *a != *b {
		t.Errorf("SeedDemo() stats differ: %+v vs %+v", a, b)
	}
}

// TestEngine_TrainsOnDuckDB runs a full training cycle against the seeded
// store and checks the training table is materialized.
func TestEngine_TrainsOnDuckDB(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SeedDemo(ctx); err != nil {
		t.Fatal(err)
	}

	cfg := recommend.DefaultConfig()
	cfg.Forest = forest.DefaultConfig()
	cfg.Forest.NumTrees = 10
	cfg.Forest.NumWorkers = 2

	engine, err := recommend.NewEngine(cfg, db, nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Train(ctx)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if result.Accuracy < 0 || result.Accuracy > 1 {
		t.Errorf("Accuracy = %v, want within [0, 1]", result.Accuracy)
	}
	if result.LabeledRows == 0 || result.Classes == 0 {
		t.Errorf("result = %+v", result)
	}

	n, err := db.CountTrainingRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != result.DatasetRows {
		t.Errorf("training table rows = %d, want %d", n, result.DatasetRows)
	}

	customers, _ := db.GetCustomers(ctx)
	var enabledID int64
	for i := range customers {
		if customers[i].Enabled {
			enabledID = customers[i].ID
			break
		}
	}
	res, err := engine.Recommend(ctx, enabledID, 3)
	if err != nil {
		t.Fatalf("Recommend(%d) error = %v", enabledID, err)
	}
	if !res.Found {
		t.Errorf("Recommend(%d).Found = false, want true", enabledID)
	}
	if len(res.Items) > 3 {
		t.Errorf("len(Items) = %d, want <= 3", len(res.Items))
	}
}
