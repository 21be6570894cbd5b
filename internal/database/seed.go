// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"
)

// SeedStats reports what SeedDemo inserted.
type SeedStats struct {
	Branches  int `json:"branches"`
	Products  int `json:"products"`
	Customers int `json:"customers"`
	Contracts int `json:"contracts"`
	Claims    int `json:"claims"`
}

type demoBranch struct {
	id   int64
	name string
	subs []string
}

var demoBranches = []demoBranch{
	{1, "AUTOMOBILE", []string{"TOURISME", "FLOTTE"}},
	{2, "INCENDIE", []string{"INCENDIE SIMPLE"}},
	{3, "RESPONSABILITÉ CIVILE", []string{"RC GENERALE", "RC PROFESSIONNELLE"}},
	{4, "VIE", []string{"EPARGNE", "PREVOYANCE DECES"}},
	{5, "MALADIE", []string{"GROUPE MALADIE"}},
	{6, "MULTIRISQUE COMMERCANT", []string{"MULTIRISQUE COMMERCE"}},
	{7, "MULTIRISQUE INDUSTRIELLE", []string{"MULTIRISQUE USINE"}},
	{8, "ACCIDENTS DU TRAVAIL", []string{"AT COLLECTIF"}},
}

// demoSectors pairs a sector with sub-sectors and the branches their
// customers tend to buy.
var demoSectors = []struct {
	sector    string
	subSector string
	preferred []int64
}{
	{"COMMERCE", "COMMERCE DE DETAIL", []int64{6, 2}},
	{"TRANSPORT", "TRANSPORT TERRESTRE", []int64{1, 3}},
	{"INDUSTRIE", "INDUSTRIE", []int64{7, 2}},
	{"BTP", "CONSTRUCTION", []int64{3, 8}},
	{"SERVICES", "SANTÉ ET ACTION SOCIALE", []int64{5, 4}},
	{"SERVICES", "PROFESSIONS LIBERALES", []int64{3, 4}},
	{"PARTICULIERS", "EMPLOYÉS", []int64{8, 4}},
}

var demoCities = []struct{ city, governorate string }{
	{"Tunis", "Tunis"},
	{"Sfax", "Sfax"},
	{"Sousse", "Sousse"},
	{"Ariana", "Ariana"},
	{"Nabeul", "Nabeul"},
	{"Bizerte", "Bizerte"},
}

const demoCustomers = 120

// SeedDemo loads a small deterministic portfolio into an empty database. It
// is a no-op when customers already exist.
func (db *DB) SeedDemo(ctx context.Context) (*SeedStats, error) {
	var existing int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	if existing > 0 {
		db.logger.Info().Int64("customers", existing).Msg("Database already populated, skipping demo seed")
		return &SeedStats{}, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	stats, err := seedDemo(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	db.logger.Info().
		Int("customers", stats.Customers).
		Int("contracts", stats.Contracts).
		Int("products", stats.Products).
		Msg("Seeded demo portfolio")
	return stats, nil
}

func seedDemo(ctx context.Context, tx *sql.Tx) (*SeedStats, error) {
	//nolint:gosec // G404: math/rand is fine for demo data
	rng := rand.New(rand.NewSource(42))
	stats := &SeedStats{}

	productsByBranch := make(map[int64][]int64)
	var productID, subBranchID int64
	for _, b := range demoBranches {
		if _, err := tx.ExecContext(ctx, "INSERT INTO branches (id, branch_name) VALUES ($1, $2)", b.id, b.name); err != nil {
			return nil, fmt.Errorf("failed to insert branch %d: %w", b.id, err)
		}
		stats.Branches++
		for _, sub := range b.subs {
			subBranchID++
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO sub_branches (id, sub_branch_name, branch_id) VALUES ($1, $2, $3)",
				subBranchID, sub, b.id); err != nil {
				return nil, fmt.Errorf("failed to insert sub-branch %d: %w", subBranchID, err)
			}
			for _, tier := range []string{"ESSENTIEL", "CONFORT"} {
				productID++
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO products (id, product_name, sub_branch_id) VALUES ($1, $2, $3)",
					productID, sub+" "+tier, subBranchID); err != nil {
					return nil, fmt.Errorf("failed to insert product %d: %w", productID, err)
				}
				productsByBranch[b.id] = append(productsByBranch[b.id], productID)
				stats.Products++
			}
		}
	}

	statuses := []string{"ACTIVE", "ACTIVE", "ACTIVE", "TERMINATED", "EXPIRED"}
	payments := []string{"PAID", "PAID", "UNPAID"}
	families := []string{"CELIBATAIRE", "MARIE", "DIVORCE", "VEUF"}

	var contractID, claimID int64
	for cid := int64(1); cid <= demoCustomers; cid++ {
		sec := demoSectors[rng.Intn(len(demoSectors))]
		loc := demoCities[rng.Intn(len(demoCities))]

		entityType, gender, family := "PP", "M", families[rng.Intn(len(families))]
		if rng.Intn(4) == 0 {
			entityType, gender, family = "PM", "", ""
		} else if rng.Intn(2) == 0 {
			gender = "F"
		}
		var birth any
		if entityType == "PP" && rng.Intn(10) > 0 {
			birth = time.Date(1950+rng.Intn(55), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
		}
		enabled := cid%15 != 0

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO customers (id, entity_type, gender, family_status, birth_date, sector, sub_sector, city, governorate, is_enabled)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			cid, entityType, nullableString(gender), nullableString(family), birth,
			sec.sector, sec.subSector, loc.city, loc.governorate, enabled); err != nil {
			return nil, fmt.Errorf("failed to insert customer %d: %w", cid, err)
		}
		stats.Customers++

		for n := rng.Intn(4); n > 0; n-- {
			branch := sec.preferred[rng.Intn(len(sec.preferred))]
			if rng.Intn(10) < 3 {
				branch = demoBranches[rng.Intn(len(demoBranches))].id
			}
			candidates := productsByBranch[branch]
			pid := candidates[rng.Intn(len(candidates))]

			var premium any
			if rng.Intn(12) > 0 {
				premium = float64(100+rng.Intn(4900)) + float64(rng.Intn(100))/100
			}
			contractID++
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO contracts (id, customer_id, product_id, total_premium, contract_status, payment_status)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				contractID, cid, pid, premium,
				statuses[rng.Intn(len(statuses))], payments[rng.Intn(len(payments))]); err != nil {
				return nil, fmt.Errorf("failed to insert contract %d: %w", contractID, err)
			}
			stats.Contracts++

			for k := rng.Intn(3); k > 0; k-- {
				claimID++
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO claims (id, contract_id) VALUES ($1, $2)", claimID, contractID); err != nil {
					return nil, fmt.Errorf("failed to insert claim %d: %w", claimID, err)
				}
				stats.Claims++
			}
		}
	}
	return stats, nil
}
