// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package database

import (
	"context"
	"fmt"
	"time"
)

// TrainingTable is the materialized training dataset, dropped and rebuilt on
// every training run.
const TrainingTable = "ml_training_data"

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}

// Product references are not declared as foreign keys: contracts may point
// at products missing from the catalog, which the ranker reports as an
// integrity error instead of the loader rejecting it.
var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS branches (
		id BIGINT PRIMARY KEY,
		branch_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sub_branches (
		id BIGINT PRIMARY KEY,
		sub_branch_name TEXT NOT NULL,
		branch_id BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT PRIMARY KEY,
		product_name TEXT NOT NULL,
		sub_branch_id BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT PRIMARY KEY,
		entity_type TEXT,
		gender TEXT,
		family_status TEXT,
		birth_date DATE,
		sector TEXT,
		sub_sector TEXT,
		city TEXT,
		governorate TEXT,
		is_enabled BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id BIGINT PRIMARY KEY,
		customer_id BIGINT NOT NULL,
		product_id BIGINT,
		total_premium DOUBLE,
		contract_status TEXT,
		payment_status TEXT,
		is_enabled BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS claims (
		id BIGINT PRIMARY KEY,
		contract_id BIGINT NOT NULL
	)`,
}

var indexCreationQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_contracts_customer ON contracts(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_contract ON claims(contract_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_sub_branch ON products(sub_branch_id)`,
}

// trainingTableDDL is shared by the DuckDB and PostgreSQL stores.
const trainingTableDDL = `CREATE TABLE ` + TrainingTable + ` (
	customer_id BIGINT NOT NULL,
	entity_type TEXT,
	gender TEXT,
	family_status TEXT,
	birth_date DATE,
	sector TEXT,
	sub_sector TEXT,
	city TEXT,
	governorate TEXT,
	contract_id BIGINT,
	product_id BIGINT,
	total_premium DOUBLE PRECISION,
	contract_status TEXT,
	payment_status TEXT,
	claims_count INTEGER NOT NULL
)`

// TrainingTableDDL returns the CREATE TABLE statement for the training table.
func TrainingTableDDL() string {
	return trainingTableDDL
}

// TrainingTableColumns lists the training table columns in insert order.
var TrainingTableColumns = []string{
	"customer_id", "entity_type", "gender", "family_status", "birth_date",
	"sector", "sub_sector", "city", "governorate",
	"contract_id", "product_id", "total_premium", "contract_status", "payment_status",
	"claims_count",
}
