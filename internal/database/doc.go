// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

/*
Package database provides the embedded DuckDB customer store and the
circuit-breaker wrapper shared by all data sources.

# Schema

	branches      (id, branch_name)
	sub_branches  (id, sub_branch_name, branch_id)
	products      (id, product_name, sub_branch_id)
	customers     (id, entity_type, gender, family_status, birth_date, sector,
	               sub_sector, city, governorate, is_enabled)
	contracts     (id, customer_id, product_id, total_premium, contract_status,
	               payment_status, is_enabled)
	claims        (id, contract_id)
	ml_training_data  rebuilt by every training run

Entity types may be stored as PP/PM or PERSON/ORGANIZATION; both map to
recommend.EntityType on read.

# Data Provider

*DB implements recommend.DataProvider and recommend.TrainingTableWriter. The
training table is rebuilt inside one transaction with the DuckDB appender.

# Resilience

ResilientProvider wraps any Source (this package's *DB or the PostgreSQL
store) with a sony/gobreaker circuit breaker. Breaker transitions and load
latencies are exported through internal/metrics.

# Demo Data

SeedDemo inserts a deterministic portfolio (seeded math/rand) into an empty
database for local runs and tests.
*/
package database
