// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

// Package postgres implements the customer data source on PostgreSQL.
//
// Store reads the same portfolio tables as the embedded DuckDB store through
// a pgxpool connection pool and materializes the training table with COPY.
// The schema is owned by golang-migrate; migrations are embedded and applied
// by Migrate at startup or by cmd/migrate.
//
// Driver errors are mapped before they leave the package: pgx.ErrNoRows
// becomes the recommend not-found sentinel for the lookup and an undefined
// table (SQLSTATE 42P01) becomes ErrSchemaMissing.
package postgres
