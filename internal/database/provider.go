// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/covera/internal/recommend"
)

var (
	_ recommend.DataProvider        = (*DB)(nil)
	_ recommend.TrainingTableWriter = (*DB)(nil)
)

// GetCustomers returns all customers, enabled or not, ordered by id.
func (db *DB) GetCustomers(ctx context.Context) ([]recommend.CustomerRecord, error) {
	return queryAll(ctx, db.conn, "SELECT "+CustomerColumns+" FROM customers ORDER BY id", ScanCustomer)
}

// GetContracts returns all contracts ordered by id.
func (db *DB) GetContracts(ctx context.Context) ([]recommend.ContractRecord, error) {
	return queryAll(ctx, db.conn, "SELECT "+ContractColumns+" FROM contracts ORDER BY id", ScanContract)
}

// GetClaims returns all claims ordered by id.
func (db *DB) GetClaims(ctx context.Context) ([]recommend.ClaimRecord, error) {
	return queryAll(ctx, db.conn, "SELECT "+ClaimColumns+" FROM claims ORDER BY id", ScanClaim)
}

// GetProducts returns the product catalog joined with sub-branches and
// branches.
func (db *DB) GetProducts(ctx context.Context) ([]recommend.ProductRecord, error) {
	return queryAll(ctx, db.conn, ProductQuery, ScanProduct)
}

// GetCustomer returns an enabled customer. Disabled and unknown customers
// both yield recommend.ErrCustomerNotFound.
func (db *DB) GetCustomer(ctx context.Context, id int64) (*recommend.CustomerRecord, error) {
	ctx, cancel := ensureContext(ctx, db.queryTimeout)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT "+CustomerColumns+" FROM customers WHERE is_enabled = TRUE AND id = $1", id)
	c, err := ScanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recommend.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %d: %w", id, err)
	}
	return &c, nil
}

// GetContract returns an enabled contract or recommend.ErrContractNotFound.
func (db *DB) GetContract(ctx context.Context, id int64) (*recommend.ContractRecord, error) {
	ctx, cancel := ensureContext(ctx, db.queryTimeout)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT "+ContractColumns+" FROM contracts WHERE is_enabled = TRUE AND id = $1", id)
	c, err := ScanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recommend.ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract %d: %w", id, err)
	}
	return &c, nil
}

// RebuildTrainingTable drops and recreates the training table and bulk loads
// rows through the DuckDB appender, all in one transaction.
func (db *DB) RebuildTrainingTable(ctx context.Context, rows []recommend.TrainingRow) (err error) {
	conn, err := db.conn.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer closeWithLog(conn, "connection")

	if _, err = conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if _, rbErr := conn.ExecContext(context.Background(), "ROLLBACK"); rbErr != nil {
				db.logger.Warn().Err(rbErr).Msg("Failed to roll back training table rebuild")
			}
		}
	}()

	if _, err = conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+TrainingTable); err != nil {
		return fmt.Errorf("failed to drop %s: %w", TrainingTable, err)
	}
	if _, err = conn.ExecContext(ctx, trainingTableDDL); err != nil {
		return fmt.Errorf("failed to create %s: %w", TrainingTable, err)
	}

	err = conn.Raw(func(driverConn any) error {
		dc, ok := driverConn.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection type %T", driverConn)
		}
		appender, aerr := duckdb.NewAppenderFromConn(dc, "", TrainingTable)
		if aerr != nil {
			return fmt.Errorf("failed to create appender: %w", aerr)
		}
		for i := range rows {
			if aerr = appender.AppendRow(driverValues(TrainingRowValues(rows[i]))...); aerr != nil {
				closeQuietly(appender)
				return fmt.Errorf("failed to append row %d: %w", i, aerr)
			}
		}
		return appender.Close()
	})
	if err != nil {
		return err
	}

	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit training table: %w", err)
	}
	db.logger.Debug().Int("rows", len(rows)).Msg("Training table rebuilt")
	return nil
}

// CountTrainingRows returns the number of rows in the training table, or 0
// when it has not been built yet.
func (db *DB) CountTrainingRows(ctx context.Context) (int64, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) > 0 FROM information_schema.tables WHERE table_name = $1", TrainingTable).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check %s: %w", TrainingTable, err)
	}
	if !exists {
		return 0, nil
	}
	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+TrainingTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", TrainingTable, err)
	}
	return n, nil
}

func driverValues(values []any) []driver.Value {
	out := make([]driver.Value, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// queryAll runs query and scans every row with scan.
func queryAll[T any](ctx context.Context, conn *sql.DB, query string, scan func(Scanner) (T, error)) ([]T, error) {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}
