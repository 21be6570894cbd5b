// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/tomtom215/covera/internal/config"
	"github.com/tomtom215/covera/internal/database"
	"github.com/tomtom215/covera/internal/logging"
	"github.com/tomtom215/covera/internal/recommend"
)

const pgUndefinedTableCode = "42P01"

// ErrSchemaMissing is returned when a required table does not exist. Run
// the migrations (Migrate or cmd/migrate) to create it.
var ErrSchemaMissing = errors.New("database schema missing")

// contractColumns casts the NUMERIC premium for float scanning.
const contractColumns = "id, customer_id, product_id, total_premium::float8, contract_status, payment_status"

// Store reads the customer portfolio from PostgreSQL.
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	logger       zerolog.Logger
}

var (
	_ database.Source               = (*Store)(nil)
	_ recommend.TrainingTableWriter = (*Store)(nil)
)

// New connects to cfg.PostgresURL and verifies the connection.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{
		pool:         pool,
		queryTimeout: timeout,
		logger:       logging.WithComponent("postgres"),
	}, nil
}

// Pool returns the underlying pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes all pool connections.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetCustomers returns all customers ordered by id.
func (s *Store) GetCustomers(ctx context.Context) ([]recommend.CustomerRecord, error) {
	return collect(ctx, s.pool, "SELECT "+database.CustomerColumns+" FROM customers ORDER BY id", database.ScanCustomer)
}

// GetContracts returns all contracts ordered by id.
func (s *Store) GetContracts(ctx context.Context) ([]recommend.ContractRecord, error) {
	return collect(ctx, s.pool, "SELECT "+contractColumns+" FROM contracts ORDER BY id", database.ScanContract)
}

// GetClaims returns all claims ordered by id.
func (s *Store) GetClaims(ctx context.Context) ([]recommend.ClaimRecord, error) {
	return collect(ctx, s.pool, "SELECT "+database.ClaimColumns+" FROM claims ORDER BY id", database.ScanClaim)
}

// GetProducts returns the product catalog joined with sub-branches and
// branches.
func (s *Store) GetProducts(ctx context.Context) ([]recommend.ProductRecord, error) {
	return collect(ctx, s.pool, database.ProductQuery, database.ScanProduct)
}

// GetCustomer returns an enabled customer or recommend.ErrCustomerNotFound.
func (s *Store) GetCustomer(ctx context.Context, id int64) (*recommend.CustomerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		"SELECT "+database.CustomerColumns+" FROM customers WHERE is_enabled = TRUE AND id = $1", id)
	c, err := database.ScanCustomer(row)
	if err != nil {
		return nil, mapError(err, recommend.ErrCustomerNotFound)
	}
	return &c, nil
}

// GetContract returns an enabled contract or recommend.ErrContractNotFound.
func (s *Store) GetContract(ctx context.Context, id int64) (*recommend.ContractRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		"SELECT "+contractColumns+" FROM contracts WHERE is_enabled = TRUE AND id = $1", id)
	c, err := database.ScanContract(row)
	if err != nil {
		return nil, mapError(err, recommend.ErrContractNotFound)
	}
	return &c, nil
}

// RebuildTrainingTable drops and recreates the training table and loads rows
// with COPY, in one transaction.
func (s *Store) RebuildTrainingTable(ctx context.Context, rows []recommend.TrainingRow) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(context.Background())
	}()

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+database.TrainingTable); err != nil {
		return fmt.Errorf("failed to drop %s: %w", database.TrainingTable, err)
	}
	if _, err := tx.Exec(ctx, database.TrainingTableDDL()); err != nil {
		return fmt.Errorf("failed to create %s: %w", database.TrainingTable, err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{database.TrainingTable},
		database.TrainingTableColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return database.TrainingRowValues(rows[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy training rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit training table: %w", err)
	}
	s.logger.Debug().Int64("rows", n).Msg("Training table rebuilt")
	return nil
}

// PoolStats is a snapshot of pool usage.
type PoolStats struct {
	TotalConns      int32 `json:"total_conns"`
	AcquiredConns   int32 `json:"acquired_conns"`
	IdleConns       int32 `json:"idle_conns"`
	MaxConns        int32 `json:"max_conns"`
	AcquireCount    int64 `json:"acquire_count"`
	AcquireDuration int64 `json:"acquire_duration_ms"`
}

// Stats returns pool statistics.
func (s *Store) Stats() PoolStats {
	stat := s.pool.Stat()
	return PoolStats{
		TotalConns:      stat.TotalConns(),
		AcquiredConns:   stat.AcquiredConns(),
		IdleConns:       stat.IdleConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().Milliseconds(),
	}
}

func collect[T any](ctx context.Context, pool *pgxpool.Pool, query string, scan func(database.Scanner) (T, error)) ([]T, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, mapError(err, nil)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
	if err != nil {
		return nil, mapError(err, nil)
	}
	return out, nil
}

// mapError translates pgx errors to domain errors. A nil notFound leaves
// pgx.ErrNoRows unchanged.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTableCode {
		return fmt.Errorf("%w: %s", ErrSchemaMissing, pgErr.Message)
	}
	return err
}
