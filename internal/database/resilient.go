// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package database

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/covera/internal/logging"
	"github.com/tomtom215/covera/internal/metrics"
	"github.com/tomtom215/covera/internal/recommend"
)

// Source is a customer data store: the training collections plus single
// record lookups. Both the DuckDB and PostgreSQL stores implement it.
type Source interface {
	recommend.DataProvider
	GetCustomer(ctx context.Context, id int64) (*recommend.CustomerRecord, error)
	GetContract(ctx context.Context, id int64) (*recommend.ContractRecord, error)
	Ping(ctx context.Context) error
}

// ResilientConfig configures the circuit breaker around a Source.
type ResilientConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// SourceLabel is the source label on data load metrics (duckdb, postgres).
	SourceLabel string

	// MaxRequests is the number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic reset period for counts while closed.
	Interval time.Duration

	// Timeout is the duration in open state before transitioning to half-open.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold uint32
}

// DefaultResilientConfig returns production defaults.
func DefaultResilientConfig(sourceLabel string) ResilientConfig {
	return ResilientConfig{
		Name:             "data-source",
		SourceLabel:      sourceLabel,
		MaxRequests:      1,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// ResilientProvider guards a Source with a circuit breaker. While the
// breaker is open, calls fail fast with gobreaker.ErrOpenState instead of
// waiting on a dead database. Not-found lookups and caller cancellation do
// not count as failures.
type ResilientProvider struct {
	source  Source
	cfg     ResilientConfig
	breaker *gobreaker.CircuitBreaker[any]
	logger  zerolog.Logger

	callsTotal    atomic.Int64
	failuresTotal atomic.Int64
	rejectedTotal atomic.Int64
}

var (
	_ Source                        = (*ResilientProvider)(nil)
	_ recommend.TrainingTableWriter = (*ResilientProvider)(nil)
)

// NewResilientProvider wraps source.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func NewResilientProvider(source Source, cfg ResilientConfig) *ResilientProvider {
	if cfg.Name == "" {
		cfg.Name = "data-source"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 1
	}

	p := &ResilientProvider{
		source: source,
		cfg:    cfg,
		logger: logging.WithComponent("resilient-provider").With().Str("breaker", cfg.Name).Logger(),
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String(), breakerStateValue(to))
			evt := p.logger.Info()
			if to == gobreaker.StateOpen {
				evt = p.logger.Warn()
			}
			evt.Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}
	p.breaker = gobreaker.NewCircuitBreaker[any](settings)
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(metrics.BreakerClosed)
	return p
}

// isSuccessful keeps lookups of missing records and caller cancellation
// from opening the circuit.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, recommend.ErrCustomerNotFound) ||
		errors.Is(err, recommend.ErrContractNotFound) ||
		errors.Is(err, context.Canceled)
}

// IsUnavailable reports whether err is a call rejected by an open or
// saturated breaker.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func breakerStateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}

// execute runs fn through the breaker and records load metrics.
func execute[T any](p *ResilientProvider, entity string, fn func() (T, error)) (T, error) {
	var zero T
	p.callsTotal.Add(1)
	start := time.Now()

	v, err := p.breaker.Execute(func() (any, error) {
		return fn()
	})
	metrics.RecordDataLoad(p.cfg.SourceLabel, entity, time.Since(start), failure(err))

	if err != nil {
		if IsUnavailable(err) {
			p.rejectedTotal.Add(1)
			return zero, fmt.Errorf("%s unavailable: %w", p.cfg.SourceLabel, err)
		}
		if !isSuccessful(err) {
			p.failuresTotal.Add(1)
			p.logger.Warn().Err(err).
				Str("entity", entity).
				Bool("connection_error", IsConnectionError(err)).
				Msg("Data source call failed")
		}
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

func failure(err error) error {
	if isSuccessful(err) {
		return nil
	}
	return err
}

// GetCustomers loads all customers.
func (p *ResilientProvider) GetCustomers(ctx context.Context) ([]recommend.CustomerRecord, error) {
	return execute(p, "customers", func() ([]recommend.CustomerRecord, error) {
		return p.source.GetCustomers(ctx)
	})
}

// GetContracts loads all contracts.
func (p *ResilientProvider) GetContracts(ctx context.Context) ([]recommend.ContractRecord, error) {
	return execute(p, "contracts", func() ([]recommend.ContractRecord, error) {
		return p.source.GetContracts(ctx)
	})
}

// GetClaims loads all claims.
func (p *ResilientProvider) GetClaims(ctx context.Context) ([]recommend.ClaimRecord, error) {
	return execute(p, "claims", func() ([]recommend.ClaimRecord, error) {
		return p.source.GetClaims(ctx)
	})
}

// GetProducts loads the product catalog.
func (p *ResilientProvider) GetProducts(ctx context.Context) ([]recommend.ProductRecord, error) {
	return execute(p, "products", func() ([]recommend.ProductRecord, error) {
		return p.source.GetProducts(ctx)
	})
}

// GetCustomer looks up one enabled customer.
func (p *ResilientProvider) GetCustomer(ctx context.Context, id int64) (*recommend.CustomerRecord, error) {
	return execute(p, "customer", func() (*recommend.CustomerRecord, error) {
		return p.source.GetCustomer(ctx, id)
	})
}

// GetContract looks up one enabled contract.
func (p *ResilientProvider) GetContract(ctx context.Context, id int64) (*recommend.ContractRecord, error) {
	return execute(p, "contract", func() (*recommend.ContractRecord, error) {
		return p.source.GetContract(ctx, id)
	})
}

// Ping checks the underlying source. It bypasses the breaker so readiness
// reflects the real database state.
func (p *ResilientProvider) Ping(ctx context.Context) error {
	return p.source.Ping(ctx)
}

// RebuildTrainingTable forwards to the source when it can materialize the
// training table and is a no-op otherwise.
func (p *ResilientProvider) RebuildTrainingTable(ctx context.Context, rows []recommend.TrainingRow) error {
	w, ok := p.source.(recommend.TrainingTableWriter)
	if !ok {
		p.logger.Debug().Msg("Source cannot materialize the training table, skipping")
		return nil
	}
	_, err := execute(p, "training_table", func() (struct{}, error) {
		return struct{}{}, w.RebuildTrainingTable(ctx, rows)
	})
	return err
}

// ResilientStats is a snapshot of breaker state and counters.
type ResilientStats struct {
	State    string `json:"state"`
	Calls    int64  `json:"calls"`
	Failures int64  `json:"failures"`
	Rejected int64  `json:"rejected"`
}

// Stats returns the current breaker state and counters.
func (p *ResilientProvider) Stats() ResilientStats {
	return ResilientStats{
		State:    p.breaker.State().String(),
		Calls:    p.callsTotal.Load(),
		Failures: p.failuresTotal.Load(),
		Rejected: p.rejectedTotal.Load(),
	}
}

// State returns the breaker state.
func (p *ResilientProvider) State() gobreaker.State {
	return p.breaker.State()
}
