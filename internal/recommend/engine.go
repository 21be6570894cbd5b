// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/covera/internal/cache"
	"github.com/tomtom215/covera/internal/recommend/forest"
	"github.com/tomtom215/covera/internal/recommend/preprocess"
)

// Engine trains recommendation models and serves recommendations from the
// most recently published one. It is safe for concurrent use.
type Engine struct {
	// Configuration
	config *Config
	logger zerolog.Logger
	rules  *RuleTable
	now    func() time.Time

	// Training state. trainMu serializes training runs; statusMu guards
	// trainStatus so it can be read while a run is in progress.
	trainMu      sync.Mutex
	statusMu     sync.RWMutex
	trainStatus  TrainingStatus
	modelVersion atomic.Int32

	// model is replaced wholesale by each successful training run.
	model atomic.Pointer[Model]

	// Metrics
	requestCount   atomic.Int64
	notFoundCount  atomic.Int64
	integrityCount atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	trainingRuns   atomic.Int64
	trainingFails  atomic.Int64

	// Served results keyed by model version; nil when caching is disabled.
	cache *cache.LRU[cacheKey, *Result]

	dataProvider DataProvider
}

type cacheKey struct {
	version    int
	customerID int64
	n          int
}

// NewEngine creates a new recommendation engine. A nil rules table uses
// DefaultRuleTable.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, dp DataProvider, rules *RuleTable, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if rules == nil {
		rules = DefaultRuleTable()
	}

	e := &Engine{
		config:       cfg.Clone(),
		logger:       logger.With().Str("component", "recommend").Logger(),
		rules:        rules,
		now:          time.Now,
		dataProvider: dp,
	}
	if cfg.Cache.Enabled {
		e.cache = cache.NewLRU[cacheKey, *Result](cfg.Cache.MaxEntries, cfg.Cache.TTL,
			cache.WithClock(func() time.Time { return e.now() }))
	}
	return e, nil
}

// SetDataProvider sets the data provider for training.
func (e *Engine) SetDataProvider(dp DataProvider) {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()
	e.dataProvider = dp
}

// Model returns the published model, or nil before the first successful
// training run.
func (e *Engine) Model() *Model {
	return e.model.Load()
}

// Recommend returns at most n recommendations for a customer from the
// published model; n <= 0 uses the configured default and larger values are
// capped. It returns ErrNotTrained before the first successful training run.
// Unknown customers produce a Result with Found false.
func (e *Engine) Recommend(ctx context.Context, customerID int64, n int) (*Result, error) {
	e.requestCount.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := e.model.Load()
	if m == nil {
		return nil, ErrNotTrained
	}

	n = e.clampN(n)
	logger := e.logger.With().
		Int64("customer_id", customerID).
		Int("n", n).
		Int("model_version", m.Version()).
		Logger()

	key := cacheKey{version: m.Version(), customerID: customerID, n: n}
	if res := e.checkCache(key); res != nil {
		e.cacheHits.Add(1)
		logger.Debug().Msg("cache hit")
		return res, nil
	}
	if e.config.Cache.Enabled {
		e.cacheMisses.Add(1)
	}

	res, err := m.Recommend(customerID, n)
	if err != nil {
		var integrity *DataIntegrityError
		if errors.As(err, &integrity) {
			e.integrityCount.Add(1)
			logger.Error().
				Str("entity", integrity.Entity).
				Int64("id", integrity.ID).
				Msg("recommendation references missing data")
		}
		return nil, err
	}

	if !res.Found {
		e.notFoundCount.Add(1)
		logger.Debug().Msg("customer not in trained population")
	} else {
		logger.Debug().Int("returned", len(res.Items)).Msg("recommendation complete")
	}

	e.storeCache(key, res)
	return res, nil
}

func (e *Engine) clampN(n int) int {
	if n <= 0 {
		return e.config.Limits.DefaultN
	}
	if n > e.config.Limits.MaxN {
		return e.config.Limits.MaxN
	}
	return n
}

// Train loads the source data, fits a new model and publishes it. It returns
// ErrTrainingInProgress if another run is active. A failed run leaves the
// previously published model in place.
func (e *Engine) Train(ctx context.Context) (*TrainingResult, error) {
	if !e.trainMu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	if e.dataProvider == nil {
		return nil, fmt.Errorf("data provider not set")
	}

	start := e.now()
	runID := uuid.New().String()
	logger := e.logger.With().Str("run_id", runID).Logger()

	e.trainingRuns.Add(1)
	e.setTraining(true)
	logger.Info().Msg("starting model training")

	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	result, err := e.train(trainCtx, runID, start, logger)
	e.finishTraining(start, result, err)
	if err != nil {
		e.trainingFails.Add(1)
		logger.Error().Err(err).Msg("model training failed")
		return nil, err
	}

	logger.Info().
		Int("version", result.ModelVersion).
		Float64("accuracy", result.Accuracy).
		Bool("evaluated", result.Evaluated).
		Int("labeled_rows", result.LabeledRows).
		Int("classes", result.Classes).
		Int64("duration_ms", result.DurationMS).
		Msg("model training complete")

	return result, nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) train(ctx context.Context, runID string, start time.Time, logger zerolog.Logger) (*TrainingResult, error) {
	data, err := e.loadTrainingData(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int("customers", len(data.customers)).
		Int("contracts", len(data.contracts)).
		Int("claims", len(data.claims)).
		Int("products", len(data.products)).
		Msg("loaded training data")

	rows := BuildTrainingRows(data.customers, data.contracts, data.claims)
	e.materialize(ctx, rows, logger)

	features, labels := LabeledFeatures(rows, start)
	if len(features) == 0 || len(features) < e.config.Training.MinLabeledRows {
		return nil, fmt.Errorf("%w: %d labeled of %d rows (minimum %d)",
			ErrEmptyDataset, len(features), len(rows), e.config.Training.MinLabeledRows)
	}
	e.warnUnknownProducts(labels, data.products, logger)

	trainIdx, testIdx := forest.StratifiedSplit(labels, e.config.Evaluation.TestFraction, e.config.Evaluation.Seed)

	pipeline, err := preprocess.Fit(preprocess.Config{
		CategoricalColumns: CategoricalColumns,
		NumericColumns:     NumericColumns,
	}, pipelineRows(features, trainIdx))
	if err != nil {
		return nil, fmt.Errorf("fit preprocessing: %w", err)
	}

	xTrain, err := pipeline.TransformAll(pipelineRows(features, trainIdx))
	if err != nil {
		return nil, fmt.Errorf("transform training rows: %w", err)
	}
	clf, err := forest.Fit(ctx, e.config.Forest, xTrain, forest.Labels(labels, trainIdx))
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	result := &TrainingResult{
		RunID:       runID,
		DatasetRows: len(rows),
		LabeledRows: len(features),
		TrainRows:   len(trainIdx),
		TestRows:    len(testIdx),
		Classes:     len(clf.Classes()),
		Features:    pipeline.Width(),
		Products:    len(data.products),
	}

	if len(testIdx) > 0 {
		xTest, err := pipeline.TransformAll(pipelineRows(features, testIdx))
		if err != nil {
			return nil, fmt.Errorf("transform test rows: %w", err)
		}
		acc, err := clf.Score(xTest, forest.Labels(labels, testIdx))
		if err != nil {
			return nil, fmt.Errorf("evaluate classifier: %w", err)
		}
		result.Accuracy = acc
		result.Evaluated = true
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("training aborted: %w", err)
	}

	version := int(e.modelVersion.Load()) + 1
	model, err := newModel(&modelParts{
		version:   version,
		trainedAt: start,
		accuracy:  result.Accuracy,
		pipeline:  pipeline,
		forest:    clf,
		rows:      rows,
		products:  data.products,
		rules:     e.rules,
		blender:   NewBlender(e.config.Blend, e.rules),
		strategy:  e.config.Profile,
		defaultN:  e.config.Limits.DefaultN,
	})
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	e.modelVersion.Store(int32(version)) //nolint:gosec // version count never approaches int32 overflow
	e.model.Store(model)
	e.clearCache()

	result.ModelVersion = version
	result.Customers = model.Customers()
	result.TrainedAt = start
	result.DurationMS = e.now().Sub(start).Milliseconds()
	return result, nil
}

// trainingData holds the collections loaded for one run.
type trainingData struct {
	customers []CustomerRecord
	contracts []ContractRecord
	claims    []ClaimRecord
	products  []ProductRecord
}

// loadTrainingData loads all source collections under the load timeout.
func (e *Engine) loadTrainingData(ctx context.Context) (*trainingData, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Training.LoadTimeout)
	defer cancel()

	var (
		data trainingData
		err  error
	)
	if data.customers, err = e.dataProvider.GetCustomers(ctx); err != nil {
		return nil, fmt.Errorf("get customers: %w", err)
	}
	if data.contracts, err = e.dataProvider.GetContracts(ctx); err != nil {
		return nil, fmt.Errorf("get contracts: %w", err)
	}
	if data.claims, err = e.dataProvider.GetClaims(ctx); err != nil {
		return nil, fmt.Errorf("get claims: %w", err)
	}
	if data.products, err = e.dataProvider.GetProducts(ctx); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return &data, nil
}

// materialize rebuilds the training table when the provider supports it.
// Failures are logged; the model does not depend on the table.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) materialize(ctx context.Context, rows []TrainingRow, logger zerolog.Logger) {
	if !e.config.Training.MaterializeTable {
		return
	}
	w, ok := e.dataProvider.(TrainingTableWriter)
	if !ok {
		return
	}
	if err := w.RebuildTrainingTable(ctx, rows); err != nil {
		logger.Warn().Err(err).Msg("failed to rebuild training table")
		return
	}
	logger.Debug().Int("rows", len(rows)).Msg("training table rebuilt")
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) warnUnknownProducts(labels []int64, products []ProductRecord, logger zerolog.Logger) {
	known := make(map[int64]struct{}, len(products))
	for i := range products {
		known[products[i].ID] = struct{}{}
	}
	missing := make(map[int64]struct{})
	for _, id := range labels {
		if _, ok := known[id]; !ok {
			missing[id] = struct{}{}
		}
	}
	if len(missing) > 0 {
		logger.Warn().Int("products", len(missing)).Msg("contracts reference products missing from the product index")
	}
}

func pipelineRows(features []FeatureVector, idx []int) []preprocess.Row {
	rows := make([]preprocess.Row, len(idx))
	for i, j := range idx {
		rows[i] = toPipelineRow(&features[j])
	}
	return rows
}

func (e *Engine) setTraining(on bool) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.trainStatus.IsTraining = on
	if on {
		e.trainStatus.LastError = ""
	}
}

func (e *Engine) finishTraining(start time.Time, result *TrainingResult, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.trainStatus.IsTraining = false
	e.trainStatus.LastTrainingDurationMS = e.now().Sub(start).Milliseconds()
	if err != nil {
		e.trainStatus.LastError = err.Error()
		return
	}
	e.trainStatus.Trained = true
	e.trainStatus.LastTrainedAt = result.TrainedAt
	e.trainStatus.ModelVersion = result.ModelVersion
	e.trainStatus.Accuracy = result.Accuracy
	e.trainStatus.LabeledRows = result.LabeledRows
	e.trainStatus.Customers = result.Customers
}

// GetStatus returns the current training status.
func (e *Engine) GetStatus() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.trainStatus
}

// GetMetrics returns the current engine counters.
func (e *Engine) GetMetrics() Metrics {
	return Metrics{
		RequestCount:   e.requestCount.Load(),
		NotFoundCount:  e.notFoundCount.Load(),
		IntegrityCount: e.integrityCount.Load(),
		CacheHits:      e.cacheHits.Load(),
		CacheMisses:    e.cacheMisses.Load(),
		TrainingRuns:   e.trainingRuns.Load(),
		TrainingFails:  e.trainingFails.Load(),
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// Rules returns the rule table used for blending.
func (e *Engine) Rules() *RuleTable {
	return e.rules
}

// checkCache returns a copy of a live cached result, or nil.
func (e *Engine) checkCache(key cacheKey) *Result {
	if e.cache == nil {
		return nil
	}
	cached, ok := e.cache.Get(key)
	if !ok {
		return nil
	}
	res := *cached
	res.Items = cloneItems(cached.Items)
	res.CacheHit = true
	return &res
}

// storeCache stores a copy of the result.
func (e *Engine) storeCache(key cacheKey, res *Result) {
	if e.cache == nil {
		return
	}
	stored := *res
	stored.Items = cloneItems(res.Items)
	e.cache.Add(key, &stored)
}

// cloneItems copies items into a slice that is never nil.
func cloneItems(items []Recommendation) []Recommendation {
	out := make([]Recommendation, len(items))
	copy(out, items)
	return out
}

// clearCache removes all cached entries.
func (e *Engine) clearCache() {
	if e.cache == nil {
		return
	}
	e.cache.Clear()
	e.logger.Debug().Msg("cache cleared")
}
