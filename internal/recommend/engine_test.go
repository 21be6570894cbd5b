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
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockDataProvider implements DataProvider for testing.
type mockDataProvider struct {
	customers []CustomerRecord
	contracts []ContractRecord
	claims    []ClaimRecord
	products  []ProductRecord

	customersErr error
	productsErr  error

	// block, when set, is waited on by GetCustomers.
	block   chan struct{}
	entered chan struct{}
}

func (m *mockDataProvider) GetCustomers(ctx context.Context) ([]CustomerRecord, error) {
	if m.entered != nil {
		close(m.entered)
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.customersErr != nil {
		return nil, m.customersErr
	}
	return m.customers, nil
}

func (m *mockDataProvider) GetContracts(_ context.Context) ([]ContractRecord, error) {
	return m.contracts, nil
}

func (m *mockDataProvider) GetClaims(_ context.Context) ([]ClaimRecord, error) {
	return m.claims, nil
}

func (m *mockDataProvider) GetProducts(_ context.Context) ([]ProductRecord, error) {
	if m.productsErr != nil {
		return nil, m.productsErr
	}
	return m.products, nil
}

// recordingProvider also materializes the training table.
type recordingProvider struct {
	*mockDataProvider
	mu      sync.Mutex
	rebuilt [][]TrainingRow
	err     error
}

func (r *recordingProvider) RebuildTrainingTable(_ context.Context, rows []TrainingRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebuilt = append(r.rebuilt, rows)
	return r.err
}

var subSectors = []string{"TRANSPORT TERRESTRE", "CONSTRUCTION", "IMMOBILIER", "EDUCATION", "INDUSTRIE"}

func productCatalog() []ProductRecord {
	out := make([]ProductRecord, 0, 5)
	for _, p := range testProducts() {
		out = append(out, p)
	}
	return out
}

// portfolioProvider builds n customers whose products correlate with their
// sub-sector. Every third customer has a second contract.
func portfolioProvider(n int) *mockDataProvider {
	dp := &mockDataProvider{products: productCatalog()}
	contractID := int64(1)
	for i := 0; i < n; i++ {
		id := int64(i + 1)
		sector := subSectors[i%len(subSectors)]
		dp.customers = append(dp.customers, CustomerRecord{
			ID:           id,
			EntityType:   EntityPerson,
			Gender:       []string{"M", "F"}[i%2],
			FamilyStatus: []string{"SINGLE", "MARRIED", ""}[i%3],
			BirthDate:    time.Date(1960+i%40, time.April, 1, 0, 0, 0, 0, time.UTC),
			Sector:       "SERVICES",
			SubSector:    sector,
			City:         []string{"Tunis", "Sfax", "Sousse"}[i%3],
			Governorate:  []string{"Tunis", "Sfax", "Sousse"}[i%3],
			Enabled:      true,
		})
		primary := int64(i%len(subSectors)) + 1
		dp.contracts = append(dp.contracts, ContractRecord{
			ID: contractID, CustomerID: id, ProductID: primary,
			TotalPremium: float64(500 + 100*(i%7)), Status: ContractActive,
		})
		if i%4 == 0 {
			dp.claims = append(dp.claims, ClaimRecord{ID: contractID, ContractID: contractID})
		}
		contractID++
		if i%3 == 0 {
			dp.contracts = append(dp.contracts, ContractRecord{
				ID: contractID, CustomerID: id, ProductID: primary%5 + 1,
				TotalPremium: float64(200 + 50*(i%5)), Status: ContractExpired,
			})
			contractID++
		}
	}
	return dp
}

func testEngineConfig() *Config {
	cfg := DefaultConfig()
	cfg.Forest.NumTrees = 15
	cfg.Forest.NumWorkers = 2
	cfg.Cache.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T, cfg *Config, dp DataProvider) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, dp, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	t.Run("nil config uses defaults", func(t *testing.T) {
		e, err := NewEngine(nil, nil, nil, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine() error = %v", err)
		}
		if e.GetConfig().Limits.DefaultN != 3 {
			t.Errorf("DefaultN = %d, want 3", e.GetConfig().Limits.DefaultN)
		}
		if e.Rules().Len() == 0 {
			t.Error("expected default rule table")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Limits.DefaultN = 0
		if _, err := NewEngine(cfg, nil, nil, zerolog.Nop()); err == nil {
			t.Error("NewEngine() error = nil, want error")
		}
	})
}

func TestEngine_RecommendBeforeTraining(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testEngineConfig(), portfolioProvider(10))

	_, err := e.Recommend(context.Background(), 1, 3)
	if !errors.Is(err, ErrNotTrained) {
		t.Errorf("Recommend() error = %v, want ErrNotTrained", err)
	}
	if e.Model() != nil {
		t.Error("Model() should be nil before training")
	}
}

func TestEngine_TrainWithoutProvider(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testEngineConfig(), nil)
	if _, err := e.Train(context.Background()); err == nil {
		t.Error("Train() error = nil, want error")
	}
}

func TestEngine_Train(t *testing.T) {
	t.Parallel()

	dp := portfolioProvider(60)
	e := newTestEngine(t, testEngineConfig(), dp)

	result, err := e.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	if result.ModelVersion != 1 {
		t.Errorf("ModelVersion = %d, want 1", result.ModelVersion)
	}
	if result.LabeledRows != len(dp.contracts) {
		t.Errorf("LabeledRows = %d, want %d", result.LabeledRows, len(dp.contracts))
	}
	if result.TrainRows+result.TestRows != result.LabeledRows {
		t.Errorf("train %d + test %d != labeled %d", result.TrainRows, result.TestRows, result.LabeledRows)
	}
	if !result.Evaluated {
		t.Error("Evaluated = false, want true")
	}
	if result.Accuracy < 0 || result.Accuracy > 1 {
		t.Errorf("Accuracy = %v, want in [0, 1]", result.Accuracy)
	}
	if result.Classes != 5 {
		t.Errorf("Classes = %d, want 5", result.Classes)
	}
	if result.Customers != 60 {
		t.Errorf("Customers = %d, want 60", result.Customers)
	}
	if result.RunID == "" {
		t.Error("RunID is empty")
	}

	status := e.GetStatus()
	if !status.Trained || status.IsTraining || status.ModelVersion != 1 {
		t.Errorf("status = %+v", status)
	}
	if m := e.Model(); m == nil || m.Version() != 1 {
		t.Fatal("model not published")
	}
}

func TestEngine_NullTargetsExcluded(t *testing.T) {
	t.Parallel()

	dp := portfolioProvider(9)
	dp.contracts = dp.contracts[:0]
	for i := 0; i < 9; i++ {
		dp.contracts = append(dp.contracts, ContractRecord{
			ID: int64(i + 1), CustomerID: int64(i + 1), ProductID: int64(i%3 + 1), TotalPremium: 100,
		})
	}
	// A tenth, enabled customer without any contract.
	dp.customers = append(dp.customers, CustomerRecord{ID: 10, EntityType: EntityPerson, Enabled: true})

	e := newTestEngine(t, testEngineConfig(), dp)
	result, err := e.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if result.DatasetRows != 10 {
		t.Errorf("DatasetRows = %d, want 10", result.DatasetRows)
	}
	if result.LabeledRows != 9 {
		t.Errorf("LabeledRows = %d, want 9", result.LabeledRows)
	}
	if result.Customers != 9 {
		t.Errorf("Customers = %d, want 9", result.Customers)
	}

	res, err := e.Recommend(context.Background(), 10, 3)
	if err != nil {
		t.Fatalf("Recommend(10) error = %v", err)
	}
	if res.Found || len(res.Items) != 0 {
		t.Errorf("Recommend(10) = found %v with %d items, want not found", res.Found, len(res.Items))
	}
}

func TestEngine_RecommendProperties(t *testing.T) {
	t.Parallel()

	dp := portfolioProvider(60)
	e := newTestEngine(t, testEngineConfig(), dp)
	if _, err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	ownedBy := make(map[int64]map[int64]struct{})
	for _, c := range dp.contracts {
		if ownedBy[c.CustomerID] == nil {
			ownedBy[c.CustomerID] = make(map[int64]struct{})
		}
		ownedBy[c.CustomerID][c.ProductID] = struct{}{}
	}

	ctx := context.Background()
	for _, cu := range dp.customers {
		res, err := e.Recommend(ctx, cu.ID, 0)
		if err != nil {
			t.Fatalf("Recommend(%d) error = %v", cu.ID, err)
		}
		if !res.Found {
			t.Errorf("Recommend(%d) Found = false", cu.ID)
		}
		if len(res.Items) > 3 {
			t.Errorf("Recommend(%d) returned %d items, want <= 3", cu.ID, len(res.Items))
		}
		for i, r := range res.Items {
			if _, own := ownedBy[cu.ID][r.ProductID]; own {
				t.Errorf("Recommend(%d) returned owned product %d", cu.ID, r.ProductID)
			}
			if r.Probability <= 0 {
				t.Errorf("Recommend(%d) returned probability %v", cu.ID, r.Probability)
			}
			if i > 0 && r.Probability > res.Items[i-1].Probability {
				t.Errorf("Recommend(%d) probabilities increase at %d", cu.ID, i)
			}
		}

		again, err := e.Recommend(ctx, cu.ID, 0)
		if err != nil {
			t.Fatalf("Recommend(%d) second call error = %v", cu.ID, err)
		}
		if fmt.Sprint(again.Items) != fmt.Sprint(res.Items) {
			t.Errorf("Recommend(%d) not deterministic: %v vs %v", cu.ID, res.Items, again.Items)
		}
	}
}

func TestEngine_UnknownCustomer(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testEngineConfig(), portfolioProvider(20))
	if _, err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	res, err := e.Recommend(context.Background(), 9999, 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v, want nil", err)
	}
	if res.Found {
		t.Error("Found = true, want false")
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Errorf("Items = %v, want empty non-nil slice", res.Items)
	}
	if e.GetMetrics().NotFoundCount != 1 {
		t.Errorf("NotFoundCount = %d, want 1", e.GetMetrics().NotFoundCount)
	}
}

func TestEngine_DisabledCustomerIsUnknown(t *testing.T) {
	t.Parallel()

	dp := portfolioProvider(20)
	dp.customers[0].Enabled = false
	e := newTestEngine(t, testEngineConfig(), dp)
	if _, err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	res, err := e.Recommend(context.Background(), dp.customers[0].ID, 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.Found {
		t.Error("disabled customer should not be found")
	}
}

// identicalProvider has customers with identical features and alternating
// products, so every leaf holds both classes.
func identicalProvider(products []ProductRecord) *mockDataProvider {
	dp := &mockDataProvider{products: products}
	for i := int64(1); i <= 4; i++ {
		dp.customers = append(dp.customers, CustomerRecord{
			ID: i, EntityType: EntityPerson, Gender: "F", SubSector: "IMMOBILIER", Enabled: true,
			BirthDate: time.Date(1985, time.January, 1, 0, 0, 0, 0, time.UTC),
		})
		dp.contracts = append(dp.contracts, ContractRecord{
			ID: i, CustomerID: i, ProductID: i%2 + 1, TotalPremium: 100,
		})
	}
	return dp
}

func TestEngine_ExactRecommendation(t *testing.T) {
	t.Parallel()

	cfg := testEngineConfig()
	cfg.Forest.DisableBootstrap = true
	cfg.Evaluation.TestFraction = 0

	e := newTestEngine(t, cfg, identicalProvider(productCatalog()))
	result, err := e.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if result.Evaluated {
		t.Error("Evaluated = true with empty test split")
	}

	// Customer 1 owns product 2, so only product 1 remains.
	res, err := e.Recommend(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ProductID != 1 {
		t.Fatalf("Items = %+v, want product 1 only", res.Items)
	}
	if res.Items[0].Probability != 0.5 {
		t.Errorf("Probability = %v, want 0.5", res.Items[0].Probability)
	}
	// IMMOBILIER lists INCENDIE; product 1 is AUTOMOBILE.
	if res.Items[0].RuleMatch {
		t.Error("RuleMatch = true, want false")
	}
}

func TestEngine_DataIntegrityError(t *testing.T) {
	t.Parallel()

	cfg := testEngineConfig()
	cfg.Forest.DisableBootstrap = true
	cfg.Evaluation.TestFraction = 0

	e := newTestEngine(t, cfg, identicalProvider(nil))
	if _, err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	_, err := e.Recommend(context.Background(), 1, 3)
	var integrity *DataIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("Recommend() error = %v, want *DataIntegrityError", err)
	}
	if integrity.ID != 1 {
		t.Errorf("integrity ID = %d, want 1", integrity.ID)
	}
	if e.GetMetrics().IntegrityCount != 1 {
		t.Errorf("IntegrityCount = %d, want 1", e.GetMetrics().IntegrityCount)
	}

	// The engine keeps serving other requests.
	if _, err := e.Recommend(context.Background(), 9999, 3); err != nil {
		t.Errorf("Recommend(unknown) error = %v", err)
	}
}

func TestEngine_EmptyDatasetKeepsPreviousModel(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testEngineConfig(), portfolioProvider(20))
	if _, err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	e.SetDataProvider(&mockDataProvider{customers: []CustomerRecord{{ID: 1, Enabled: true}}})
	_, err := e.Train(context.Background())
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("Train() error = %v, want ErrEmptyDataset", err)
	}

	if m := e.Model(); m == nil || m.Version() != 1 {
		t.Error("previous model should remain published")
	}
	status := e.GetStatus()
	if status.LastError == "" || !status.Trained {
		t.Errorf("status = %+v, want last error and trained", status)
	}
	if e.GetMetrics().TrainingFails != 1 {
		t.Errorf("TrainingFails = %d, want 1", e.GetMetrics().TrainingFails)
	}
}

func TestEngine_ProviderErrors(t *testing.T) {
	t.Parallel()

	errDB := errors.New("connection refused")

	tests := []struct {
		name   string
		modify func(*mockDataProvider)
	}{
		{"customers", func(dp *mockDataProvider) { dp.customersErr = errDB }},
		{"products", func(dp *mockDataProvider) { dp.productsErr = errDB }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dp := portfolioProvider(10)
			tt.modify(dp)
			e := newTestEngine(t, testEngineConfig(), dp)
			if _, err := e.Train(context.Background()); !errors.Is(err, errDB) {
				t.Errorf("Train() error = %v, want %v", err, errDB)
			}
			if e.Model() != nil {
				t.Error("model published after failed training")
			}
		})
	}
}

func TestEngine_ConcurrentTraining(t *testing.T) {
	t.Parallel()

	dp := portfolioProvider(20)
	dp.block = make(chan struct{})
	dp.entered = make(chan struct{})
	e := newTestEngine(t, testEngineConfig(), dp)

	done := make(chan error, 1)
	go func() {
		_, err := e.Train(context.Background())
		done <- err
	}()

	<-dp.entered
	if !e.GetStatus().IsTraining {
		t.Error("IsTraining = false during training")
	}
	if _, err := e.Train(context.Background()); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("second Train() error = %v, want ErrTrainingInProgress", err)
	}

	close(dp.block)
	if err := <-done; err != nil {
		t.Fatalf("first Train() error = %v", err)
	}
}

func TestEngine_RetrainPublishesNewVersion(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testEngineConfig(), portfolioProvider(20))
	ctx := context.Background()
	if _, err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	held := e.Model()

	result, err := e.Train(ctx)
	if err != nil {
		t.Fatalf("second Train() error = %v", err)
	}
	if result.ModelVersion != 2 || e.Model().Version() != 2 {
		t.Errorf("version = %d, want 2", result.ModelVersion)
	}
	// A handle obtained earlier keeps working on its own state.
	if held.Version() != 1 {
		t.Errorf("held model version = %d, want 1", held.Version())
	}
	if _, err := held.Recommend(1, 3); err != nil {
		t.Errorf("held model Recommend() error = %v", err)
	}
}

func TestEngine_ConcurrentRecommend(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testEngineConfig(), portfolioProvider(30))
	ctx := context.Background()
	if _, err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 60)
	for i := 0; i < 30; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			if _, err := e.Recommend(ctx, id, 3); err != nil {
				errs <- err
			}
		}(int64(i + 1))
		go func() {
			defer wg.Done()
			if _, err := e.Train(ctx); err != nil && !errors.Is(err, ErrTrainingInProgress) {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent call error = %v", err)
	}
}

func TestEngine_MaterializesTrainingTable(t *testing.T) {
	t.Parallel()

	t.Run("rebuilds table", func(t *testing.T) {
		t.Parallel()
		rp := &recordingProvider{mockDataProvider: portfolioProvider(10)}
		e := newTestEngine(t, testEngineConfig(), rp)
		result, err := e.Train(context.Background())
		if err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		if len(rp.rebuilt) != 1 || len(rp.rebuilt[0]) != result.DatasetRows {
			t.Errorf("rebuilt = %d calls, want 1 with %d rows", len(rp.rebuilt), result.DatasetRows)
		}
	})

	t.Run("rebuild failure does not abort training", func(t *testing.T) {
		t.Parallel()
		rp := &recordingProvider{mockDataProvider: portfolioProvider(10), err: errors.New("disk full")}
		e := newTestEngine(t, testEngineConfig(), rp)
		if _, err := e.Train(context.Background()); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		rp := &recordingProvider{mockDataProvider: portfolioProvider(10)}
		cfg := testEngineConfig()
		cfg.Training.MaterializeTable = false
		e := newTestEngine(t, cfg, rp)
		if _, err := e.Train(context.Background()); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		if len(rp.rebuilt) != 0 {
			t.Errorf("rebuilt %d times, want 0", len(rp.rebuilt))
		}
	})
}

func TestEngine_Cache(t *testing.T) {
	t.Parallel()

	cfg := testEngineConfig()
	cfg.Cache.Enabled = true
	e := newTestEngine(t, cfg, portfolioProvider(20))
	ctx := context.Background()
	if _, err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	first, err := e.Recommend(ctx, 1, 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if first.CacheHit {
		t.Error("first call CacheHit = true")
	}
	second, err := e.Recommend(ctx, 1, 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("second call CacheHit = false")
	}
	if fmt.Sprint(first.Items) != fmt.Sprint(second.Items) {
		t.Error("cached items differ")
	}

	m := e.GetMetrics()
	if m.CacheHits != 1 || m.CacheMisses != 1 || m.RequestCount != 2 {
		t.Errorf("metrics = %+v", m)
	}

	if _, err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	third, err := e.Recommend(ctx, 1, 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if third.CacheHit || third.ModelVersion != 2 {
		t.Errorf("after retrain CacheHit = %v, version = %d", third.CacheHit, third.ModelVersion)
	}
}

func TestEngine_CachedNotFoundKeepsEmptyItems(t *testing.T) {
	t.Parallel()

	cfg := testEngineConfig()
	cfg.Cache.Enabled = true
	e := newTestEngine(t, cfg, portfolioProvider(20))
	ctx := context.Background()
	if _, err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	for i, wantHit := range []bool{false, true} {
		res, err := e.Recommend(ctx, 9999, 3)
		if err != nil {
			t.Fatalf("call %d: Recommend() error = %v", i, err)
		}
		if res.Found {
			t.Errorf("call %d: Found = true, want false", i)
		}
		if res.CacheHit != wantHit {
			t.Errorf("call %d: CacheHit = %v, want %v", i, res.CacheHit, wantHit)
		}
		if res.Items == nil || len(res.Items) != 0 {
			t.Errorf("call %d: Items = %#v, want empty non-nil slice", i, res.Items)
		}
	}
}

func TestEngine_ClampN(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testEngineConfig(), nil)
	tests := []struct{ in, want int }{{0, 3}, {-1, 3}, {2, 2}, {10, 10}, {50, 10}}
	for _, tt := range tests {
		if got := e.clampN(tt.in); got != tt.want {
			t.Errorf("clampN(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEngine_RecommendCancelledContext(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testEngineConfig(), portfolioProvider(10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Recommend(ctx, 1, 3); !errors.Is(err, context.Canceled) {
		t.Errorf("Recommend() error = %v, want context.Canceled", err)
	}
}
