// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

import (
	"context"
	"math"
	"strings"
	"time"
)

// EntityType distinguishes natural persons from organizations.
type EntityType string

const (
	// EntityPerson is a natural person.
	EntityPerson EntityType = "PERSON"
	// EntityOrganization is a company or other legal entity.
	EntityOrganization EntityType = "ORGANIZATION"
)

// ParseEntityType maps stored codes to an EntityType. The legacy codes PP
// (personne physique) and PM (personne morale) are accepted. Unknown values
// are kept upper-cased so they still form their own category.
func ParseEntityType(s string) EntityType {
	switch v := strings.ToUpper(strings.TrimSpace(s)); v {
	case "":
		return ""
	case "PP", string(EntityPerson):
		return EntityPerson
	case "PM", string(EntityOrganization):
		return EntityOrganization
	default:
		return EntityType(v)
	}
}

// ContractStatus is the lifecycle state of a contract.
type ContractStatus string

const (
	ContractActive     ContractStatus = "ACTIVE"
	ContractTerminated ContractStatus = "TERMINATED"
	ContractExpired    ContractStatus = "EXPIRED"
)

// CustomerRecord is a read-only snapshot of a customer at training time.
type CustomerRecord struct {
	// ID is the customer identifier.
	ID int64 `json:"id"`

	// EntityType is PERSON or ORGANIZATION. Empty when unknown.
	EntityType EntityType `json:"entity_type"`

	Gender       string `json:"gender"`
	FamilyStatus string `json:"family_status"`

	// BirthDate is the zero time when unknown.
	BirthDate time.Time `json:"birth_date"`

	// Sector and SubSector are the professional classification.
	// SubSector is the key into the RuleTable.
	Sector    string `json:"sector"`
	SubSector string `json:"sub_sector"`

	City        string `json:"city"`
	Governorate string `json:"governorate"`

	// Enabled customers are the only ones included in training.
	Enabled bool `json:"is_enabled"`
}

// ContractRecord links a customer to a product.
type ContractRecord struct {
	ID         int64 `json:"id"`
	CustomerID int64 `json:"customer_id"`

	// ProductID is zero when the contract references no product.
	ProductID int64 `json:"product_id"`

	// TotalPremium is NaN when unknown.
	TotalPremium float64 `json:"total_premium"`

	Status        ContractStatus `json:"contract_status"`
	PaymentStatus string         `json:"payment_status"`
}

// ClaimRecord is a claim filed against a contract. Only the count per
// contract is used by the model.
type ClaimRecord struct {
	ID         int64 `json:"id"`
	ContractID int64 `json:"contract_id"`
}

// ProductRecord is a product with its sub-branch and branch classification.
type ProductRecord struct {
	ID            int64  `json:"id"`
	Name          string `json:"product_name"`
	SubBranchID   int64  `json:"sub_branch_id"`
	SubBranchName string `json:"sub_branch_name"`
	BranchID      int64  `json:"branch_id"`
	BranchName    string `json:"branch_name"`
}

// TrainingRow is one denormalized (customer, contract) row with the
// contract's claim count. Customers without contracts produce a single row
// with ContractID and ProductID zero.
type TrainingRow struct {
	CustomerID   int64      `json:"customer_id"`
	EntityType   EntityType `json:"entity_type"`
	Gender       string     `json:"gender"`
	FamilyStatus string     `json:"family_status"`
	BirthDate    time.Time  `json:"birth_date"`
	Sector       string     `json:"sector"`
	SubSector    string     `json:"sub_sector"`
	City         string     `json:"city"`
	Governorate  string     `json:"governorate"`

	ContractID     int64          `json:"contract_id"`
	ProductID      int64          `json:"product_id"`
	TotalPremium   float64        `json:"total_premium"`
	ContractStatus ContractStatus `json:"contract_status"`
	PaymentStatus  string         `json:"payment_status"`
	ClaimsCount    int            `json:"claims_count"`
}

// HasProduct reports whether the row carries an observed target.
func (r *TrainingRow) HasProduct() bool {
	return r.ProductID != 0
}

// Recommendation is a single ranked product suggestion.
type Recommendation struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	SubBranchID   int64  `json:"sub_branch_id"`
	SubBranchName string `json:"sub_branch_name"`
	BranchID      int64  `json:"branch_id"`
	BranchName    string `json:"branch_name"`

	// Probability is the classifier probability, unrounded.
	Probability float64 `json:"probability"`

	// Score is the value used for ordering after rule blending.
	// Equal to the raw probability under BlendNone.
	Score float64 `json:"score"`

	// RuleMatch is true when the product's branch is listed for the
	// customer's sub-sector in the rule table.
	RuleMatch bool `json:"rule_match"`
}

// Result is the outcome of a recommendation query.
type Result struct {
	CustomerID int64 `json:"customer_id"`

	// Found is false when the customer is not part of the trained
	// population. Items is empty in that case.
	Found bool `json:"found"`

	Items []Recommendation `json:"recommendations"`

	// ModelVersion identifies the model that produced the result.
	ModelVersion int `json:"model_version"`

	// CacheHit is true when the result was served from the engine cache.
	CacheHit bool `json:"cache_hit"`
}

// TrainingResult summarizes a completed training run.
type TrainingResult struct {
	RunID        string `json:"run_id"`
	ModelVersion int    `json:"model_version"`

	// Accuracy is the held-out accuracy. Only meaningful when Evaluated.
	Accuracy  float64 `json:"accuracy"`
	Evaluated bool    `json:"evaluated"`

	// DatasetRows counts all built rows, LabeledRows those with a product.
	DatasetRows int `json:"dataset_rows"`
	LabeledRows int `json:"labeled_rows"`
	TrainRows   int `json:"train_rows"`
	TestRows    int `json:"test_rows"`

	Classes    int       `json:"classes"`
	Features   int       `json:"features"`
	Customers  int       `json:"customers"`
	Products   int       `json:"products"`
	DurationMS int64     `json:"duration_ms"`
	TrainedAt  time.Time `json:"trained_at"`
}

// TrainingStatus represents the current state of model training.
type TrainingStatus struct {
	IsTraining             bool      `json:"is_training"`
	Trained                bool      `json:"trained"`
	LastTrainedAt          time.Time `json:"last_trained_at,omitempty"`
	LastTrainingDurationMS int64     `json:"last_training_duration_ms"`
	LastError              string    `json:"last_error,omitempty"`
	ModelVersion           int       `json:"model_version"`
	Accuracy               float64   `json:"accuracy"`
	LabeledRows            int       `json:"labeled_rows"`
	Customers              int       `json:"customers"`
}

// Metrics contains runtime counters for the engine.
type Metrics struct {
	RequestCount   int64 `json:"request_count"`
	NotFoundCount  int64 `json:"not_found_count"`
	IntegrityCount int64 `json:"integrity_error_count"`
	CacheHits      int64 `json:"cache_hits"`
	CacheMisses    int64 `json:"cache_misses"`
	TrainingRuns   int64 `json:"training_runs"`
	TrainingFails  int64 `json:"training_failures"`
}

// DataProvider supplies the raw collections the pipeline trains on.
// It is implemented by the database layer.
type DataProvider interface {
	GetCustomers(ctx context.Context) ([]CustomerRecord, error)
	GetContracts(ctx context.Context) ([]ContractRecord, error)
	GetClaims(ctx context.Context) ([]ClaimRecord, error)

	// GetProducts returns products joined with sub-branches and branches.
	GetProducts(ctx context.Context) ([]ProductRecord, error)
}

// TrainingTableWriter is implemented by providers that materialize the
// training table. The table is dropped and rebuilt on each call.
type TrainingTableWriter interface {
	RebuildTrainingTable(ctx context.Context, rows []TrainingRow) error
}

// Missing returns the marker for an unknown numeric value.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v marks an unknown numeric value.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}
