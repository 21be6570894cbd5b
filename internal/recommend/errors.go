// Covera - Insurance Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/covera

package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotTrained is returned when inference is requested before any
	// training run has published a model.
	ErrNotTrained = errors.New("recommendation model not trained")

	// ErrTrainingInProgress is returned when Train is called concurrently.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrEmptyDataset aborts a training run that has no labeled rows.
	ErrEmptyDataset = errors.New("no labeled training rows")

	// ErrDataIntegrity is the category of DataIntegrityError.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrCustomerNotFound is returned by lookups of unknown customers.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrContractNotFound is returned by lookups of unknown contracts.
	ErrContractNotFound = errors.New("contract not found")
)

// DataIntegrityError reports a reference with no matching row, such as a
// predicted product absent from the product index.
type DataIntegrityError struct {
	Entity string
	ID     int64
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s %d has no reference row", e.Entity, e.ID)
}

// Unwrap lets callers match with errors.Is(err, ErrDataIntegrity).
func (e *DataIntegrityError) Unwrap() error {
	return ErrDataIntegrity
}
