// Comercio Recommender - Interaction Tracking and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/comercio-recommender

package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable is returned when the data source cannot serve a read.
	// Absent rows are not errors; they are reported as cold-start.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrShapeMismatch is returned when a vector length does not match the
	// configured dimensionality. It indicates a bug at the feature boundary.
	ErrShapeMismatch = errors.New("vector shape mismatch")

	// ErrInsufficientData is returned when the training snapshot is empty.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrNotFound is returned when a single requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoModel is returned when a prediction is requested before any
	// snapshot has been published.
	ErrNoModel = errors.New("no published model")
)

// ShapeError builds an ErrShapeMismatch with the offending lengths.
func ShapeError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has length %d, want %d", ErrShapeMismatch, what, got, want)
}

// TrainingError wraps any failure during a training cycle.
type TrainingError struct {
	Stage string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed at %s: %v", e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// PredictionError wraps a failure while scoring one candidate.
type PredictionError struct {
	ProductID int64
	Err       error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("predict product %d: %v", e.ProductID, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}
