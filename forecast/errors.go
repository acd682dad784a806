package forecast

import (
	"errors"
	"fmt"
)

// ErrInvalidHorizon is returned for a horizon below one.
var ErrInvalidHorizon = errors.New("horizon must be at least 1")

// DataValidationError rejects input that no model may consume. It aborts the
// whole operation.
type DataValidationError struct {
	Reason string
}

func (e *DataValidationError) Error() string {
	return "data validation: " + e.Reason
}

// InsufficientDataError reports a chronological split with an empty side.
type InsufficientDataError struct {
	Rows   int
	Window int
	Train  int
	Test   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d rows with window %d give %d train and %d test samples",
		e.Rows, e.Window, e.Train, e.Test)
}

// Unwrap lets callers match the broader validation failure with errors.As.
func (e *InsufficientDataError) Unwrap() error {
	return &DataValidationError{Reason: "empty train or test partition"}
}

// ModelFitError records one feature's failure. The batch continues.
type ModelFitError struct {
	Feature string
	Stage   string
	Err     error
}

// Stages of the per-feature evaluation.
const (
	StageLoad         = "load"
	StageStationarity = "stationarity"
	StageOrder        = "order"
	StageFit          = "fit"
	StageForecast     = "forecast"
)

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Feature, e.Stage, e.Err)
}

func (e *ModelFitError) Unwrap() error {
	return e.Err
}

func fitError(feature, stage string, err error) error {
	var mfe *ModelFitError
	if errors.As(err, &mfe) {
		return err
	}
	return &ModelFitError{Feature: feature, Stage: stage, Err: err}
}
