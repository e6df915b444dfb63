package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is matched by *NotFittedError.
	ErrNotFitted = errors.New("normalization transform is not fitted")
	// ErrInsufficientHistory is matched by *InsufficientHistoryError.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrShapeMismatch is matched by *ShapeMismatchError.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrNonFiniteForecast is matched by *NonFiniteForecastError.
	ErrNonFiniteForecast = errors.New("non-finite forecast")
	// ErrUnknownModel is returned for model names that are not registered.
	ErrUnknownModel = errors.New("unknown model")
)

// NotFittedError reports a normalization transform used before Fit or
// loading fitted parameters.
type NotFittedError struct {
	Transform string
}

func (e *NotFittedError) Error() string {
	if e.Transform == "" {
		return ErrNotFitted.Error()
	}
	return fmt.Sprintf("normalization transform %s is not fitted", e.Transform)
}

func (e *NotFittedError) Is(target error) bool { return target == ErrNotFitted }

// InsufficientHistoryError reports a series shorter than the lookback window.
type InsufficientHistoryError struct {
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: have %d observations, need %d", e.Have, e.Need)
}

func (e *InsufficientHistoryError) Is(target error) bool { return target == ErrInsufficientHistory }

// ShapeMismatchError reports a model input or output of the wrong shape.
type ShapeMismatchError struct {
	Where string
	Want  []int
	Got   []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch in %s: want %v, got %v", e.Where, e.Want, e.Got)
}

func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// NonFiniteForecastError reports a NaN or infinite prediction at a 1-based step.
type NonFiniteForecastError struct {
	Step  int
	Value float64
}

func (e *NonFiniteForecastError) Error() string {
	return fmt.Sprintf("non-finite prediction %v at step %d", e.Value, e.Step)
}

func (e *NonFiniteForecastError) Is(target error) bool { return target == ErrNonFiniteForecast }
