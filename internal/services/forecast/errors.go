package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParams wraps malformed forecast parameters.
	ErrInvalidParams = errors.New("invalid forecast parameters")
	// ErrStepBudgetExceeded is returned when the horizon is above the configured step budget.
	ErrStepBudgetExceeded = errors.New("horizon exceeds step budget")
)

// IncompleteForecastError is returned when the context ends before every step ran.
// No predictions are returned with it.
type IncompleteForecastError struct {
	Completed int
	Horizon   int
	Err       error
}

func (e *IncompleteForecastError) Error() string {
	return fmt.Sprintf("forecast aborted after %d of %d steps: %v", e.Completed, e.Horizon, e.Err)
}

func (e *IncompleteForecastError) Unwrap() error { return e.Err }
