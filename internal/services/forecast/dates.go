package forecast

import (
	"time"

	"BrentCast/internal/domain/models"
)

// NextDates returns n consecutive calendar days starting the day after last.
// Weekends and holidays are not skipped.
func NextDates(last time.Time, n int) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}
	out := make([]time.Time, n)
	for i := range out {
		out[i] = last.AddDate(0, 0, i+1)
	}
	return out
}

// TrendOf is up when the last prediction exceeds the first, down otherwise.
func TrendOf(prices []float64) models.Direction {
	if len(prices) == 0 {
		return models.DirectionFlat
	}
	if prices[len(prices)-1] > prices[0] {
		return models.DirectionUp
	}
	return models.DirectionDown
}

func directionOf(prev, cur float64) models.Direction {
	switch {
	case cur > prev:
		return models.DirectionUp
	case cur < prev:
		return models.DirectionDown
	default:
		return models.DirectionFlat
	}
}
