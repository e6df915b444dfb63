package models

import (
	"fmt"
	"math"
	"time"
)

// PricePoint is one daily observation of the price series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// TimeSeries is an ordered daily price series. Dates are strictly increasing
// and every point carries a finite price.
type TimeSeries []PricePoint

// Validate checks ordering, duplicates and missing values.
func (s TimeSeries) Validate() error {
	for i, p := range s {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return fmt.Errorf("point %d (%s): price is not finite", i, p.Date.Format(time.DateOnly))
		}
		if i > 0 && !p.Date.After(s[i-1].Date) {
			return fmt.Errorf("point %d (%s): date not after %s", i, p.Date.Format(time.DateOnly), s[i-1].Date.Format(time.DateOnly))
		}
	}
	return nil
}

// Prices returns the raw price column.
func (s TimeSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// Last returns the most recent point. ok is false for an empty series.
func (s TimeSeries) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the last n points (or the whole series if shorter).
func (s TimeSeries) Tail(n int) TimeSeries {
	if n <= 0 {
		return TimeSeries{}
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Since returns the points dated on or after t.
func (s TimeSeries) Since(t time.Time) TimeSeries {
	for i, p := range s {
		if !p.Date.Before(t) {
			return s[i:]
		}
	}
	return TimeSeries{}
}

// LastYears returns the points within n years of the last date. n <= 0 keeps everything.
func (s TimeSeries) LastYears(n int) TimeSeries {
	last, ok := s.Last()
	if !ok || n <= 0 {
		return s
	}
	return s.Since(last.Date.AddDate(-n, 0, 0))
}
