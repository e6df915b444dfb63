package models

import "time"

// MovingAveragePoint is a trailing moving average value.
type MovingAveragePoint struct {
	Date   time.Time `json:"date"`
	Window int       `json:"window"`
	Value  float64   `json:"value"`
}

// MovingAverageSeries groups the averages for one window length.
type MovingAverageSeries struct {
	Window int                  `json:"window"`
	Points []MovingAveragePoint `json:"points"`
}

// MonthlyChange is the calendar-month mean and its percent change vs the previous month.
type MonthlyChange struct {
	Month     time.Time `json:"month"`
	Mean      float64   `json:"mean"`
	ChangePct *float64  `json:"change_pct,omitempty"`
}

// MarketEvent is an annotated date with the price observed on or after it.
type MarketEvent struct {
	Name  string    `json:"name"`
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}
