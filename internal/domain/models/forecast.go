package models

import (
	"encoding/json"
	"math"
	"time"
)

// Direction of a forecast point relative to the value before it.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// ForecastPoint is one denormalized prediction.
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	Direction Direction `json:"direction"`
}

// Finite reports whether the price is neither NaN nor infinite.
func (p ForecastPoint) Finite() bool {
	return !math.IsNaN(p.Price) && !math.IsInf(p.Price, 0)
}

type forecastPointJSON struct {
	Date      time.Time `json:"date"`
	Price     *float64  `json:"price"`
	Direction Direction `json:"direction"`
}

// MarshalJSON encodes a non-finite price as null.
func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	out := forecastPointJSON{Date: p.Date, Direction: p.Direction}
	if p.Finite() {
		price := p.Price
		out.Price = &price
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null price as NaN.
func (p *ForecastPoint) UnmarshalJSON(b []byte) error {
	var in forecastPointJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	p.Date, p.Direction, p.Price = in.Date, in.Direction, math.NaN()
	if in.Price != nil {
		p.Price = *in.Price
	}
	return nil
}

// ForecastResult is the output of one recursive forecast run.
type ForecastResult struct {
	RunID       string          `json:"run_id"`
	Model       string          `json:"model"`
	Variant     string          `json:"variant"`
	Lookback    int             `json:"lookback"`
	Horizon     int             `json:"horizon"`
	GeneratedAt time.Time       `json:"generated_at"`
	Points      []ForecastPoint `json:"points"`
	Trend       Direction       `json:"trend"`
}

// Prices returns the predicted price column.
func (r *ForecastResult) Prices() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Price
	}
	return out
}

// ModelInfo describes a configured forecasting model.
type ModelInfo struct {
	Name     string  `json:"name"`
	Variant  string  `json:"variant"`
	Lookback int     `json:"lookback"`
	RMSE     float64 `json:"rmse"`
	Remote   bool    `json:"remote"`
}

// ForecastView bundles a forecast with the recent history it extends.
type ForecastView struct {
	Model    ModelInfo       `json:"model"`
	History  TimeSeries      `json:"history"`
	Forecast *ForecastResult `json:"forecast"`
}
