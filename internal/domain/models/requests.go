package models

// Requests for the HTTP endpoints. Defined in domain for reuse by the CLI.

type HistoryRequest struct {
	Years int    `query:"years" json:"years" default:"0" validate:"gte=0,lte=30"`
	From  string `query:"from" json:"from"`
}

type MovingAverageRequest struct {
	Years   int   `query:"years" json:"years" default:"0" validate:"gte=0,lte=30"`
	Windows []int `query:"windows" json:"windows" validate:"omitempty,max=4,dive,gte=2,lte=365"`
}

type EventsRequest struct {
	Years int `query:"years" json:"years" default:"6" validate:"gte=1,lte=30"`
}

type ForecastRequest struct {
	Model       string `query:"model" json:"model" default:"xgboost" validate:"required"`
	Horizon     int    `query:"horizon" json:"horizon" default:"15" validate:"gte=1,lte=90"`
	HistoryDays int    `query:"history_days" json:"history_days" default:"365" validate:"gte=30,lte=365"`
}
