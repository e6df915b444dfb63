package features

import (
	"testing"
	"time"

	"BrentCast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func daily(start time.Time, prices ...float64) models.TimeSeries {
	s := make(models.TimeSeries, len(prices))
	for i, p := range prices {
		s[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Price: p}
	}
	return s
}

func TestMovingAverage(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := daily(start, 1, 2, 3, 4, 5)

	got := MovingAverage(s, 3)
	require.Len(t, got, 3)
	assert.Equal(t, start.AddDate(0, 0, 2), got[0].Date)
	assert.InDelta(t, 2.0, got[0].Value, 1e-12)
	assert.InDelta(t, 3.0, got[1].Value, 1e-12)
	assert.InDelta(t, 4.0, got[2].Value, 1e-12)
	assert.Equal(t, 3, got[2].Window)

	assert.Empty(t, MovingAverage(s, 6))
	assert.Empty(t, MovingAverage(s, 0))
}

func TestMovingAverages_DefaultWindows(t *testing.T) {
	s := daily(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), make([]float64, 100)...)
	got := MovingAverages(s)
	require.Len(t, got, 2)
	assert.Equal(t, 30, got[0].Window)
	assert.Len(t, got[0].Points, 71)
	assert.Equal(t, 90, got[1].Window)
	assert.Len(t, got[1].Points, 11)
}

func TestMonthlyChange(t *testing.T) {
	s := models.TimeSeries{
		{Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Price: 80},
		{Date: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), Price: 100},
		{Date: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), Price: 99},
		{Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Price: 79.2},
	}
	got := MonthlyChange(s)
	require.Len(t, got, 3)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got[0].Month)
	assert.InDelta(t, 90.0, got[0].Mean, 1e-12)
	assert.Nil(t, got[0].ChangePct)

	require.NotNil(t, got[1].ChangePct)
	assert.InDelta(t, 10.0, *got[1].ChangePct, 1e-9)

	require.NotNil(t, got[2].ChangePct)
	assert.InDelta(t, -20.0, *got[2].ChangePct, 1e-9)
}

func TestLastMonths(t *testing.T) {
	var changes []models.MonthlyChange
	for m := 0; m < 84; m++ {
		changes = append(changes, models.MonthlyChange{Month: time.Date(2018, time.Month(1+m), 1, 0, 0, 0, 0, time.UTC)})
	}
	got := LastMonths(changes, 5)
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC), got[0].Month)
	assert.Len(t, LastMonths(changes, 0), 84)
}

func TestMarketEvents(t *testing.T) {
	start := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	s := daily(start, make([]float64, 800)...)
	for i := range s {
		s[i].Price = float64(i)
	}

	got := MarketEvents(s)
	names := make([]string, 0, len(got))
	for _, e := range got {
		names = append(names, e.Name)
	}
	// the pandemic start predates the series
	assert.Equal(t, []string{"Corte OPEP+", "COP26", "Invasão da Ucrânia"}, names)
	assert.InDelta(t, 11.0, got[0].Price, 1e-12)

	assert.Empty(t, MarketEvents(nil))
}
