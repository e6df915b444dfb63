package features

import (
	"sort"
	"time"

	"BrentCast/internal/domain/models"
)

// Default moving-average windows, in observations.
var DefaultWindows = []int{30, 90}

// MovingAverage returns the trailing mean over window observations. Points
// before the window fills are omitted, so the result has len(s)-window+1 entries.
func MovingAverage(s models.TimeSeries, window int) []models.MovingAveragePoint {
	if window <= 0 || len(s) < window {
		return []models.MovingAveragePoint{}
	}
	out := make([]models.MovingAveragePoint, 0, len(s)-window+1)
	sum := 0.0
	for i, p := range s {
		sum += p.Price
		if i >= window {
			sum -= s[i-window].Price
		}
		if i >= window-1 {
			out = append(out, models.MovingAveragePoint{
				Date:   p.Date,
				Window: window,
				Value:  sum / float64(window),
			})
		}
	}
	return out
}

// MovingAverages computes one series per window, in the order given.
func MovingAverages(s models.TimeSeries, windows ...int) []models.MovingAverageSeries {
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	out := make([]models.MovingAverageSeries, 0, len(windows))
	for _, w := range windows {
		out = append(out, models.MovingAverageSeries{Window: w, Points: MovingAverage(s, w)})
	}
	return out
}

// MonthlyChange groups the series by calendar month, averages each month and
// reports the percent change against the previous observed month. Months are
// keyed by their first day; the first month carries no change.
func MonthlyChange(s models.TimeSeries) []models.MonthlyChange {
	type acc struct {
		sum float64
		n   int
	}
	buckets := map[time.Time]*acc{}
	keys := make([]time.Time, 0)
	for _, p := range s {
		k := time.Date(p.Date.Year(), p.Date.Month(), 1, 0, 0, 0, 0, p.Date.Location())
		a, ok := buckets[k]
		if !ok {
			a = &acc{}
			buckets[k] = a
			keys = append(keys, k)
		}
		a.sum += p.Price
		a.n++
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]models.MonthlyChange, 0, len(keys))
	for i, k := range keys {
		mc := models.MonthlyChange{Month: k, Mean: buckets[k].sum / float64(buckets[k].n)}
		if i > 0 && out[i-1].Mean != 0 {
			pct := (mc.Mean/out[i-1].Mean - 1) * 100
			mc.ChangePct = &pct
		}
		out = append(out, mc)
	}
	return out
}

// LastMonths keeps months within n years of the latest month. n <= 0 keeps all.
func LastMonths(changes []models.MonthlyChange, years int) []models.MonthlyChange {
	if years <= 0 || len(changes) == 0 {
		return changes
	}
	cutoff := changes[len(changes)-1].Month.AddDate(-years, 0, 0)
	for i, c := range changes {
		if !c.Month.Before(cutoff) {
			return changes[i:]
		}
	}
	return []models.MonthlyChange{}
}

type event struct {
	name string
	date time.Time
}

// knownEvents are the annotated market shocks shown alongside the series.
var knownEvents = []event{
	{"Início da Pandemia", time.Date(2020, time.March, 11, 0, 0, 0, 0, time.UTC)},
	{"Corte OPEP+", time.Date(2020, time.April, 12, 0, 0, 0, 0, time.UTC)},
	{"COP26", time.Date(2021, time.November, 1, 0, 0, 0, 0, time.UTC)},
	{"Invasão da Ucrânia", time.Date(2022, time.February, 24, 0, 0, 0, 0, time.UTC)},
}

// MarketEvents returns the known events that fall inside s, each with the
// first price observed on or after the event date.
func MarketEvents(s models.TimeSeries) []models.MarketEvent {
	out := []models.MarketEvent{}
	if len(s) == 0 {
		return out
	}
	first := s[0].Date
	for _, e := range knownEvents {
		if e.date.Before(first) {
			continue
		}
		after := s.Since(e.date)
		if len(after) == 0 {
			continue
		}
		out = append(out, models.MarketEvent{Name: e.name, Date: e.date, Price: after[0].Price})
	}
	return out
}
