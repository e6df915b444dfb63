package ipeadata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"BrentCast/internal/domain/models"
	domsvc "BrentCast/internal/domain/service"
	xhttp "BrentCast/pkg/http"
	applogger "BrentCast/pkg/logger"
)

const (
	DefaultBaseURL = "http://www.ipeadata.gov.br/api/odata4"
	BrentSeries    = "EIA366_PBRENT366"
)

// Client fetches a daily series from the IPEA OData API.
type Client struct {
	baseURL   string
	code      string
	afterYear int
	http      *xhttp.Client
	l         *applogger.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithSeriesCode(code string) Option {
	return func(c *Client) { c.code = code }
}

// WithYearGreaterThan keeps only observations dated after the given year.
func WithYearGreaterThan(y int) Option {
	return func(c *Client) { c.afterYear = y }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = xhttp.NewClient(xhttp.WithTimeout(d)) }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = l }
}

// New builds a client for the Brent series after 1999 by default.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		code:      BrentSeries,
		afterYear: 1999,
		http:      xhttp.NewClient(xhttp.WithTimeout(30 * time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Code is the series code this client fetches.
func (c *Client) Code() string { return c.code }

type seriesValue struct {
	Code  string   `json:"SERCODIGO"`
	Date  string   `json:"VALDATA"`
	Value *float64 `json:"VALVALOR"`
}

type seriesResp struct {
	Value []seriesValue `json:"value"`
}

// Fetch downloads the series, drops empty values, applies the year filter and
// returns it sorted by date with duplicate days collapsed to the last value.
func (c *Client) Fetch(ctx context.Context) (models.TimeSeries, error) {
	start := time.Now()
	u := fmt.Sprintf("%s/ValoresSerie(SERCODIGO='%s')", c.baseURL, url.PathEscape(c.code))
	var resp seriesResp
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     u,
		Headers: map[string]string{"Accept": "application/json"},
	}, &resp)
	if err != nil {
		if c.l != nil {
			c.l.Error("ipeadata fetch failed", applogger.String("series", c.code), applogger.Error(err))
		}
		return nil, fmt.Errorf("ipeadata fetch %s: %w", c.code, err)
	}

	out, dropped, err := parseValues(resp.Value, c.afterYear)
	if err != nil {
		return nil, fmt.Errorf("ipeadata %s: %w", c.code, err)
	}
	if c.l != nil {
		c.l.Info("ipeadata fetch ok",
			applogger.String("series", c.code),
			applogger.Int("points", len(out)),
			applogger.Int("dropped", dropped),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func parseValues(values []seriesValue, afterYear int) (models.TimeSeries, int, error) {
	out := make(models.TimeSeries, 0, len(values))
	dropped := 0
	for _, v := range values {
		if v.Value == nil {
			dropped++
			continue
		}
		d, err := parseDay(v.Date)
		if err != nil {
			return nil, 0, err
		}
		if d.Year() <= afterYear {
			continue
		}
		out = append(out, models.PricePoint{Date: d, Price: *v.Value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	dedup := out[:0]
	for _, p := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Date.Equal(p.Date) {
			dedup[n-1] = p
			dropped++
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup, dropped, nil
}

// parseDay keeps the calendar day of an OData timestamp, discarding the
// offset, and returns it as midnight UTC.
func parseDay(s string) (time.Time, error) {
	if len(s) < 10 {
		return time.Time{}, fmt.Errorf("invalid VALDATA %q", s)
	}
	d, err := time.Parse(time.DateOnly, s[:10])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid VALDATA %q: %w", s, err)
	}
	return d, nil
}

var _ domsvc.SeriesSource = (*Client)(nil)
