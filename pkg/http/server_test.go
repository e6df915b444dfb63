package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrentCast/pkg/http/middleware"
)

func healthz(t *testing.T, s *Server) (int, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body.Data
}

func TestHealthz(t *testing.T) {
	ok := NewServer(nil, WithMetrics(false, 0),
		WithHealthCheck("series_store", func(context.Context) error { return nil }))
	code, status := healthz(t, ok)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", status["series_store"])

	down := NewServer(nil, WithMetrics(false, 0),
		WithHealthCheck("series_store", func(context.Context) error { return errors.New("connection refused") }))
	code, status = healthz(t, down)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "connection refused", status["series_store"])
}

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
}

func TestHandlers_SkipNilAndCORSPolicy(t *testing.T) {
	ping := func(s *Server) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(echo.HeaderOrigin, "https://brent.example")
		rec := httptest.NewRecorder()
		s.echo.ServeHTTP(rec, req)
		return rec
	}

	s := NewServer(Handlers{nil, pingHandler{}}, WithMetrics(false, 0),
		WithCORS(true, middleware.CORSConfig{AllowOrigins: []string{"https://brent.example"}}))
	rec := ping(s)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, "https://brent.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	s = NewServer(Handlers{pingHandler{}}, WithMetrics(false, 0), WithCORS(false, middleware.CORSConfig{}))
	rec = ping(s)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
