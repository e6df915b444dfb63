package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"BrentCast/internal/domain/models"
	"BrentCast/internal/service/ratelimit"
	apimetrics "BrentCast/internal/service/metrics"
	"BrentCast/internal/usecase"
	xhttp "BrentCast/pkg/http"
	xlogger "BrentCast/pkg/logger"
)

// RateLimit configures the per-IP token bucket in front of forecast routes.
type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// ForecastEchoHandler serves model listings and forecasts.
type ForecastEchoHandler struct {
	logger   *xlogger.Logger
	forecast *usecase.ForecastUseCase
	limiter  *ratelimit.Limiter
	limit    RateLimit
}

func NewForecastEchoHandler(logger *xlogger.Logger, forecast *usecase.ForecastUseCase, limiter *ratelimit.Limiter, limit RateLimit) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, forecast: forecast, limiter: limiter, limit: limit}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/models", h.Models)
	g := e.Group("/api/forecast", ratelimit.Middleware(h.limiter, h.limit.Capacity, h.limit.RefillPerSec))
	g.GET("", h.Forecast)
	g.GET("/csv", h.CSV)
}

func (h *ForecastEchoHandler) Models(c echo.Context) error {
	ms := h.forecast.Models()
	return xhttp.ListResponse(c, ms, int64(len(ms)))
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	start := time.Now()
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.forecast.View(c.Request().Context(), req.Model, req.Horizon, req.HistoryDays)
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	observe("forecast", start)
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) CSV(c echo.Context) error {
	start := time.Now()
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.forecast.Forecast(c.Request().Context(), req.Model, req.Horizon)
	if err != nil {
		return h.fail(c, "forecast_csv", err)
	}
	var buf bytes.Buffer
	if err := usecase.ExportCSV(&buf, res); err != nil {
		return h.fail(c, "forecast_csv", err)
	}
	observe("forecast_csv", start)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", usecase.ExportFilename(res)))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *ForecastEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	apimetrics.APIErrors.WithLabelValues(endpoint).Inc()
	if h.logger != nil {
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, toAppError(err))
}
