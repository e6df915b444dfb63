package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"BrentCast/internal/domain/models"
	apimetrics "BrentCast/internal/service/metrics"
	"BrentCast/internal/usecase"
	xhttp "BrentCast/pkg/http"
	xlogger "BrentCast/pkg/logger"
	"BrentCast/pkg/util"
)

// SeriesEchoHandler serves the historical series and its derived statistics.
type SeriesEchoHandler struct {
	logger *xlogger.Logger
	series *usecase.SeriesUseCase
}

func NewSeriesEchoHandler(logger *xlogger.Logger, series *usecase.SeriesUseCase) *SeriesEchoHandler {
	return &SeriesEchoHandler{logger: logger, series: series}
}

func (h *SeriesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/series")
	g.GET("", h.History)
	g.GET("/moving-averages", h.MovingAverages)
	g.GET("/monthly-change", h.MonthlyChange)
	g.GET("/events", h.Events)
	g.POST("/refresh", h.Refresh)
}

func (h *SeriesEchoHandler) History(c echo.Context) error {
	start := time.Now()
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.series.History(c.Request().Context(), req.Years)
	if err != nil {
		return h.fail(c, "series", err)
	}
	if req.From != "" {
		from, ok := util.ParseDate(req.From)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid from date %q", req.From))
		}
		res = res.Since(from)
	}
	observe("series", start)
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.ListResponse(c, res, int64(len(res)))
}

func (h *SeriesEchoHandler) MovingAverages(c echo.Context) error {
	start := time.Now()
	req := &models.MovingAverageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.series.MovingAverages(c.Request().Context(), req.Windows, req.Years)
	if err != nil {
		return h.fail(c, "moving_averages", err)
	}
	observe("moving_averages", start)
	return xhttp.SuccessResponse(c, res)
}

func (h *SeriesEchoHandler) MonthlyChange(c echo.Context) error {
	start := time.Now()
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.series.MonthlyChanges(c.Request().Context(), req.Years)
	if err != nil {
		return h.fail(c, "monthly_change", err)
	}
	observe("monthly_change", start)
	return xhttp.ListResponse(c, res, int64(len(res)))
}

func (h *SeriesEchoHandler) Events(c echo.Context) error {
	start := time.Now()
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.series.Events(c.Request().Context(), req.Years)
	if err != nil {
		return h.fail(c, "events", err)
	}
	observe("events", start)
	return xhttp.SuccessResponse(c, res)
}

func (h *SeriesEchoHandler) Refresh(c echo.Context) error {
	start := time.Now()
	res, err := h.series.RefreshSummary(c.Request().Context())
	if err != nil {
		return h.fail(c, "refresh", err)
	}
	observe("refresh", start)
	return xhttp.SuccessResponse(c, res)
}

func (h *SeriesEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	apimetrics.APIErrors.WithLabelValues(endpoint).Inc()
	if h.logger != nil {
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, toAppError(err))
}

func observe(endpoint string, start time.Time) {
	apimetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
