package api

import (
	"context"
	"errors"

	domrepo "BrentCast/internal/domain/repository"
	domsvc "BrentCast/internal/domain/service"
	"BrentCast/internal/services/forecast"
	"BrentCast/internal/usecase"
	xhttp "BrentCast/pkg/http"
)

// toAppError maps use case failures onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domsvc.ErrUnknownModel):
		return xhttp.NotFoundError("unknown model").WithError(err)
	case errors.Is(err, domrepo.ErrSeriesNotFound):
		return xhttp.NotFoundError("price series not available").WithError(err)
	case errors.Is(err, domsvc.ErrInsufficientHistory):
		return xhttp.UnprocessableError("not enough history for this model").WithError(err)
	case errors.Is(err, forecast.ErrStepBudgetExceeded):
		return xhttp.UnprocessableError("horizon exceeds the configured step budget").WithError(err)
	case errors.Is(err, forecast.ErrInvalidParams):
		return xhttp.BadRequestError("invalid forecast parameters").WithError(err)
	case errors.Is(err, domsvc.ErrNonFiniteForecast):
		return xhttp.BadGatewayError("model produced a non-finite prediction").WithError(err)
	case errors.Is(err, usecase.ErrSourceUnavailable):
		return xhttp.BadGatewayError("price source unavailable").WithError(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return xhttp.UnavailableError("forecast timed out").WithError(err)
	case errors.Is(err, domsvc.ErrNotFitted), errors.Is(err, domsvc.ErrShapeMismatch):
		return xhttp.InternalError("model artifacts are inconsistent").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
