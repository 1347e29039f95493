package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/api/handler"
	"github.com/heartspace/web-gateway/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the same envelope the data endpoints use, with isSuccess=false.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, fields := resolveError(err, log, c)
		env := domain.Fail[any](code, msg, fields...)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, env)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, []string) {
	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, "validation failed", ve.Fields
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrNoRefreshToken),
		errors.Is(err, domain.ErrTokenUnreadable):
		return http.StatusUnauthorized, "authentication required", nil
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden", nil
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "resource not found", nil
	case errors.Is(err, domain.ErrAlreadyAuthenticated):
		return http.StatusConflict, "already signed in", nil
	case errors.Is(err, domain.ErrLoginInProgress):
		return http.StatusConflict, "login already in progress", nil
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, err.Error(), nil
	case errors.Is(err, domain.ErrUnknownContinuation):
		return http.StatusBadRequest, err.Error(), nil
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error", nil
}
