package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/heartspace/web-gateway/internal/api/middleware"
	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/service"
)

// authContext returns the AuthContext installed by the Session middleware.
// A missing context means the route was wired without it; fail closed.
func authContext(c echo.Context) (*service.AuthContext, error) {
	ac := middleware.AuthContextFrom(c)
	if ac == nil {
		return nil, fmt.Errorf("%s %s: no auth context: %w", c.Request().Method, c.Path(), domain.ErrUnauthenticated)
	}
	return ac, nil
}

// session returns a snapshot of the caller's session, anonymous when the
// route was reached without the Session middleware.
func session(c echo.Context) domain.Session {
	if ac := middleware.AuthContextFrom(c); ac != nil {
		return ac.Store.Snapshot()
	}
	return domain.Session{State: domain.StateAnonymous}
}

// respond writes env with the HTTP status its code carries. Envelopes
// without a code (the empty-list fallback) are sent as 200.
func respond[T any](c echo.Context, env domain.Envelope[T]) error {
	status := env.Code
	if status < 100 || status > 599 {
		status = http.StatusOK
	}
	return c.JSON(status, env)
}

// bindAndValidate binds the request body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

// rawBody re-encodes v for use as a continuation payload.
func rawBody(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}
