package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// Auth rejects requests whose browser context holds no live session.
// It must run after Session.
func Auth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac := AuthContextFrom(c)
			if ac == nil || !ac.Store.IsAuthenticated() {
				return fmt.Errorf("%s %s: %w", c.Request().Method, c.Path(), domain.ErrUnauthenticated)
			}

			sess := ac.Store.Snapshot()
			c.Set("user_id", sess.UserID())
			c.Set("role", string(sess.Role()))

			return next(c)
		}
	}
}
