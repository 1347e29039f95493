package middleware

import (
	"fmt"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

// RBAC admits only sessions holding one of roles. It must run after Auth,
// which stamps the session role on the context.
func RBAC(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := domain.Role(roleOf(c))
			if !slices.Contains(roles, role) {
				return fmt.Errorf("%s %s as %q: %w", c.Request().Method, c.Path(), role, domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

func roleOf(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok {
		return role
	}
	if ac := AuthContextFrom(c); ac != nil && ac.Store.IsAuthenticated() {
		return string(ac.Store.Snapshot().Role())
	}
	return ""
}
