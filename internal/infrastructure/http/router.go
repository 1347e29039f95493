package http

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/heartspace/web-gateway/docs"
	"github.com/heartspace/web-gateway/internal/infrastructure/http/handlers"
)

// RegisterOps mounts the operational endpoints: probes, Prometheus
// metrics and the Swagger UI. None of them require a session.
func RegisterOps(e *echo.Echo, checks map[string]handlers.Check) {
	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(checks)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}

// IsOpsPath reports whether path is served by RegisterOps. The request
// metrics and session middleware skip these.
func IsOpsPath(path string) bool {
	switch path {
	case "/health", "/health/ready", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/swagger/")
}
