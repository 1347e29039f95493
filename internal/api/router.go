package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/api/handler"
	"github.com/heartspace/web-gateway/internal/api/middleware"
	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
	"github.com/heartspace/web-gateway/internal/core/service"
	opshttp "github.com/heartspace/web-gateway/internal/infrastructure/http"
	"github.com/heartspace/web-gateway/internal/infrastructure/http/handlers"
)

// Deps are the services the router wires into handlers.
type Deps struct {
	Sessions     handler.SessionService
	Appointments ports.AppointmentService
	Catalog      ports.CatalogService
	Finance      ports.FinanceService
	AuthContexts *service.AuthContextFactory
	Checks       map[string]handlers.Check
	Log          zerolog.Logger
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	skipOps := func(c echo.Context) bool { return opshttp.IsOpsPath(c.Path()) }

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log, skipOps))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "heartspace",
		Subsystem:  "gateway_http",
		Skipper:    skipOps,
		Registerer: d.Registerer,
	}))

	opshttp.RegisterOps(e, d.Checks)

	authHandler := handler.NewAuthHandler(d.Sessions)
	appointmentHandler := handler.NewAppointmentHandler(d.Appointments)
	catalogHandler := handler.NewCatalogHandler(d.Catalog)
	financeHandler := handler.NewFinanceHandler(d.Finance)

	session := middleware.Session(d.AuthContexts)
	auth := middleware.Auth()

	// --- Auth routes ---
	g := e.Group("/auth", session)
	g.POST("/login", authHandler.Login)
	g.POST("/register", authHandler.Register)
	g.POST("/logout", authHandler.Logout)
	g.POST("/refresh", authHandler.Refresh)
	g.GET("/session", authHandler.Session)
	g.GET("/gate", authHandler.GateState)
	g.POST("/gate", authHandler.OpenGate)
	g.DELETE("/gate", authHandler.CloseGate)

	// --- Public catalog ---
	a := e.Group("/api", session)
	a.GET("/consultants", catalogHandler.Consultants)
	a.GET("/consultants/:id", catalogHandler.Consultant)
	a.GET("/consultants/:id/schedules", catalogHandler.Schedules)

	// Booking opens the login dialog itself instead of failing on Auth.
	a.POST("/appointments", appointmentHandler.Book)

	// --- Signed-in routes ---
	a.GET("/profile", catalogHandler.Profile, auth)
	a.GET("/appointments/mine", appointmentHandler.Mine, auth)
	a.GET("/appointments/:id", appointmentHandler.ByID, auth)

	payouts := middleware.RBAC(domain.RoleConsultant, domain.RoleAdmin)
	a.GET("/payment-requests", financeHandler.PaymentRequests, auth, payouts)
	a.POST("/payment-requests", financeHandler.Create, auth, middleware.RBAC(domain.RoleConsultant))

	admin := a.Group("/admin", auth, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/revenue", financeHandler.Revenue)
	admin.PUT("/payment-requests/:id/status", financeHandler.UpdateStatus)

	return e
}

func requestLogger(log zerolog.Logger, skipper echomiddleware.Skipper) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper:      skipper,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
