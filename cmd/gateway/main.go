// @title        HeartSpace Web Gateway
// @version      1.0
// @description  Session-aware gateway between the HeartSpace web client and the consultation backend.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heartspace/web-gateway/internal/api"
	"github.com/heartspace/web-gateway/internal/core/service"
	"github.com/heartspace/web-gateway/internal/infrastructure/backend"
	mongodb "github.com/heartspace/web-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/heartspace/web-gateway/internal/infrastructure/db/redis"
	"github.com/heartspace/web-gateway/internal/infrastructure/http/handlers"
	"github.com/heartspace/web-gateway/internal/infrastructure/queue"
	"github.com/heartspace/web-gateway/internal/pkg/config"
	"github.com/heartspace/web-gateway/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "web-gateway",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "heartspace-web-gateway",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ClientName: "heartspace-web-gateway",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}()

	// --- Audit trail ---
	eventRepo := mongodb.NewSessionEventRepository(db)
	if err := eventRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("audit index creation failed")
	}
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, service.NewSessionEventService(eventRepo, logger.Component("audit")), logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)

	// --- Backend ---
	client := backend.NewClient(backend.Config{BaseURL: cfg.Backend.URL, Timeout: cfg.Backend.Timeout}, logger.Component("backend"))
	cached := backend.NewCachedBackend(client, redisdb.NewQueryCache(rdb), cfg.Cache.QueryTTL, logger.Component("query_cache"))

	// --- Services ---
	tokens := service.NewTokenDecoder(cfg.JWTSecret)
	appointments := service.NewAppointmentService(cached, cached, cfg.Backend.DetailTimeout, logger.Component("appointments"))
	catalog := service.NewCatalogService(cached)
	finance := service.NewFinanceService(cached, cached, logger.Component("finance"))
	sessions := service.NewSessionService(cached, tokens, logger.Component("auth"))

	registry := service.NewContinuationRegistry()
	registry.Register(service.ActionBookAppointment, appointments.BookContinuation())

	cookies := service.NewCookiePolicy(service.CookieConfig{
		AccessName:   cfg.Cookies.AccessName,
		RefreshName:  cfg.Cookies.RefreshName,
		RememberName: cfg.Cookies.RememberName,
		ContextName:  cfg.Cookies.ContextName,
		Domain:       cfg.Cookies.Domain,
		Secure:       cfg.Cookies.Secure,
		CrossSite:    cfg.Cookies.CrossSite,
	})
	authContexts := service.NewAuthContextFactory(
		cookies,
		tokens,
		redisdb.NewPendingAuthStore(rdb, cfg.Cache.PendingAuthTTL),
		registry,
		logger.Component("auth_gate"),
		service.AuditSubscriber(dispatcher),
	)

	e := api.NewRouter(api.Deps{
		Sessions:     sessions,
		Appointments: appointments,
		Catalog:      catalog,
		Finance:      finance,
		AuthContexts: authContexts,
		Checks: map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
		Log: logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("backend", cfg.Backend.URL).Msg("gateway starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("audit queue not drained, abandoning remaining events")
	}
	cancelWorkers()
	dispatcher.Wait()
	log.Info().Msg("gateway stopped")
}
