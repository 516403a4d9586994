package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/tillcore-backend/api/routes"
	"github.com/angelmondragon/tillcore-backend/internal/analytics"
	"github.com/angelmondragon/tillcore-backend/internal/auth"
	"github.com/angelmondragon/tillcore-backend/internal/checkout"
	"github.com/angelmondragon/tillcore-backend/internal/inventory"
	product "github.com/angelmondragon/tillcore-backend/internal/products"
	"github.com/angelmondragon/tillcore-backend/internal/sales"
	"github.com/angelmondragon/tillcore-backend/internal/sessiongate"
	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	"github.com/angelmondragon/tillcore-backend/pkg/auth/session"
	"github.com/angelmondragon/tillcore-backend/pkg/config"
	"github.com/angelmondragon/tillcore-backend/pkg/db"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
	"github.com/angelmondragon/tillcore-backend/pkg/metrics"
	"github.com/angelmondragon/tillcore-backend/pkg/migrate"
	"github.com/angelmondragon/tillcore-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	requireResource(logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	conn := dbClient.DB()
	tenantRepo := tenants.NewRepository(conn)
	recorder := sales.NewRecorder(conn)
	ledger := inventory.NewLedger(conn, inventory.NewLocker())
	gate := sessiongate.NewGate(sessiongate.RoutesFromConfig(cfg.Session))

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(logg, "session manager", err)

	tenantService, err := tenants.NewService(tenants.ServiceParams{
		DB:             dbClient,
		Repo:           tenantRepo,
		TenantConfig:   cfg.Tenant,
		PasswordConfig: cfg.Password,
	})
	requireResource(logg, "tenant service", err)

	resolver, err := sessiongate.NewResolver(tenantService)
	requireResource(logg, "session resolver", err)

	authService, err := auth.NewService(auth.ServiceParams{
		Staff:          tenantRepo,
		Directory:      tenantService,
		SessionManager: sessionManager,
		Gate:           gate,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	requireResource(logg, "auth service", err)

	productService, err := product.NewService(product.ServiceParams{
		DB:       dbClient,
		Repo:     product.NewRepository(conn),
		Ledger:   ledger,
		Branches: tenantRepo,
	})
	requireResource(logg, "product service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		DB:       dbClient,
		Ledger:   ledger,
		Recorder: recorder,
		Tenants:  tenantRepo,
		Metrics:  metrics.NewCheckoutMetrics(registry),
		Logger:   logg,
	})
	requireResource(logg, "checkout service", err)

	analyticsService, err := analytics.NewService(recorder, nil)
	requireResource(logg, "analytics service", err)

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:          dbClient,
		Redis:       redisClient,
		Sessions:    sessionManager,
		Resolver:    resolver,
		Gate:        gate,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Gatherer:    registry,
		Auth:        authService,
		Tenants:     tenantService,
		Products:    productService,
		Checkout:    checkoutService,
		Sales:       recorder,
		Analytics:   analyticsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "resource not working: "+resource, err)
	os.Exit(1)
}
