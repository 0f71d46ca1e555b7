package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Arielpetit/UDM/internal/analytics"
	"github.com/Arielpetit/UDM/internal/caching"
	"github.com/Arielpetit/UDM/internal/config"
	"github.com/Arielpetit/UDM/internal/handlers"
	"github.com/Arielpetit/UDM/internal/jobs"
	"github.com/Arielpetit/UDM/internal/jobs/background"
	"github.com/Arielpetit/UDM/internal/middleware"
	"github.com/Arielpetit/UDM/internal/repositories"
	"github.com/Arielpetit/UDM/internal/services"
	"github.com/Arielpetit/UDM/pkg/database"
	"github.com/Arielpetit/UDM/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database.URL, database.Options{
		MaxConns:     cfg.Database.MaxConns,
		PasswordFile: cfg.Database.PasswordFile,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	// An empty REDIS_ADDR runs without a cache; reads go straight to the store.
	var cacheBackend caching.CacheService
	if cfg.Redis.Addr != "" {
		cacheBackend = caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.OpTimeout, log)
		defer func() { _ = cacheBackend.Close() }()
	}
	listCache := caching.NewListCache(cacheBackend, cfg.Cache.TTL, log)

	var objectStore services.ObjectStore
	if cfg.Minio.Enabled() {
		objectStore, err = services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize MinIO service")
		}
		if err := objectStore.EnsureBucketExists(ctx); err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.Minio.Bucket).Msg("failed to ensure export bucket")
		}
	} else {
		log.Warn().Msg("MinIO not configured, export publishing disabled")
	}

	// Services
	engine := services.NewMovementEngine(pool, listCache, log)
	inventorySvc := services.NewInventoryService(pool, engine, listCache, log)
	supplierSvc := services.NewSupplierService(repositories.NewSupplierRepository(pool), listCache, log)
	purchaseOrderSvc := services.NewPurchaseOrderService(pool, engine, log)
	locationSvc := services.NewLocationService(pool, log)
	importExportSvc := services.NewImportExportService(inventorySvc, objectStore, cfg.Import.MaxErrors, log)
	analyticsSvc := analytics.NewAnalyticsService(pool, listCache, log)

	scheduler, err := background.NewJobScheduler(
		jobs.NewInventoryAlertService(analyticsSvc, log),
		jobs.NewAnalyticsRefreshService(analyticsSvc, log),
		background.Intervals{LowStock: cfg.Jobs.LowStockInterval, Metrics: cfg.Jobs.MetricsInterval},
		log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create job scheduler")
	}
	scheduler.Start()

	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		JWKSURL:   cfg.Auth.JWKSURL,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure authentication")
	}
	defer auth.Close()
	if !cfg.Auth.Enabled() {
		log.Warn().Msg("no JWT secret or JWKS URL configured, mutating routes are unauthenticated")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = log.Error().Err(v.Error)
			}
			event.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{AllowOrigins: cfg.HTTP.CORSAllowOrigins}))
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.RequestMetrics())

	versionMiddleware := middleware.NewVersionMiddleware()

	// Health endpoints (no auth required)
	dbPinger := handlers.DatabasePinger(func(ctx context.Context, sql string) error {
		_, err := pool.Exec(ctx, sql)
		return err
	})
	handlers.RegisterHealth(e, handlers.NewHealthHandlers(dbPinger, listCache, version))

	if cfg.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	router := &handlers.Router{
		Inventory:      handlers.NewInventoryHandlers(inventorySvc, engine, locationSvc),
		Suppliers:      handlers.NewSupplierHandlers(supplierSvc),
		PurchaseOrders: handlers.NewPurchaseOrderHandlers(purchaseOrderSvc),
		Locations:      handlers.NewLocationHandlers(locationSvc),
		Analytics:      handlers.NewAnalyticsHandlers(analyticsSvc),
		ImportExport:   handlers.NewImportExportHandlers(importExportSvc),
	}
	v1 := versionMiddleware.VersionRoute(e, versionMiddleware.GetCurrentVersion())
	router.Register(v1, auth.Middleware())

	go func() {
		log.Info().Str("version", version).Str("port", cfg.HTTP.Port).Msg("inventory server starting")
		if err := e.Start(":" + cfg.HTTP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := scheduler.Stop(); err != nil {
		log.Error().Err(err).Msg("job scheduler shutdown failed")
	}
}
