package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timetracker/internal/caching"
	"timetracker/internal/common"
	"timetracker/internal/config"
	"timetracker/internal/handlers"
	"timetracker/internal/jobs/background"
	"timetracker/internal/logger"
	"timetracker/internal/metrics"
	"timetracker/internal/middleware"
	"timetracker/internal/repositories"
	"timetracker/internal/services"
	"timetracker/internal/telemetry"
	"timetracker/pkg/database"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/crypto/bcrypt"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetupDefault(os.Stdout, cfg.LogLevel)
	if cfg.JWTSecretGenerated {
		slog.Warn("JWT_SECRET not set, using a generated secret; tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.OTLPInsecure)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	// Repositories
	companyRepo := repositories.NewCompanyRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	employeeRepo := repositories.NewEmployeeRepo(pool)
	entryRepo := repositories.NewTimeEntryRepo(pool)

	// Cache
	redisClient := caching.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	cacheSvc := caching.NewRedisCacheService(redisClient)
	defer cacheSvc.Close()
	if err := cacheSvc.Ping(ctx); err != nil {
		slog.Warn("redis unavailable, continuing without cache", "addr", cfg.RedisAddr, "error", err)
	}

	// Object storage is optional: codes are still returned inline without it.
	var store services.ObjectStore
	if minioStore, err := services.NewMinioStore(cfg); err != nil {
		slog.Warn("object storage disabled", "error", err)
	} else if err := minioStore.EnsureBucket(ctx); err != nil {
		slog.Warn("object storage disabled", "bucket", cfg.MinioBucket, "error", err)
	} else {
		store = minioStore
	}

	// Services
	policy := services.NewAccessPolicy(recorder)
	creds, err := services.NewCredentialStore(userRepo, bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to create credential store", "error", err)
		os.Exit(1)
	}
	tokens := services.NewTokenService(cfg, creds, recorder)
	authSvc := services.NewAuthService(cfg, creds, tokens, cacheSvc, recorder)
	companySvc := services.NewCompanyService(companyRepo, employeeRepo, cacheSvc, policy)
	userSvc := services.NewUserService(userRepo, companyRepo, creds, policy)
	employeeSvc := services.NewEmployeeService(employeeRepo, companyRepo, cacheSvc, services.NewQRService(), store, cfg.QRLinkTTL, policy)
	entrySvc := services.NewTimeEntryService(entryRepo, employeeRepo, cacheSvc, policy)
	reportSvc := services.NewReportService(entryRepo, companyRepo, cacheSvc, policy, recorder)

	bootstrapper := services.NewBootstrapper(userRepo, companyRepo, employeeRepo, creds)
	if err := bootstrapper.EnsureOwner(ctx, cfg.OwnerUsername, cfg.OwnerPassword); err != nil {
		slog.Error("failed to bootstrap owner", "error", err)
		os.Exit(1)
	}
	if cfg.SeedDemo {
		if err := bootstrapper.SeedDemo(ctx); err != nil {
			slog.Warn("demo seed failed", "error", err)
		}
	}

	// Background jobs
	scheduler, err := background.NewJobScheduler(reportSvc, cfg.SummaryRefreshInterval, cfg.StaleEntryAfter)
	if err != nil {
		slog.Error("failed to create job scheduler", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			slog.Warn("job scheduler shutdown failed", "error", err)
		}
	}()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
	defer limiter.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = common.HTTPErrorHandler

	// Global middleware
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
			}
			slog.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	}))
	e.Use(middleware.Audit(recorder))

	// Health endpoints (no auth required)
	health := handlers.NewHealthHandlers(pool, cacheSvc, version)
	e.GET("/health", health.HealthCheck)
	e.GET("/health/ready", health.ReadinessCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(registry)))

	// API routes
	v1 := middleware.VersionRoute(e, "/api", "v1")
	v1.Use(limiter.Middleware())

	api := &handlers.Handlers{
		Auth:        handlers.NewAuthHandlers(authSvc, creds),
		Companies:   handlers.NewCompanyHandlers(companySvc),
		Users:       handlers.NewUserHandlers(userSvc),
		Employees:   handlers.NewEmployeeHandlers(employeeSvc),
		TimeEntries: handlers.NewTimeEntryHandlers(entrySvc),
		Reports:     handlers.NewReportHandlers(reportSvc),
		Jobs:        handlers.NewJobHandlers(scheduler, policy),
	}
	api.Register(v1, middleware.JWTAuth(tokens))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("timetracker server starting", "version", version, "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
