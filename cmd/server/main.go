package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	reconcileapp "github.com/erp/reconcile/internal/application/reconcile"
	"github.com/erp/reconcile/internal/domain/reconcile"
	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/erp/reconcile/internal/infrastructure/cache"
	"github.com/erp/reconcile/internal/infrastructure/config"
	"github.com/erp/reconcile/internal/infrastructure/event"
	"github.com/erp/reconcile/internal/infrastructure/logger"
	"github.com/erp/reconcile/internal/infrastructure/persistence"
	"github.com/erp/reconcile/internal/infrastructure/storage"
	"github.com/erp/reconcile/internal/infrastructure/telemetry"
	"github.com/erp/reconcile/internal/infrastructure/timesource"
	"github.com/erp/reconcile/internal/interfaces/http/handler"
	"github.com/erp/reconcile/internal/interfaces/http/middleware"
	"github.com/erp/reconcile/internal/interfaces/http/router"
)

//	@title			Reconciliation Engine API
//	@version		1.0
//	@description	Return and exchange reconciliation engine: delivery ledger, eligibility window, debit memos

//	@contact.name	API Support
//	@contact.url	https://github.com/erp/reconcile

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting reconciliation engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register database query tracing
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: cfg.App.Env == "production",
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	auditRepo := persistence.NewGormAuditEntryRepository(db.DB)
	serialInventory := persistence.NewGormSerialInventory(db.DB)

	// Clock source: the remote authority when configured, the local
	// clock otherwise. AuthorityClock falls back to local readings
	// flagged unverified when the authority is unreachable.
	var clock reconcile.Clock
	if cfg.TimeSource.AuthorityURL != "" {
		clock = timesource.NewAuthorityClock(cfg.TimeSource, log)
		log.Info("Using remote time authority", zap.String("url", cfg.TimeSource.AuthorityURL))
	} else {
		clock = timesource.NewSystemClock()
		log.Info("No time authority configured, using system clock")
	}

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Stock movement requests are relayed to the inventory collaborator.
	// With the Redis stream enabled they go over a durable stream;
	// otherwise they are logged for development setups.
	var stockAppender reconcileapp.StreamAppender
	if cfg.Event.UseRedisStream {
		redisAppender, err := event.NewRedisStreamAppender(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect stock request stream", zap.Error(err))
		}
		defer func() {
			if err := redisAppender.Close(); err != nil {
				log.Error("Error closing stock request stream", zap.Error(err))
			}
		}()
		stockAppender = redisAppender
	} else {
		stockAppender = event.NewLogStreamAppender(log)
	}

	stockRelay := reconcileapp.NewStockRelayHandler(stockAppender, cfg.Event.StreamName, log)
	eventBus.Subscribe(stockRelay)
	log.Info("Stock relay registered", zap.Strings("event_types", stockRelay.EventTypes()))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	reconcileService := reconcileapp.NewService(orderRepo, auditRepo, serialInventory, clock, log)
	reconcileService.SetEventPublisher(eventBus)

	// Evidence storage: presigned S3 URLs when configured, inert stub otherwise
	var objectStorage reconcileapp.ObjectStorageService
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiry),
		)
		if err != nil {
			log.Fatal("Failed to initialize evidence storage", zap.Error(err))
		}
		objectStorage = s3Storage
		log.Info("Evidence storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		objectStorage = storage.NewStubObjectStorage()
		log.Info("Evidence storage disabled, using stub")
	}
	evidenceService := reconcileapp.NewEvidenceService(objectStorage, log)

	// Idempotency store for duplicate mutation detection
	var idempotencyStore shared.IdempotencyStore
	if cfg.Idempotency.UseRedis {
		redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect idempotency store", zap.Error(err))
		}
		idempotencyStore = redisStore
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	idempotencyConfig := shared.IdempotencyConfig{
		TTL:     cfg.Idempotency.TTL,
		Enabled: cfg.Idempotency.Enabled,
	}

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(reconcileService)
	evidenceHandler := handler.NewEvidenceHandler(evidenceService)
	systemHandler := handler.NewSystemHandler(clock)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Orders domain: the reconciliation ledger and its mutations.
	// Mutations are guarded by idempotency keys.
	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.Use(middleware.Idempotency(idempotencyStore, idempotencyConfig, log))
	orderRoutes.POST("", orderHandler.RegisterDelivery)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/number/:order_number", orderHandler.GetByOrderNumber)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	orderRoutes.GET("/:id/summary", orderHandler.GetSummary)
	orderRoutes.GET("/:id/eligibility", orderHandler.GetEligibility)
	orderRoutes.GET("/:id/audit-trail", orderHandler.GetAuditTrail)
	orderRoutes.GET("/:id/debit-memo/preview", orderHandler.PreviewDebitMemo)
	orderRoutes.GET("/:id/reset/preview", orderHandler.PreviewResetAll)
	orderRoutes.POST("/:id/returns", orderHandler.ReturnItem)
	orderRoutes.POST("/:id/replacements", orderHandler.ReplaceItem)
	orderRoutes.POST("/:id/complimentary", orderHandler.AddComplimentary)
	orderRoutes.POST("/:id/reset-item", orderHandler.ResetItem)
	orderRoutes.POST("/:id/reset", orderHandler.ResetAll)
	orderRoutes.POST("/:id/lock", orderHandler.Lock)

	// Evidence domain: presigned upload and download URLs for return photos
	evidenceRoutes := router.NewDomainGroup("evidence", "/evidence")
	evidenceRoutes.POST("/upload-url", evidenceHandler.RequestUpload)
	evidenceRoutes.GET("/download-url", evidenceHandler.DownloadURL)

	// System domain
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/clock", systemHandler.GetClockStatus)

	r.Register(orderRoutes).
		Register(evidenceRoutes).
		Register(systemRoutes)

	r.Setup()

	// Simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
