package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	transferapp "github.com/crmportal/backend/internal/application/transfer"
	"github.com/crmportal/backend/internal/infrastructure/bitrix"
	"github.com/crmportal/backend/internal/infrastructure/cache"
	"github.com/crmportal/backend/internal/infrastructure/config"
	"github.com/crmportal/backend/internal/infrastructure/logger"
	"github.com/crmportal/backend/internal/infrastructure/persistence"
	"github.com/crmportal/backend/internal/infrastructure/storage"
	"github.com/crmportal/backend/internal/infrastructure/telemetry"
	"github.com/crmportal/backend/internal/interfaces/http/handler"
	"github.com/crmportal/backend/internal/interfaces/http/middleware"
	"github.com/crmportal/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting transfer service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.DB.Use(otelgorm.NewPlugin()); err != nil {
		log.Warn("Failed to enable database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Company cache: Redis when reachable, in-process otherwise
	var companyCache transferapp.CompanyCache
	redisClient, err := cache.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-process company cache", zap.Error(err))
		companyCache = cache.NewMemoryCompanyCache()
	} else {
		defer func() {
			_ = redisClient.Close()
		}()
		companyCache = cache.NewRedisCompanyCache(redisClient, cfg.Redis.CompanyCacheTTL, log)
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}

	// Export artifact store
	var artifactStore transferapp.ArtifactStore
	if cfg.Storage.Provider == "s3" {
		s3Store, err := storage.NewS3ArtifactStore(&cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize artifact store", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure artifact bucket", zap.Error(err))
		}
		artifactStore = s3Store
		log.Info("S3 artifact store ready", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		artifactStore = storage.NewMemoryArtifactStore()
		log.Warn("Using in-memory artifact store, export files do not survive restarts")
	}

	// Remote CRM gateway
	crmClient := bitrix.NewClient(cfg.Bitrix.WebhookURL, cfg.Bitrix.RequestTimeout, log)
	gateway := transferapp.NewContactGateway(crmClient, companyCache, cfg.Bitrix, log)

	// Repositories and orchestrator
	jobRepo := persistence.NewGormJobRepository(db.DB)
	recordRepo := persistence.NewGormRecordRepository(db.DB)
	orchestrator := transferapp.NewOrchestrator(jobRepo, recordRepo, gateway, artifactStore, cfg.Bitrix, log)

	// Fail jobs interrupted by a previous shutdown
	if swept, err := orchestrator.SweepStale(ctx); err != nil {
		log.Error("Failed to sweep stale jobs", zap.Error(err))
	} else if swept > 0 {
		log.Info("Swept stale jobs", zap.Int64("count", swept))
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.OwnerScope())
	r.Register(handler.NewTransferHandler(orchestrator))
	r.Setup()

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
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
