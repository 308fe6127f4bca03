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

	"github.com/sellerops/backend/internal/application/push"
	appsync "github.com/sellerops/backend/internal/application/sync"
	"github.com/sellerops/backend/internal/domain/integration"
	"github.com/sellerops/backend/internal/infrastructure/cache"
	"github.com/sellerops/backend/internal/infrastructure/config"
	"github.com/sellerops/backend/internal/infrastructure/logger"
	"github.com/sellerops/backend/internal/infrastructure/marketplace"
	"github.com/sellerops/backend/internal/infrastructure/persistence"
	"github.com/sellerops/backend/internal/infrastructure/scheduler"
	"github.com/sellerops/backend/internal/infrastructure/vault"
	"github.com/sellerops/backend/internal/interfaces/http/handler"
	"github.com/sellerops/backend/internal/interfaces/http/middleware"
	"github.com/sellerops/backend/internal/interfaces/http/router"
)

//	@title			SellerOps Integration API
//	@version		1.0
//	@description	Marketplace integration layer for Coupang and Naver SmartStore: inbound order/inquiry sync and outbound tracking/reply push with a full audit trail.

//	@contact.name	API Support
//	@contact.url	https://github.com/sellerops/backend

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
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting SellerOps Integration Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

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

	// Credential decryption. Without a master key only legacy plaintext
	// credentials are usable; config validation already rejects this in
	// production.
	var decrypter push.SecretDecrypter
	if cfg.Vault.MasterKey != "" {
		v, err := vault.New(cfg.Vault.MasterKey)
		if err != nil {
			log.Fatal("Failed to initialize credential vault", zap.Error(err))
		}
		decrypter = v
	} else {
		log.Warn("No vault master key configured, encrypted credentials will be rejected")
		decrypter = vault.NewPassthrough()
	}

	// Caches. Redis keeps tokens and idempotency keys shared across
	// instances; the factory falls back to process-local stores when it
	// cannot reach Redis.
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	tokenCache, err := cacheFactory.TokenCache()
	if err != nil {
		log.Fatal("Failed to initialize token cache", zap.Error(err))
	}
	idempotencyStore, err := cacheFactory.IdempotencyStore()
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Marketplace gateways
	var gateways []integration.MarketGateway
	if cfg.Policy.MockEnabled {
		log.Warn("Mock gateways enabled, no marketplace traffic will leave this process")
		gateways = []integration.MarketGateway{
			marketplace.NewMockGateway(integration.MarketCodeCoupang),
			marketplace.NewMockGateway(integration.MarketCodeSmartStore),
		}
	} else {
		exec := marketplace.NewExecutor(marketplace.NewPolicy(cfg.Policy.MaxRetries, cfg.Policy.RetryBaseDelayMs))

		coupangCfg := marketplace.NewCoupangConfig()
		if cfg.Market.CoupangBaseURL != "" {
			coupangCfg.APIBaseURL = cfg.Market.CoupangBaseURL
		}
		coupangCfg.TimeoutSeconds = cfg.Market.TimeoutSeconds
		coupangCfg.PageSize = cfg.Market.PageSize
		coupang, err := marketplace.NewCoupangGateway(coupangCfg, exec)
		if err != nil {
			log.Fatal("Failed to initialize Coupang gateway", zap.Error(err))
		}

		smartstoreCfg := marketplace.NewSmartStoreConfig()
		if cfg.Market.SmartStoreBaseURL != "" {
			smartstoreCfg.APIBaseURL = cfg.Market.SmartStoreBaseURL
		}
		smartstoreCfg.TimeoutSeconds = cfg.Market.TimeoutSeconds
		smartstoreCfg.PageSize = cfg.Market.PageSize
		smartstore, err := marketplace.NewSmartStoreGateway(smartstoreCfg, exec, tokenCache)
		if err != nil {
			log.Fatal("Failed to initialize SmartStore gateway", zap.Error(err))
		}

		gateways = []integration.MarketGateway{coupang, smartstore}
	}

	registry, err := marketplace.NewRegistry(gateways...)
	if err != nil {
		log.Fatal("Failed to build gateway registry", zap.Error(err))
	}

	// Initialize repositories
	credentialRepo := persistence.NewGormMarketCredentialRepository(db.DB)
	courierRepo := persistence.NewGormCourierCompanyRepository(db.DB)
	auditLogRepo := persistence.NewGormPushAuditLogRepository(db.DB)
	orderRepo := persistence.NewGormMarketOrderRepository(db.DB)
	inquiryRepo := persistence.NewGormMarketInquiryRepository(db.DB)

	// Initialize application services
	trackingService := push.NewTrackingPushService(
		credentialRepo, courierRepo, auditLogRepo, registry, decrypter,
		cfg.Policy.PushEnabled, cfg.Policy.DefaultCourier, log,
	)
	replyService := push.NewReplyPushService(
		credentialRepo, auditLogRepo, registry, decrypter,
		cfg.Policy.PushEnabled, log,
	)
	retryService := push.NewRetryQueueService(auditLogRepo, trackingService, replyService, log)

	orderSyncService := appsync.NewOrderSyncService(
		credentialRepo, orderRepo, registry, decrypter,
		marketplace.NormalizeOrders,
		cfg.Sync.LookbackMinutes, cfg.Sync.PageCap, cfg.Market.PageSize, log,
	)
	inquirySyncService := appsync.NewInquirySyncService(
		credentialRepo, inquiryRepo, registry, decrypter,
		marketplace.NormalizeInquiries,
		cfg.Sync.LookbackMinutes, cfg.Sync.PageCap, cfg.Market.PageSize, log,
	)

	// Background sync scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewMarketSyncExecutor(orderSyncService, inquirySyncService, log)
		syncScheduler, err := scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
			Enabled:    true,
			Workers:    cfg.Scheduler.Workers,
			JobTimeout: time.Duration(cfg.Scheduler.JobTimeoutMinutes) * time.Minute,
			QueueSize:  100,
		}, executor, log)
		if err != nil {
			log.Fatal("Failed to build sync scheduler", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := syncScheduler.Stop(ctx); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()

		trigger := scheduler.NewSyncTrigger(scheduler.SyncTriggerConfig{
			CheckInterval:       time.Minute,
			OrderSyncInterval:   time.Duration(cfg.Scheduler.OrderIntervalMinutes) * time.Minute,
			InquirySyncInterval: time.Duration(cfg.Scheduler.InquiryIntervalMinutes) * time.Minute,
		}, syncScheduler, credentialRepo, log)
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
		defer trigger.Stop()

		log.Info("Background sync scheduler started",
			zap.Int("workers", cfg.Scheduler.Workers),
			zap.Int("order_interval_minutes", cfg.Scheduler.OrderIntervalMinutes),
			zap.Int("inquiry_interval_minutes", cfg.Scheduler.InquiryIntervalMinutes),
		)
	}

	// Initialize HTTP handlers
	pushHandler := handler.NewPushHandler(trackingService, replyService, retryService)
	syncHandler := handler.NewSyncHandler(orderSyncService, inquirySyncService)
	auditHandler := handler.NewAuditHandler(auditLogRepo)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. CORS - Handle cross-origin requests
	// 5. BodyLimit - Limit request body size
	// 6. Idempotency - Reject replayed push submissions
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORS(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Idempotency(idempotencyStore, 24*time.Hour))

	// Health check endpoint (outside the API group, no auth expected)
	engine.GET("/health", healthHandler(db))

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(pushHandler).
		Register(syncHandler).
		Register(auditHandler).
		Register(systemHandler)
	r.Setup()

	// Simple ping at root API level for basic liveness checks
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

		stats, err := db.Stats()
		if err != nil {
			reqLog.Warn("Failed to read connection stats", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
			"db_pool": gin.H{
				"open":    stats.OpenConnections,
				"in_use":  stats.InUse,
				"idle":    stats.Idle,
				"max":     stats.MaxOpenConnections,
				"waiting": stats.WaitCount,
			},
		})
	}
}
