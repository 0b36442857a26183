package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unlockify/contentgen/config"
	"github.com/unlockify/contentgen/pkg/ai/llm"
	"github.com/unlockify/contentgen/pkg/ai/media"
	"github.com/unlockify/contentgen/pkg/api/handlers"
	"github.com/unlockify/contentgen/pkg/assets"
	"github.com/unlockify/contentgen/pkg/cache"
	"github.com/unlockify/contentgen/pkg/database"
	"github.com/unlockify/contentgen/pkg/generation"
	"github.com/unlockify/contentgen/pkg/history"
	"github.com/unlockify/contentgen/pkg/jobs"
	"github.com/unlockify/contentgen/pkg/logger"
	"github.com/unlockify/contentgen/pkg/metrics"
	custommw "github.com/unlockify/contentgen/pkg/middleware"
	"github.com/unlockify/contentgen/pkg/profile"
	"github.com/unlockify/contentgen/pkg/quota"
	"github.com/unlockify/contentgen/pkg/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	appLogger := logger.New(cfg.LogLevel)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database
	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	redisClient.Metrics = prometheusMetrics
	log.Printf("✅ Prometheus metrics initialized")

	// Text capability: provider selected by AI_PROVIDER
	var textGenerator generation.TextGenerator
	switch cfg.AIProvider {
	case "openai":
		textGenerator, err = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		})
	default:
		textGenerator, err = llm.NewGeminiClient(llm.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiTextModel,
			Timeout: time.Duration(cfg.GenerationTimeout) * time.Second,
		})
	}
	if err != nil {
		log.Fatalf("❌ Failed to initialize text capability (%s): %v", cfg.AIProvider, err)
	}
	log.Printf("✅ Text capability ready (provider: %s)", cfg.AIProvider)

	// Media capabilities (image, video, audio)
	mediaClient, err := media.NewClient(media.Config{
		APIKey:          cfg.GeminiAPIKey,
		BaseURL:         cfg.GeminiBaseURL,
		ImageModel:      cfg.GeminiImageModel,
		VideoModel:      cfg.GeminiVideoModel,
		SpeechModel:     cfg.GeminiSpeechModel,
		PollMaxAttempts: cfg.VideoPollMaxAttempts,
		PollInitial:     time.Duration(cfg.VideoPollInitialMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize media capabilities: %v", err)
	}

	// Optional S3 storage for generated assets
	var uploader assets.Uploader
	if cfg.StorageType == "s3" {
		s3Uploader, err := storage.NewUploader(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			log.Fatalf("❌ Failed to initialize S3 storage: %v", err)
		}
		uploader = s3Uploader
		log.Printf("✅ S3 asset storage enabled (bucket: %s)", cfg.S3Bucket)
	} else {
		log.Printf("ℹ️  Assets served inline (STORAGE_TYPE=%s)", cfg.StorageType)
	}

	// Core services
	quotaLimiter := quota.New(redisClient, cfg.FreeDailyLimit)
	profileService := profile.NewService(db.DB, appLogger).WithMetrics(prometheusMetrics)
	historyService := history.NewService(db.DB, appLogger).WithMetrics(prometheusMetrics)
	assetService := assets.NewService(mediaClient, uploader, appLogger)

	orchestrator := generation.NewOrchestrator(textGenerator, quotaLimiter, appLogger,
		generation.WithCallTimeout(time.Duration(cfg.GenerationTimeout)*time.Second),
		generation.WithBackoff(time.Duration(cfg.RetryBackoffMs)*time.Millisecond),
		generation.WithMetrics(prometheusMetrics),
	)

	// Nightly history retention purge + pool gauge refresh
	cronManager := jobs.NewCronManager(historyService, cfg.HistoryRetention, nil)
	cronManager.MonitorDBPool(db.Stats, prometheusMetrics)
	if err := cronManager.SetupJobs(); err != nil {
		log.Fatalf("❌ Failed to set up cron jobs: %v", err)
	}
	cronManager.Start()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	tierRateLimiter := custommw.NewTierRateLimiter()

	// Global middleware
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echomw.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(echomw.CORSWithConfig(custommw.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(echomw.Gzip())
	e.Use(custommw.SecurityHeaders(custommw.SecurityHeadersConfig{}))

	// Root and health endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "Unlockify Content API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}
		if err := redisClient.Redis.Ping(ctx).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"cache":  "down",
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"cache":    "up",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Handlers
	generateHandler := handlers.NewGenerateHandler(orchestrator, quotaLimiter, historyService, appLogger)
	assetsHandler := handlers.NewAssetsHandler(assetService, prometheusMetrics)
	profileHandler := handlers.NewProfileHandler(profileService, prometheusMetrics, appLogger)
	historyHandler := handlers.NewHistoryHandler(historyService, prometheusMetrics)

	// Authenticated API routes
	v1 := e.Group("/api/v1")
	v1.Use(custommw.JWTMiddleware(cfg.JWTSecret))
	v1.Use(tierRateLimiter.Middleware())

	v1.POST("/generate", generateHandler.Generate)
	v1.GET("/quota", generateHandler.Quota)

	assetsGroup := v1.Group("/assets")
	{
		assetsGroup.POST("/image", assetsHandler.Image)
		assetsGroup.POST("/video", assetsHandler.Video)
		assetsGroup.POST("/audio", assetsHandler.Audio)
	}

	v1.GET("/profile", profileHandler.Get)
	v1.PUT("/profile", profileHandler.Update)
	v1.POST("/profile/upgrade", profileHandler.Upgrade)

	v1.GET("/history", historyHandler.List)
	v1.DELETE("/history/:id", historyHandler.Delete)
	v1.GET("/history/export", historyHandler.Export)

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 Unlockify Content API starting on %s", address)
	log.Printf("🤖 AI provider: %s (free daily limit: %d)", cfg.AIProvider, cfg.FreeDailyLimit)
	log.Printf("⏰ Cron jobs: Daily 3AM history purge (retention: %d days)", cfg.HistoryRetention)

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	cronManager.Stop()
	log.Println("✅ Cron jobs stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
