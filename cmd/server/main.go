package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/crypto-dashboard/internal/cache"
	"github.com/yourorg/crypto-dashboard/internal/client"
	"github.com/yourorg/crypto-dashboard/internal/config"
	"github.com/yourorg/crypto-dashboard/internal/event"
	"github.com/yourorg/crypto-dashboard/internal/handler"
	"github.com/yourorg/crypto-dashboard/internal/middleware"
	"github.com/yourorg/crypto-dashboard/internal/registry"
	"github.com/yourorg/crypto-dashboard/internal/retry"
	"github.com/yourorg/crypto-dashboard/internal/service"
	"github.com/yourorg/crypto-dashboard/internal/storage"
	"github.com/yourorg/crypto-dashboard/internal/synthetic"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Durable storage backs the image registry and the watchlist
	store, err := storage.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	dataCache := cache.NewMemoryCache(cfg.Cache.DefaultTTL)
	images := registry.NewImageRegistry(store, logger)
	generator := synthetic.New()

	// Upstream client with retry policy; rate limits are terminal so the
	// caller can switch to synthetic data immediately
	upstream := client.NewCoinGeckoClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger)
	retryPolicy := retry.NewPolicy(
		cfg.Upstream.MaxAttempts,
		cfg.Upstream.BaseDelay,
		cfg.Upstream.MaxDelay,
		client.IsRateLimited,
	)

	// Provenance events
	var publisher event.Publisher = event.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher := event.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// Initialize services
	marketService := service.NewMarketService(
		upstream,
		dataCache,
		images,
		generator,
		retryPolicy,
		publisher,
		cfg.Cache.DefaultTTL,
		cfg.Cache.SyntheticTTL,
		cfg.Upstream.Currency,
		logger,
	)
	watchlistService := service.NewWatchlistService(store, logger)

	// Initialize handlers
	marketHandler := handler.NewMarketHandler(marketService, logger)
	watchlistHandler := handler.NewWatchlistHandler(watchlistService, marketService, logger)
	imageHandler := handler.NewImageHandler(images, logger)
	cacheHandler := handler.NewCacheHandler(marketService, logger)

	// Optional Redis-backed response cache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis unavailable, response cache disabled", zap.Error(err))
			redisClient = nil
		}
		cancel()
	}

	router := setupRouter(
		marketHandler,
		watchlistHandler,
		imageHandler,
		cacheHandler,
		redisClient,
		logger,
		cfg,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func setupRouter(
	marketHandler *handler.MarketHandler,
	watchlistHandler *handler.WatchlistHandler,
	imageHandler *handler.ImageHandler,
	cacheHandler *handler.CacheHandler,
	redisClient *redis.Client,
	logger *zap.Logger,
	cfg *config.Config,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Market data routes, optionally fronted by the Redis response cache
		market := v1.Group("")
		if redisClient != nil {
			market.Use(middleware.RedisCache(redisClient, middleware.CacheConfig{
				Enabled:         true,
				DefaultDuration: cfg.Redis.ResponseTTL,
				PrefixKey:       "response-cache",
				CachedPrefixes: []string{
					"/api/v1/coins",
					"/api/v1/compare",
					"/api/v1/search",
				},
			}, logger))
		}
		{
			market.GET("/coins", marketHandler.GetCoins)
			market.GET("/coins/:id", marketHandler.GetCoin)
			market.GET("/coins/:id/chart", marketHandler.GetChart)
			market.GET("/compare/chart", marketHandler.GetComparison)
			market.GET("/search", marketHandler.Search)
		}

		// Watchlist routes
		watchlist := v1.Group("/watchlist")
		{
			watchlist.GET("", watchlistHandler.GetWatchlist)
			watchlist.POST("/:id", watchlistHandler.AddToWatchlist)
			watchlist.DELETE("/:id", watchlistHandler.RemoveFromWatchlist)
		}

		// Image registry routes
		imagesGroup := v1.Group("/images")
		{
			imagesGroup.GET("/:id", imageHandler.GetImage)
			imagesGroup.PUT("/:id", imageHandler.SetImage)
			imagesGroup.DELETE("", imageHandler.ClearImages)
		}

		// Cache administration
		v1.POST("/cache/invalidate", cacheHandler.Invalidate)
	}

	return router
}
