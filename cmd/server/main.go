package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"horror-story-server/internal/chat"
	"horror-story-server/internal/config"
	"horror-story-server/internal/handler"
	"horror-story-server/internal/logger"
	"horror-story-server/internal/middleware"
	"horror-story-server/internal/provider"
	"horror-story-server/internal/reading"
	"horror-story-server/internal/story"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log, err := logger.New(logger.Config{
		Level:            cfg.LogLevel,
		Encoding:         cfg.LogEncoding,
		Service:          "horror-story-server",
		Development:      cfg.Env == "development",
		SampleThereafter: cfg.LogSampleThereafter,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))
	zap.L().Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("storyProvider", cfg.StoryProvider),
		zap.String("chatProvider", cfg.ChatProvider),
		zap.String("readingProvider", cfg.ReadingProvider),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --- External Connections ---
	// Redis не обязателен: без него лимиты считаются в памяти процесса
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = setupRedis(cfg)
		if err != nil {
			zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		zap.L().Info("Connected to Redis")
	} else {
		zap.L().Info("REDIS_ADDR not set, using in-memory rate limit store")
	}

	// --- Dependency Injection ---
	registry, err := provider.NewRegistry(ctx, cfg, log.Named("ProviderRegistry"))
	if err != nil {
		zap.L().Fatal("Failed to initialize AI providers", zap.Error(err))
	}

	storySvc, err := story.NewService(registry, story.Options{
		Provider:      cfg.StoryProvider,
		HistoryWindow: cfg.StoryHistoryWindow,
		PromptsDir:    cfg.PromptsDir,
		Params: provider.Params{
			Temperature:      provider.Float64(cfg.StoryTemperature),
			TopP:             provider.Float64(cfg.StoryTopP),
			TopK:             provider.Int(cfg.StoryTopK),
			PresencePenalty:  provider.Float64(cfg.StoryPresencePenalty),
			FrequencyPenalty: provider.Float64(cfg.StoryFrequencyPenalty),
			MaxTokens:        provider.Int(cfg.StoryMaxTokens),
		},
	}, log.Named("StoryService"))
	if err != nil {
		zap.L().Fatal("Failed to create StoryService", zap.Error(err))
	}

	chatSvc, err := chat.NewService(registry, chat.Options{
		Provider:       cfg.ChatProvider,
		Persona:        cfg.ChatPersona,
		Temperature:    cfg.ChatTemperature,
		MaxTokens:      cfg.ChatMaxTokens,
		MaxTokensLimit: cfg.ChatMaxTokensLimit,
	}, log.Named("ChatService"))
	if err != nil {
		zap.L().Fatal("Failed to create ChatService", zap.Error(err))
	}

	readingSvc := reading.NewService(registry, cfg.ReadingProvider, log.Named("ReadingService"))

	apiHandler := handler.NewHandler(storySvc, chatSvc, readingSvc, registry, cfg.ReadingMaxImageBytes, log)

	rateLimitStore := middleware.NewRateLimitStore(redisClient, cfg.RateLimitPerMinute)
	rateLimitMiddleware := middleware.RateLimiter(rateLimitStore, log.Named("RateLimiter"))
	zap.L().Info("Rate limiter middleware initialized", zap.Uint("limitPerMinute", cfg.RateLimitPerMinute))

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.RequestID())
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	router.Use(middleware.CORS(cfg.GetAllowedOrigins()))

	apiHandler.RegisterRoutes(router, middleware.NoStore(), rateLimitMiddleware)

	// Prometheus middleware применяется после регистрации роутов
	p.Use(router)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	// Даем текущим генерациям завершиться: они могут длиться до AI_TIMEOUT
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.AITimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// setupRedis создает клиент Redis и проверяет соединение с несколькими попытками.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	zap.L().Info("Redis connection options configured", zap.String("address", redisOpts.Addr), zap.Int("db", redisOpts.DB))

	var lastErr error
	maxRetries := 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		client := redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()

		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		client.Close()
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}
