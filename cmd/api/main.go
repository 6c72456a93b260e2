package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"quantifyme/internal/config"
	"quantifyme/internal/db"
	apihttp "quantifyme/internal/http"
	"quantifyme/internal/llm"
	"quantifyme/internal/repository"
	"quantifyme/internal/score"
	"quantifyme/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	recordRepo := repository.NewPgRecordRepository(pool)

	engine := score.NewEngine(cfg.MaxSleepHours, cfg.RoundingDigits, cfg.ClampOutput)

	var llmClient llm.LLMClient
	switch cfg.AIProvider {
	case "openai":
		if cfg.AIAPIKey == "" {
			logger.Fatal("AI_PROVIDER=openai requires AI_API_KEY")
		}
		llmClient = llm.NewHTTPClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, time.Duration(cfg.AITimeoutSecs)*time.Second, logger)
	case "stub", "":
		logger.Info("ai provider stub, annotations use local interpretation")
	default:
		logger.Fatal("unknown ai provider", zap.String("provider", cfg.AIProvider))
	}

	rateWindow := time.Duration(cfg.AIRateWindowMin) * time.Minute
	interpLimiter := service.NewInterpretationRateLimiter(rateWindow, cfg.AIRateLimit)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory rate limiter", zap.Error(err))
		} else {
			interpLimiter = service.NewRedisInterpretationRateLimiter(redisClient, cfg.AIProvider, rateWindow, cfg.AIRateLimit)
		}
		cancel()
	}

	interpSvc := service.NewInterpretationService(llmClient, interpLimiter, time.Duration(cfg.AITimeoutSecs)*time.Second, logger)
	recordSvc := service.NewRecordService(engine, recordRepo, interpSvc, logger)
	userSvc := service.NewUserService(logger, userRepo)

	userHandler := apihttp.NewUserHandler(logger, userSvc)
	recordHandler := apihttp.NewRecordHandler(logger, recordSvc)
	router := apihttp.NewRouter(logger, userHandler, recordHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
