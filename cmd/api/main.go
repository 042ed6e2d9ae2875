package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"duochat/internal/config"
	"duochat/internal/db"
	apihttp "duochat/internal/http"
	"duochat/internal/realtime"
	"duochat/internal/repository"
	"duochat/internal/service"
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

	userRepo := repository.NewPgUserRepository(pool)
	threadRepo := repository.NewPgThreadRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	// Con Redis configurado la membresia y el fan-out pasan por el broker
	// compartido; sin Redis el registro vive en este proceso.
	var (
		registry   realtime.Registry = realtime.NewMemoryRegistry()
		tokenStore service.RefreshTokenStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process registry", zap.Error(err))
		} else {
			registry = realtime.NewRedisRegistry(redisClient, logger)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtServ := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)

	userServ := service.NewUserService(logger, userRepo)
	threadServ := service.NewThreadService(logger, threadRepo)
	messageServ := service.NewMessageService(logger, messageRepo)

	userHandler := apihttp.NewUserHandler(logger, userServ, jwtServ)
	chatHandler := apihttp.NewChatHandler(logger, userServ, threadServ, messageServ)
	wsHandler := apihttp.NewWSHandler(logger, userServ, threadServ, messageServ, jwtServ, registry)
	router := apihttp.NewRouter(logger, jwtServ, userHandler, chatHandler, wsHandler)

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
