package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	"textflow/internal/chat/app"
	"textflow/internal/chat/repository"
	"textflow/internal/chat/router"
	"textflow/pkg/config"
	"textflow/pkg/database"
	"textflow/pkg/logger"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	// 1. PostgreSQL (rooms / members / messages / attempts / audit)
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.User,
		cfg.PostgreSQL.Password, cfg.PostgreSQL.Database)
	db, err := database.NewPostgresDB(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.PostgreSQL.Host, cfg.PostgreSQL.Port)),
			zap.Error(err),
		)
	}

	// 2. Redis (新訊息事件的 pub/sub)
	redisClient, err := database.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// 3. 初始化 Repository
	roomRepo := repository.NewRoomRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	attemptRepo := repository.NewJoinAttemptRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	pubsub := repository.NewRedisPubSub(redisClient)

	if err := roomRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("migrate failed", zap.Error(err))
	}

	// 4. 初始化 UseCases
	roomUC := app.NewRoomUseCase(roomRepo, attemptRepo, auditRepo)
	messageUC := app.NewMessageUseCase(roomRepo, msgRepo, pubsub)
	purgeUC := app.NewPurgeUseCase(roomRepo)

	// 5. 背景清掃，每分鐘一次
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	purgeInterval := cfg.PurgeInterval
	if purgeInterval <= 0 {
		purgeInterval = time.Minute
	}
	go purgeUC.RunScheduler(ctx, purgeInterval)

	// 6. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, app.NewChatHandler(roomUC, messageUC), app.NewChatWebsocketHandler(messageUC, pubsub))

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down")
		if err := r.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Log.Error("shutdown error", zap.Error(err))
		}
	}()

	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
	logger.Log.Sync()
}
