package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docarchive/backend/internal/config"
	"github.com/docarchive/backend/internal/db"
	"github.com/docarchive/backend/internal/events"
	apphttp "github.com/docarchive/backend/internal/http"
	"github.com/docarchive/backend/internal/http/dto"
	"github.com/docarchive/backend/internal/http/handlers"
	"github.com/docarchive/backend/internal/repositories"
	"github.com/docarchive/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, db.MigrationsFS(cfg.MigrationsDir), log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	auditRepo := repositories.NewAuditRepo(pool)
	officerRepo := repositories.NewOfficerRepo(pool)
	adminRepo := repositories.NewAdminRepo(pool)
	fileRepo := repositories.NewFileRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	auditService := services.NewAuditService(auditRepo, officerRepo, adminRepo, fileRepo, publisher, log)

	// Handlers
	auditHandler := handlers.NewAuditLogHandler(auditService, cfg.LogRetentionDays, log)
	feedHub := handlers.NewAuditFeedHub(cfg.JWTSecret, subscriber, log)

	if err := feedHub.Start(ctx); err != nil {
		log.Fatal("failed to subscribe to audit channel", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(dto.Fail(err.Error()))
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, auditHandler, feedHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
