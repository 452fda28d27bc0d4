package http

import (
	"strings"
	"time"

	"github.com/docarchive/backend/internal/config"
	"github.com/docarchive/backend/internal/http/handlers"
	"github.com/docarchive/backend/internal/middleware"
	"github.com/docarchive/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SetupRouter mounts the API. A nil rdb disables rate limiting and a nil
// feedHub disables the websocket feed.
func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	auditHandler *handlers.AuditLogHandler,
	feedHub *handlers.AuditFeedHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSAllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{"status": "ok"}
		if feedHub != nil {
			body["feed_connections"] = feedHub.ConnectionCount()
		}
		return c.JSON(body)
	})

	api := app.Group("/api/v1")

	if rdb != nil {
		api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log))
	}

	// Meta (public, no auth required)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/log-types", metaHandler.GetLogTypes)
	api.Get("/meta/actor-models", metaHandler.GetActorModels)

	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret, log))

	// Audit logs
	protected.Get("/audit-logs", middleware.RequirePermission(rbac.PermViewAuditLogs), auditHandler.ListLogs)
	protected.Post("/audit-logs", middleware.RequirePermission(rbac.PermRecordAuditLogs), auditHandler.RecordLog)
	protected.Post("/audit-logs/purge", middleware.RequirePermission(rbac.PermPurgeAuditLogs), auditHandler.PurgeLogs)

	// WebSocket
	if feedHub != nil {
		app.Use("/ws", handlers.WSUpgradeMiddleware())
		app.Get("/ws/audit-logs", websocket.New(feedHub.HandleWS))
	}
}
