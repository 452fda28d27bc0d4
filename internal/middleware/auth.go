package middleware

import (
	"strings"

	"github.com/docarchive/backend/internal/auth"
	"github.com/docarchive/backend/internal/http/dto"
	"github.com/docarchive/backend/internal/models"
	"github.com/docarchive/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CtxActorID    = "actor_id"
	CtxActorModel = "actor_model"
)

func AuthMiddleware(jwtSecret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("missing authorization header"))
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("invalid authorization format"))
		}

		claims, err := auth.ParseJWT(jwtSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Fail("invalid or expired token"))
		}

		c.Locals(CtxActorID, claims.ActorID)
		c.Locals(CtxActorModel, claims.ActorModel)

		return c.Next()
	}
}

func GetActorID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxActorID).(uuid.UUID)
	return id
}

func GetActorModel(c *fiber.Ctx) models.ActorModel {
	m, _ := c.Locals(CtxActorModel).(models.ActorModel)
	return m
}

// RequirePermission rejects actors whose model lacks permission. It must run
// after AuthMiddleware.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rbac.HasPermission(GetActorModel(c), permission) {
			return c.Status(fiber.StatusForbidden).JSON(dto.Fail("permission denied"))
		}
		return c.Next()
	}
}
