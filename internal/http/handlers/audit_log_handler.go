package handlers

import (
	"errors"

	"github.com/docarchive/backend/internal/http/dto"
	"github.com/docarchive/backend/internal/middleware"
	"github.com/docarchive/backend/internal/models"
	"github.com/docarchive/backend/internal/rbac"
	"github.com/docarchive/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuditLogHandler struct {
	auditService  *services.AuditService
	retentionDays int
	log           *zap.Logger
}

func NewAuditLogHandler(auditService *services.AuditService, retentionDays int, log *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{auditService: auditService, retentionDays: retentionDays, log: log}
}

// ListLogs serves the unified audit feed, most recent first.
func (h *AuditLogHandler) ListLogs(c *fiber.Ctx) error {
	entries, err := h.auditService.ListUnifiedLogs(c.UserContext())
	if err != nil {
		h.log.Error("list audit logs failed", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Status:    dto.StatusError,
			Message:   "failed to retrieve audit logs",
			RequestID: middleware.GetRequestID(c),
		})
	}

	return c.JSON(dto.AuditLogListResponse{
		Status:  dto.StatusSuccess,
		Results: len(entries),
		Data:    entries,
	})
}

// RecordLog appends an entry. Only actors holding PermRecordForOthers may
// credit it to someone other than themselves.
func (h *AuditLogHandler) RecordLog(c *fiber.Ctx) error {
	var req dto.RecordLogRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("invalid request body"))
	}

	rec, err := req.ToLogRecord()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("invalid id: " + err.Error()))
	}

	callerModel := middleware.GetActorModel(c)
	callerID := middleware.GetActorID(c)
	if rec.PerformedByModel == "" {
		rec.PerformedByModel = callerModel
	}
	if rec.PerformedBy == uuid.Nil {
		rec.PerformedBy = callerID
	}
	if (rec.PerformedByModel != callerModel || rec.PerformedBy != callerID) &&
		!rbac.HasPermission(callerModel, rbac.PermRecordForOthers) {
		h.log.Warn("rejected audit log credited to another actor",
			zap.String("actor_id", callerID.String()),
			zap.String("performed_by", rec.PerformedBy.String()),
			zap.String("performed_by_model", string(rec.PerformedByModel)),
		)
		return c.Status(fiber.StatusForbidden).JSON(dto.Fail("cannot record audit logs for another actor"))
	}
	if rec.IPAddress == nil {
		ip := c.IP()
		rec.IPAddress = &ip
	}
	if rec.UserAgent == nil {
		if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
			rec.UserAgent = &ua
		}
	}

	if err := h.auditService.RecordLog(c.UserContext(), rec); err != nil {
		if errors.Is(err, models.ErrInvalidLogRecord) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
		}
		h.log.Error("record audit log failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("failed to record audit log"))
	}

	return c.Status(fiber.StatusCreated).JSON(dto.RecordLogResponse{
		Status: dto.StatusSuccess,
		Data:   dto.RecordedLog{ID: rec.ID, CreatedAt: rec.CreatedAt},
	})
}

// PurgeLogs runs the retention sweep on demand. The body may override the
// configured retention window.
func (h *AuditLogHandler) PurgeLogs(c *fiber.Ctx) error {
	days := h.retentionDays
	if len(c.Body()) > 0 {
		var req dto.PurgeLogsRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("invalid request body"))
		}
		if req.RetentionDays != nil {
			days = *req.RetentionDays
		}
	}
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("retention_days must be positive"))
	}

	deleted := h.auditService.PurgeOldLogs(c.UserContext(), days)
	h.log.Info("manual retention sweep",
		zap.String("actor_id", middleware.GetActorID(c).String()),
		zap.Int("retention_days", days),
		zap.Int64("deleted", deleted),
	)

	return c.JSON(dto.PurgeLogsResponse{
		Status:        dto.StatusSuccess,
		RetentionDays: days,
		Deleted:       deleted,
	})
}
