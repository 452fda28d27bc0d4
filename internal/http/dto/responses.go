package dto

import (
	"time"

	"github.com/docarchive/backend/internal/models"
	"github.com/google/uuid"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func Fail(message string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: message}
}

type AuditLogListResponse struct {
	Status  string                   `json:"status"`
	Results int                      `json:"results"`
	Data    []models.UnifiedLogEntry `json:"data"`
}

type RecordedLog struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

type RecordLogResponse struct {
	Status string      `json:"status"`
	Data   RecordedLog `json:"data"`
}

type PurgeLogsResponse struct {
	Status        string `json:"status"`
	RetentionDays int    `json:"retention_days"`
	Deleted       int64  `json:"deleted"`
}
