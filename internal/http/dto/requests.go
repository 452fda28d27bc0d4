package dto

import (
	"github.com/docarchive/backend/internal/models"
	"github.com/google/uuid"
)

// RecordLogRequest is the body log writers post after an auditable action.
// PerformedByModel and PerformedBy default to the caller's identity. The
// creation time is always stamped by the server.
type RecordLogRequest struct {
	Action           string  `json:"action"`
	Type             string  `json:"type"`
	PerformedByModel string  `json:"performedByModel"`
	PerformedBy      string  `json:"performedBy"`
	File             *string `json:"file,omitempty"`
	IPAddress        *string `json:"ipAddress,omitempty"`
	UserAgent        *string `json:"userAgent,omitempty"`
	Level            *string `json:"level,omitempty"`
	Department       *string `json:"department,omitempty"`
	Category         *string `json:"category,omitempty"`
	BeforeChange     any     `json:"beforeChange,omitempty"`
	AfterChange      any     `json:"afterChange,omitempty"`
}

// ToLogRecord converts the request, rejecting malformed ids. Field presence is
// checked by models.LogRecord.Validate.
func (r RecordLogRequest) ToLogRecord() (*models.LogRecord, error) {
	rec := &models.LogRecord{
		Action:           r.Action,
		Type:             r.Type,
		PerformedByModel: models.ActorModel(r.PerformedByModel),
		IPAddress:        r.IPAddress,
		UserAgent:        r.UserAgent,
		Level:            r.Level,
		Department:       r.Department,
		Category:         r.Category,
		BeforeChange:     r.BeforeChange,
		AfterChange:      r.AfterChange,
	}
	if r.PerformedBy != "" {
		id, err := uuid.Parse(r.PerformedBy)
		if err != nil {
			return nil, err
		}
		rec.PerformedBy = id
	}
	if r.File != nil && *r.File != "" {
		id, err := uuid.Parse(*r.File)
		if err != nil {
			return nil, err
		}
		rec.File = &id
	}
	return rec, nil
}

type PurgeLogsRequest struct {
	RetentionDays *int `json:"retention_days,omitempty"`
}
