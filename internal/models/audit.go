package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActorModel tags which actor directory a log record's PerformedBy resolves against.
type ActorModel string

const (
	ActorOfficer ActorModel = "Officer"
	ActorAdmin   ActorModel = "Admin"
)

// KnownActorModels is the fixed, ordered set of actor partitions.
var KnownActorModels = []ActorModel{ActorOfficer, ActorAdmin}

func (m ActorModel) Valid() bool {
	for _, known := range KnownActorModels {
		if m == known {
			return true
		}
	}
	return false
}

// Log types used by the archive services.
const (
	LogTypeCreate  = "Create"
	LogTypeUpdate  = "Update"
	LogTypeDelete  = "Delete"
	LogTypeView    = "View"
	LogTypeApprove = "Approve"
	LogTypeReject  = "Reject"
)

var ErrInvalidLogRecord = errors.New("invalid log record")

// LogRecord is one persisted audit event. Records are append-only.
type LogRecord struct {
	ID               uuid.UUID  `json:"id"`
	Action           string     `json:"action"`
	Type             string     `json:"type"`
	PerformedByModel ActorModel `json:"performedByModel"`
	PerformedBy      uuid.UUID  `json:"performedBy"`
	File             *uuid.UUID `json:"file,omitempty"`
	IPAddress        *string    `json:"ipAddress,omitempty"`
	UserAgent        *string    `json:"userAgent,omitempty"`
	Level            *string    `json:"level,omitempty"`
	Department       *string    `json:"department,omitempty"`
	Category         *string    `json:"category,omitempty"`
	BeforeChange     any        `json:"beforeChange,omitempty"`
	AfterChange      any        `json:"afterChange,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Validate checks the fields every log writer must populate.
func (r *LogRecord) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Action) == "" {
		missing = append(missing, "action")
	}
	if strings.TrimSpace(r.Type) == "" {
		missing = append(missing, "type")
	}
	if r.PerformedBy == uuid.Nil {
		missing = append(missing, "performedBy")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidLogRecord, strings.Join(missing, ", "))
	}
	if !r.PerformedByModel.Valid() {
		return fmt.Errorf("%w: unknown performedByModel %q", ErrInvalidLogRecord, r.PerformedByModel)
	}
	return nil
}

// UnifiedLogEntry is the projected, enriched view of a LogRecord served by the
// audit feed. Only these fields are ever serialized.
type UnifiedLogEntry struct {
	Action          string     `json:"action"`
	Type            string     `json:"type"`
	File            *uuid.UUID `json:"file,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	IPAddress       *string    `json:"ipAddress,omitempty"`
	UserAgent       *string    `json:"userAgent,omitempty"`
	FileTitle       *string    `json:"file_title,omitempty"`
	PerformedByName string     `json:"performed_by_name"`
	Level           *string    `json:"level,omitempty"`
	Department      *string    `json:"department,omitempty"`
	Category        *string    `json:"category,omitempty"`
	BeforeChange    any        `json:"beforeChange,omitempty"`
	AfterChange     any        `json:"afterChange,omitempty"`
}

// NewUnifiedLogEntry projects rec, crediting it to actor (nil when the actor
// lookup missed) and attaching fileTitle (nil when unset or unresolved).
func NewUnifiedLogEntry(rec LogRecord, actor *Actor, fileTitle *string) UnifiedLogEntry {
	name := UnknownActorName
	if actor != nil {
		name = actor.DisplayName()
	}
	return UnifiedLogEntry{
		Action:          rec.Action,
		Type:            rec.Type,
		File:            rec.File,
		CreatedAt:       rec.CreatedAt,
		IPAddress:       rec.IPAddress,
		UserAgent:       rec.UserAgent,
		FileTitle:       fileTitle,
		PerformedByName: name,
		Level:           rec.Level,
		Department:      rec.Department,
		Category:        rec.Category,
		BeforeChange:    rec.BeforeChange,
		AfterChange:     rec.AfterChange,
	}
}
