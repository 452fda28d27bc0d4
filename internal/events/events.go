package events

import (
	"context"
	"time"
)

// Channels
const (
	ChannelAudit = "events:audit"
)

// Event types
const (
	EventLogRecorded = "log_recorded"
	EventLogsPurged  = "logs_purged"
)

type Event struct {
	Type       string         `json:"type"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(Event)) error
}
