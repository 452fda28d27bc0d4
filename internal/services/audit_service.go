package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/docarchive/backend/internal/events"
	"github.com/docarchive/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrStoreUnavailable wraps any failure of the log store or the directories
// while building the audit feed.
var ErrStoreUnavailable = errors.New("audit store unavailable")

// LogStore is the append-only audit log table.
type LogStore interface {
	Create(ctx context.Context, rec *models.LogRecord) error
	ListByActorModel(ctx context.Context, model models.ActorModel) ([]models.LogRecord, error)
	CountUnrecognized(ctx context.Context, known []models.ActorModel) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActorDirectory resolves actor ids of one actor model.
type ActorDirectory interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Actor, error)
}

// FileDirectory resolves archived file ids.
type FileDirectory interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.File, error)
}

type AuditService struct {
	logs      LogStore
	actors    map[models.ActorModel]ActorDirectory
	files     FileDirectory
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewAuditService(
	logs LogStore,
	officers ActorDirectory,
	admins ActorDirectory,
	files FileDirectory,
	publisher events.Publisher,
	log *zap.Logger,
) *AuditService {
	return &AuditService{
		logs: logs,
		actors: map[models.ActorModel]ActorDirectory{
			models.ActorOfficer: officers,
			models.ActorAdmin:   admins,
		},
		files:     files,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// ListUnifiedLogs returns every log record of a known actor model, credited to
// its actor and file, most recent first. Records tagged with an unknown actor
// model are left out.
func (s *AuditService) ListUnifiedLogs(ctx context.Context) ([]models.UnifiedLogEntry, error) {
	partitions := make([][]models.UnifiedLogEntry, len(models.KnownActorModels))
	var unrecognized int64

	g, gctx := errgroup.WithContext(ctx)
	for i, model := range models.KnownActorModels {
		i, model := i, model
		g.Go(func() error {
			entries, err := s.unifyPartition(gctx, model)
			if err != nil {
				return fmt.Errorf("%s partition: %w", model, err)
			}
			partitions[i] = entries
			return nil
		})
	}
	g.Go(func() error {
		n, err := s.logs.CountUnrecognized(gctx, models.KnownActorModels)
		if err != nil {
			return fmt.Errorf("count unrecognized: %w", err)
		}
		unrecognized = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if unrecognized > 0 {
		s.log.Warn("audit logs with unrecognized actor model excluded from feed",
			zap.Int64("count", unrecognized))
	}

	total := 0
	for _, p := range partitions {
		total += len(p)
	}
	merged := make([]models.UnifiedLogEntry, 0, total)
	for _, p := range partitions {
		merged = append(merged, p...)
	}

	slices.SortStableFunc(merged, func(a, b models.UnifiedLogEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return merged, nil
}

func (s *AuditService) unifyPartition(ctx context.Context, model models.ActorModel) ([]models.UnifiedLogEntry, error) {
	dir, ok := s.actors[model]
	if !ok {
		return nil, fmt.Errorf("no actor directory for %q", model)
	}

	records, err := s.logs.ListByActorModel(ctx, model)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	actorIDs, fileIDs := referencedIDs(records)

	actors := map[uuid.UUID]models.Actor{}
	if len(actorIDs) > 0 {
		if actors, err = dir.GetByIDs(ctx, actorIDs); err != nil {
			return nil, fmt.Errorf("resolve actors: %w", err)
		}
	}
	files := map[uuid.UUID]models.File{}
	if len(fileIDs) > 0 {
		if files, err = s.files.GetByIDs(ctx, fileIDs); err != nil {
			return nil, fmt.Errorf("resolve files: %w", err)
		}
	}

	entries := make([]models.UnifiedLogEntry, 0, len(records))
	for _, rec := range records {
		var actor *models.Actor
		if a, ok := actors[rec.PerformedBy]; ok {
			actor = &a
		}
		var title *string
		if rec.File != nil {
			if f, ok := files[*rec.File]; ok {
				title = &f.Title
			}
		}
		entries = append(entries, models.NewUnifiedLogEntry(rec, actor, title))
	}
	return entries, nil
}

func referencedIDs(records []models.LogRecord) (actorIDs, fileIDs []uuid.UUID) {
	seenActors := make(map[uuid.UUID]struct{}, len(records))
	seenFiles := make(map[uuid.UUID]struct{})
	for _, rec := range records {
		if _, ok := seenActors[rec.PerformedBy]; !ok {
			seenActors[rec.PerformedBy] = struct{}{}
			actorIDs = append(actorIDs, rec.PerformedBy)
		}
		if rec.File == nil {
			continue
		}
		if _, ok := seenFiles[*rec.File]; !ok {
			seenFiles[*rec.File] = struct{}{}
			fileIDs = append(fileIDs, *rec.File)
		}
	}
	return actorIDs, fileIDs
}

// PurgeOldLogs deletes records created more than retentionDays calendar days
// ago and returns how many were removed. Failures are logged and reported as
// zero deletions.
func (s *AuditService) PurgeOldLogs(ctx context.Context, retentionDays int) int64 {
	if retentionDays <= 0 {
		s.log.Warn("retention sweep skipped, retention days must be positive", zap.Int("retention_days", retentionDays))
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted, err := s.logs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("retention sweep failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0
	}

	s.log.Info("retention sweep completed",
		zap.Int("retention_days", retentionDays),
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)
	if deleted > 0 {
		s.publish(ctx, events.EventLogsPurged, map[string]any{
			"deleted": deleted,
			"cutoff":  cutoff,
		})
	}
	return deleted
}

// RecordLog validates and appends a log record stamped with the current time,
// then announces it on the audit channel.
func (s *AuditService) RecordLog(ctx context.Context, rec *models.LogRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	rec.CreatedAt = s.now().UTC()

	if err := s.logs.Create(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.publish(ctx, events.EventLogRecorded, map[string]any{
		"id":               rec.ID.String(),
		"action":           rec.Action,
		"type":             rec.Type,
		"performedByModel": string(rec.PerformedByModel),
		"performedBy":      rec.PerformedBy.String(),
		"createdAt":        rec.CreatedAt,
	})
	return nil
}

func (s *AuditService) publish(ctx context.Context, eventType string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.ChannelAudit, events.Event{
		Type:       eventType,
		Payload:    payload,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.log.Warn("failed to publish audit event", zap.String("type", eventType), zap.Error(err))
	}
}
