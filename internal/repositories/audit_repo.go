package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docarchive/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditLogColumns = `id, action, type, performed_by_model, performed_by, file_id, ip_address, user_agent,
	level, department, category, before_change, after_change, created_at`

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Create appends a record and fills in its generated id. A zero CreatedAt is
// set by the database.
func (r *AuditRepo) Create(ctx context.Context, rec *models.LogRecord) error {
	var createdAt *time.Time
	if !rec.CreatedAt.IsZero() {
		createdAt = &rec.CreatedAt
	}
	before, err := jsonbArg(rec.BeforeChange)
	if err != nil {
		return fmt.Errorf("encode before_change: %w", err)
	}
	after, err := jsonbArg(rec.AfterChange)
	if err != nil {
		return fmt.Errorf("encode after_change: %w", err)
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO audit_logs (action, type, performed_by_model, performed_by, file_id, ip_address, user_agent,
			level, department, category, before_change, after_change, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, now()))
		RETURNING id, created_at
	`, rec.Action, rec.Type, string(rec.PerformedByModel), rec.PerformedBy, rec.File, rec.IPAddress, rec.UserAgent,
		rec.Level, rec.Department, rec.Category, before, after, createdAt,
	).Scan(&rec.ID, &rec.CreatedAt)
}

// ListByActorModel returns every record in one actor partition.
func (r *AuditRepo) ListByActorModel(ctx context.Context, model models.ActorModel) ([]models.LogRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auditLogColumns+`
		FROM audit_logs WHERE performed_by_model = $1
		ORDER BY created_at DESC
	`, string(model))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.LogRecord
	for rows.Next() {
		l, err := scanLogRecord(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// CountUnrecognized counts records whose actor model is outside known.
func (r *AuditRepo) CountUnrecognized(ctx context.Context, known []models.ActorModel) (int64, error) {
	tags := make([]string, len(known))
	for i, m := range known {
		tags[i] = string(m)
	}
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM audit_logs WHERE NOT (performed_by_model = ANY($1))
	`, tags).Scan(&n)
	return n, err
}

// DeleteOlderThan removes records created strictly before cutoff.
func (r *AuditRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// jsonbArg marshals a change snapshot for a jsonb column. Scalars such as
// strings must be quoted JSON before pgx sees them. nil stays SQL NULL.
func jsonbArg(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func scanLogRecord(row pgx.Row) (models.LogRecord, error) {
	var l models.LogRecord
	var model string
	err := row.Scan(&l.ID, &l.Action, &l.Type, &model, &l.PerformedBy, &l.File, &l.IPAddress, &l.UserAgent,
		&l.Level, &l.Department, &l.Category, &l.BeforeChange, &l.AfterChange, &l.CreatedAt)
	l.PerformedByModel = models.ActorModel(model)
	return l, err
}
