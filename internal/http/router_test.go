package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/docarchive/backend/internal/auth"
	"github.com/docarchive/backend/internal/config"
	"github.com/docarchive/backend/internal/http/handlers"
	"github.com/docarchive/backend/internal/models"
	"github.com/docarchive/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

// --- In-memory stores ---

type memLogStore struct {
	mu      sync.Mutex
	records []models.LogRecord
	err     error
}

func (s *memLogStore) Create(_ context.Context, rec *models.LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	rec.ID = uuid.New()
	s.records = append(s.records, *rec)
	return nil
}

func (s *memLogStore) ListByActorModel(_ context.Context, model models.ActorModel) ([]models.LogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.LogRecord
	for _, r := range s.records {
		if r.PerformedByModel == model {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memLogStore) CountUnrecognized(_ context.Context, known []models.ActorModel) (int64, error) {
	return 0, nil
}

func (s *memLogStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	var n int64
	for _, r := range s.records {
		if r.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return n, nil
}

type memActors map[uuid.UUID]models.Actor

func (d memActors) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Actor, error) {
	out := map[uuid.UUID]models.Actor{}
	for _, id := range ids {
		if a, ok := d[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

type memFiles map[uuid.UUID]models.File

func (d memFiles) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.File, error) {
	out := map[uuid.UUID]models.File{}
	for _, id := range ids {
		if f, ok := d[id]; ok {
			out[id] = f
		}
	}
	return out, nil
}

// --- Helpers ---

type testEnv struct {
	app      *fiber.App
	store    *memLogStore
	officers memActors
	files    memFiles
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    &memLogStore{},
		officers: memActors{},
		files:    memFiles{},
	}
	log := zap.NewNop()
	cfg := &config.Config{
		JWTSecret:          testSecret,
		LogRetentionDays:   7,
		RateLimitPerMinute: 100,
		CORSAllowOrigins:   []string{"*"},
	}
	svc := services.NewAuditService(env.store, env.officers, memActors{}, env.files, nil, log)
	env.app = fiber.New()
	SetupRouter(env.app, cfg, log, nil, handlers.NewAuditLogHandler(svc, cfg.LogRetentionDays, log), nil)
	return env
}

func token(t *testing.T, model models.ActorModel) string {
	t.Helper()
	return tokenFor(t, uuid.New(), model)
}

func tokenFor(t *testing.T, actorID uuid.UUID, model models.ActorModel) string {
	t.Helper()
	tok, err := auth.GenerateJWT(testSecret, actorID, model, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (env *testEnv) do(t *testing.T, method, path, authz string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if authz != "" {
		req.Header.Set(fiber.HeaderAuthorization, authz)
	}

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

func strPtr(s string) *string { return &s }

// --- Tests ---

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, fiber.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestMeta(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, fiber.MethodGet, "/api/v1/meta/actor-models", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].([]any)
	require.Len(t, data, len(models.KnownActorModels))
	assert.Equal(t, "Officer", data[0].(map[string]any)["id"])

	status, body = env.do(t, fiber.MethodGet, "/api/v1/meta/log-types", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["data"])
}

func TestListAuditLogs_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, fiber.MethodGet, "/api/v1/audit-logs", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "error", body["status"])

	status, _ = env.do(t, fiber.MethodGet, "/api/v1/audit-logs", "Bearer garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestListAuditLogs_OfficerForbidden(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.do(t, fiber.MethodGet, "/api/v1/audit-logs", token(t, models.ActorOfficer), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestListAuditLogs_Success(t *testing.T) {
	env := newTestEnv(t)
	ana := models.Actor{ID: uuid.New(), FirstName: strPtr("Ana"), LastName: strPtr("Cruz")}
	env.officers[ana.ID] = ana
	budget := models.File{ID: uuid.New(), Title: "Budget.pdf"}
	env.files[budget.ID] = budget

	env.store.records = []models.LogRecord{
		{
			ID: uuid.New(), Action: "Uploaded document", Type: models.LogTypeCreate,
			PerformedByModel: models.ActorOfficer, PerformedBy: ana.ID, File: &budget.ID,
			CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: uuid.New(), Action: "Approved document", Type: models.LogTypeApprove,
			PerformedByModel: models.ActorAdmin, PerformedBy: uuid.New(),
			CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	status, body := env.do(t, fiber.MethodGet, "/api/v1/audit-logs", token(t, models.ActorAdmin), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 2, body["results"])

	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 2)

	first := data[0].(map[string]any)
	second := data[1].(map[string]any)
	assert.Equal(t, "Unknown", first["performed_by_name"])
	assert.Equal(t, "2024-01-03T00:00:00Z", first["createdAt"])
	assert.NotContains(t, first, "file_title")
	assert.Equal(t, "Ana Cruz", second["performed_by_name"])
	assert.Equal(t, "Budget.pdf", second["file_title"])
}

func TestListAuditLogs_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, fiber.MethodGet, "/api/v1/audit-logs", token(t, models.ActorAdmin), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, body["results"])
	assert.Equal(t, []any{}, body["data"])
}

func TestListAuditLogs_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.err = errors.New("connection refused")

	status, body := env.do(t, fiber.MethodGet, "/api/v1/audit-logs", token(t, models.ActorAdmin), nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "error", body["status"])
	assert.NotContains(t, body, "data")
}

func TestRecordLog(t *testing.T) {
	env := newTestEnv(t)
	actorID := uuid.New()

	status, body := env.do(t, fiber.MethodPost, "/api/v1/audit-logs", tokenFor(t, actorID, models.ActorOfficer), map[string]any{
		"action":           "Uploaded Ordinance 12.pdf",
		"type":             models.LogTypeCreate,
		"performedByModel": "Officer",
		"performedBy":      actorID.String(),
		"department":       "Records",
		"afterChange":      map[string]any{"status": "pending"},
	})
	require.Equal(t, fiber.StatusCreated, status, "body: %v", body)
	assert.Equal(t, "success", body["status"])

	require.Len(t, env.store.records, 1)
	rec := env.store.records[0]
	assert.Equal(t, actorID, rec.PerformedBy)
	assert.Equal(t, models.ActorOfficer, rec.PerformedByModel)
	require.NotNil(t, rec.IPAddress)
	assert.NotEmpty(t, *rec.IPAddress)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestRecordLog_Invalid(t *testing.T) {
	env := newTestEnv(t)
	admin := token(t, models.ActorAdmin)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown model", map[string]any{"action": "x", "type": "Create", "performedByModel": "Guest", "performedBy": uuid.NewString()}},
		{"missing action", map[string]any{"type": "Create", "performedByModel": "Officer", "performedBy": uuid.NewString()}},
		{"bad actor id", map[string]any{"action": "x", "type": "Create", "performedByModel": "Officer", "performedBy": "not-a-uuid"}},
		{"bad file id", map[string]any{"action": "x", "type": "Create", "performedByModel": "Officer", "performedBy": uuid.NewString(), "file": "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, fiber.MethodPost, "/api/v1/audit-logs", admin, tt.body)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, "error", body["status"])
		})
	}
	assert.Empty(t, env.store.records)
}

func TestRecordLog_DefaultsToCallerIdentity(t *testing.T) {
	env := newTestEnv(t)
	officerID := uuid.New()

	status, body := env.do(t, fiber.MethodPost, "/api/v1/audit-logs", tokenFor(t, officerID, models.ActorOfficer), map[string]any{
		"action": "Viewed Resolution 4.pdf",
		"type":   models.LogTypeView,
	})
	require.Equal(t, fiber.StatusCreated, status, "body: %v", body)

	require.Len(t, env.store.records, 1)
	assert.Equal(t, officerID, env.store.records[0].PerformedBy)
	assert.Equal(t, models.ActorOfficer, env.store.records[0].PerformedByModel)
}

func TestRecordLog_OfficerCannotCreditAnotherActor(t *testing.T) {
	env := newTestEnv(t)
	officerID := uuid.New()
	officer := tokenFor(t, officerID, models.ActorOfficer)

	tests := []struct {
		name  string
		model string
		by    uuid.UUID
	}{
		{"admin model and other id", "Admin", uuid.New()},
		{"admin model and own id", "Admin", officerID},
		{"officer model and other id", "Officer", uuid.New()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, fiber.MethodPost, "/api/v1/audit-logs", officer, map[string]any{
				"action":           "Approved document",
				"type":             models.LogTypeApprove,
				"performedByModel": tt.model,
				"performedBy":      tt.by.String(),
			})
			assert.Equal(t, fiber.StatusForbidden, status)
			assert.Equal(t, "error", body["status"])
		})
	}
	assert.Empty(t, env.store.records)
}

func TestRecordLog_AdminMayCreditAnotherActor(t *testing.T) {
	env := newTestEnv(t)
	officerID := uuid.New()

	status, body := env.do(t, fiber.MethodPost, "/api/v1/audit-logs", token(t, models.ActorAdmin), map[string]any{
		"action":           "Uploaded document",
		"type":             models.LogTypeCreate,
		"performedByModel": "Officer",
		"performedBy":      officerID.String(),
	})
	require.Equal(t, fiber.StatusCreated, status, "body: %v", body)
	require.Len(t, env.store.records, 1)
	assert.Equal(t, officerID, env.store.records[0].PerformedBy)
	assert.Equal(t, models.ActorOfficer, env.store.records[0].PerformedByModel)
}

func TestRecordLog_ServerStampsCreatedAt(t *testing.T) {
	env := newTestEnv(t)
	officerID := uuid.New()
	before := time.Now().Add(-time.Second)

	status, body := env.do(t, fiber.MethodPost, "/api/v1/audit-logs", tokenFor(t, officerID, models.ActorOfficer), map[string]any{
		"action":    "Updated category",
		"type":      models.LogTypeUpdate,
		"createdAt": "2099-01-01T00:00:00Z",
	})
	require.Equal(t, fiber.StatusCreated, status, "body: %v", body)

	require.Len(t, env.store.records, 1)
	stored := env.store.records[0].CreatedAt
	assert.True(t, stored.After(before), "createdAt %s predates the request", stored)
	assert.True(t, stored.Before(time.Now().Add(time.Second)), "createdAt %s is in the future", stored)
}

func TestPurgeLogs(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.store.records = []models.LogRecord{
		{ID: uuid.New(), Action: "a", Type: "View", PerformedByModel: models.ActorOfficer, PerformedBy: uuid.New(), CreatedAt: now.AddDate(0, 0, -30)},
		{ID: uuid.New(), Action: "b", Type: "View", PerformedByModel: models.ActorOfficer, PerformedBy: uuid.New(), CreatedAt: now.AddDate(0, 0, -3)},
	}

	status, _ := env.do(t, fiber.MethodPost, "/api/v1/audit-logs/purge", token(t, models.ActorOfficer), nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := env.do(t, fiber.MethodPost, "/api/v1/audit-logs/purge", token(t, models.ActorAdmin), map[string]any{"retention_days": 0})
	assert.Equal(t, fiber.StatusBadRequest, status, "body: %v", body)

	status, body = env.do(t, fiber.MethodPost, "/api/v1/audit-logs/purge", token(t, models.ActorAdmin), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 7, body["retention_days"])
	assert.EqualValues(t, 1, body["deleted"])
	assert.Len(t, env.store.records, 1)
}
