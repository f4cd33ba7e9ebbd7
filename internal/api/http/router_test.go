package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/coop-admin/internal/api/http/handlers"
	"github.com/spec-kit/coop-admin/internal/auth"
	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/repository"
	"github.com/spec-kit/coop-admin/internal/service"
)

type stubAdminRepo struct {
	user *domain.AdminUser
}

func (s *stubAdminRepo) Create(_ context.Context, _ *domain.AdminUser) error { return nil }

func (s *stubAdminRepo) GetByID(_ context.Context, id int64) (*domain.AdminUser, error) {
	if s.user != nil && s.user.ID == id {
		clone := *s.user
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubAdminRepo) GetByEmail(_ context.Context, _ string) (*domain.AdminUser, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubAdminRepo) UpdatePassword(_ context.Context, _ int64, _ string) error { return nil }

func (s *stubAdminRepo) Count(_ context.Context) (int64, error) { return 1, nil }

type stubRecordRepo struct {
	records []domain.ChangeRecord
}

func (s *stubRecordRepo) Create(_ context.Context, _ *domain.ChangeRecord) error { return nil }

func (s *stubRecordRepo) ListFeed(_ context.Context, _ repository.FeedFilter) ([]domain.ChangeRecord, error) {
	return s.records, nil
}

func (s *stubRecordRepo) CountFeed(_ context.Context, _ repository.FeedFilter) (int64, error) {
	return int64(len(s.records)), nil
}

func (s *stubRecordRepo) ListBySubject(_ context.Context, subjectType string, subjectID int64) ([]domain.ChangeRecord, error) {
	out := []domain.ChangeRecord{}
	for _, r := range s.records {
		if r.SubjectType == subjectType && r.SubjectID == subjectID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRecordRepo) ListByBatch(_ context.Context, batchID string) ([]domain.ChangeRecord, error) {
	out := []domain.ChangeRecord{}
	for _, r := range s.records {
		if r.BatchID == batchID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestApp(t *testing.T, role domain.AdminRole) (*fiber.App, string) {
	t.Helper()

	tokens := auth.NewTokenManager("router-test-secret", 30)
	operator := &domain.AdminUser{ID: 1, Email: "op@coop.local", Role: role, IsActive: true}
	token, _, err := tokens.GenerateToken(operator)
	require.NoError(t, err)

	actor := int64(1)
	records := &stubRecordRepo{records: []domain.ChangeRecord{{
		ID:          1,
		SubjectType: domain.EntityKindBranch,
		SubjectID:   5,
		BatchID:     "batch-1",
		ActorID:     &actor,
		EventKind:   domain.EventKindUpdated,
		BeforeState: map[string]any{"name": "Old"},
		AfterState:  map[string]any{"name": "New"},
		RecordedAt:  time.Now(),
	}}}

	auditService := service.NewAuditService(service.AuditDependencies{RecordRepo: records})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", nil, nil),
		Auth:           handlers.NewAuthHandler(nil),
		Audit:          handlers.NewAuditHandler(auditService),
		Branches:       handlers.NewBranchesHandler(nil),
		Customers:      handlers.NewCustomersHandler(nil),
		Vouchers:       handlers.NewVouchersHandler(nil),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, &stubAdminRepo{user: operator}),
	})
	return app, token
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp.StatusCode, body
}

func TestAuditFeedRequiresAuthentication(t *testing.T) {
	app, _ := newTestApp(t, domain.RoleAuditor)

	status, body := doJSON(t, app, "GET", "/api/v1/audits", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", errObj["code"])
}

func TestAuditFeedResponseShape(t *testing.T) {
	app, token := newTestApp(t, domain.RoleAuditor)

	status, body := doJSON(t, app, "GET", "/api/v1/audits?page=1&page_size=10", token)
	require.Equal(t, fiber.StatusOK, status)

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	items, ok := data["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)

	item := items[0].(map[string]any)
	assert.Equal(t, "batch-1", item["batch_id"])
	change := item["change"].(map[string]any)
	assert.Equal(t, "Branch", change["entity"])
	assert.Equal(t, "UPDATED", change["event_kind"])

	meta := data["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["current_page"])
	assert.Equal(t, float64(1), meta["total"])
	assert.Equal(t, float64(10), meta["page_size"])
}

func TestEntityHistoryRequiresParams(t *testing.T) {
	app, token := newTestApp(t, domain.RoleAuditor)

	status, body := doJSON(t, app, "GET", "/api/v1/audits/entity", token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errObj["code"])
}

func TestBatchDetailNotFoundEnvelope(t *testing.T) {
	app, token := newTestApp(t, domain.RoleAuditor)

	status, body := doJSON(t, app, "GET", "/api/v1/audits/batches/nope", token)
	assert.Equal(t, fiber.StatusNotFound, status)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
}

func TestAuditorCannotMutate(t *testing.T) {
	app, token := newTestApp(t, domain.RoleAuditor)

	status, body := doJSON(t, app, "POST", "/api/v1/branches", token)
	assert.Equal(t, fiber.StatusForbidden, status)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "FORBIDDEN", errObj["code"])
}

func TestHealthLive(t *testing.T) {
	app, _ := newTestApp(t, domain.RoleAuditor)

	status, body := doJSON(t, app, "GET", "/health/live", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])
}
