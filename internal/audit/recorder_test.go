package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/events"
)

type fakeStore struct {
	records []domain.ChangeRecord
	err     error
}

func (f *fakeStore) Create(_ context.Context, record *domain.ChangeRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *record)
	return nil
}

func newTestRecorder(store *fakeStore) (*Recorder, events.Dispatcher) {
	recorder := NewRecorder(store, zap.NewNop(), nil)
	dispatcher := events.NewInMemoryDispatcher()
	recorder.Register(dispatcher)
	return recorder, dispatcher
}

func requestCtx() context.Context {
	return WithRequestInfo(context.Background(), RequestInfo{
		BatchID:     "batch-1",
		RequestURL:  "/api/v1/branches",
		ClientIP:    "10.0.0.7",
		ClientAgent: "test-agent",
	})
}

func TestRecorderCreatedRecord(t *testing.T) {
	store := &fakeStore{}
	_, dispatcher := newTestRecorder(store)

	err := dispatcher.Publish(requestCtx(), events.Event{
		Type:    events.EventEntityCreated,
		Subject: events.Subject{Type: domain.EntityKindBranch, ID: 42},
		After: map[string]any{
			"code":       "BR1",
			"name":       "Main",
			"updated_at": time.Now(),
		},
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	record := store.records[0]
	assert.Equal(t, domain.EventKindCreated, record.EventKind)
	assert.Equal(t, domain.EntityKindBranch, record.SubjectType)
	assert.Equal(t, int64(42), record.SubjectID)
	assert.Equal(t, "batch-1", record.BatchID)
	assert.Equal(t, "/api/v1/branches", record.RequestURL)
	assert.Equal(t, "10.0.0.7", record.ClientIP)
	assert.Equal(t, "test-agent", record.ClientAgent)
	assert.Nil(t, record.BeforeState)
	assert.Equal(t, "BR1", record.AfterState["code"])
	assert.NotContains(t, record.AfterState, "updated_at")
}

func TestRecorderUpdatedKeepsOnlyChangedFields(t *testing.T) {
	store := &fakeStore{}
	_, dispatcher := newTestRecorder(store)

	createdAt := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	err := dispatcher.Publish(requestCtx(), events.Event{
		Type:    events.EventEntityUpdated,
		Subject: events.Subject{Type: domain.EntityKindBranch, ID: 7},
		Before: map[string]any{
			"code":       "BR1",
			"name":       "Old Name",
			"is_active":  true,
			"created_at": createdAt,
			"updated_at": createdAt,
		},
		After: map[string]any{
			"code":       "BR1",
			"name":       "New Name",
			"is_active":  true,
			"created_at": createdAt,
			"updated_at": time.Now(),
		},
	})
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	record := store.records[0]
	assert.Equal(t, domain.EventKindUpdated, record.EventKind)
	assert.Equal(t, map[string]any{"name": "Old Name"}, record.BeforeState)
	assert.Equal(t, map[string]any{"name": "New Name"}, record.AfterState)
}

func TestRecorderSuppressesNoiseOnlyUpdate(t *testing.T) {
	store := &fakeStore{}
	_, dispatcher := newTestRecorder(store)

	before := map[string]any{"code": "BR1", "updated_at": time.Unix(100, 0)}
	after := map[string]any{"code": "BR1", "updated_at": time.Unix(200, 0)}
	err := dispatcher.Publish(requestCtx(), events.Event{
		Type:    events.EventEntityUpdated,
		Subject: events.Subject{Type: domain.EntityKindBranch, ID: 7},
		Before:  before,
		After:   after,
	})
	require.NoError(t, err)
	assert.Empty(t, store.records)
}

func TestRecorderDeletedRecord(t *testing.T) {
	store := &fakeStore{}
	_, dispatcher := newTestRecorder(store)

	err := dispatcher.Publish(requestCtx(), events.Event{
		Type:    events.EventEntityDeleted,
		Subject: events.Subject{Type: domain.EntityKindCustomer, ID: 3},
		Before:  map[string]any{"member_no": "MBR-1", "updated_at": time.Now()},
	})
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	record := store.records[0]
	assert.Equal(t, domain.EventKindDeleted, record.EventKind)
	assert.Equal(t, "MBR-1", record.BeforeState["member_no"])
	assert.NotContains(t, record.BeforeState, "updated_at")
	assert.Nil(t, record.AfterState)
}

func TestRecorderFallbackBatchWithoutRequestScope(t *testing.T) {
	store := &fakeStore{}
	_, dispatcher := newTestRecorder(store)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventEntityCreated,
		Subject: events.Subject{Type: domain.EntityKindBranch, ID: 1},
		After:   map[string]any{"code": "BR1"},
	})
	require.NoError(t, err)
	err = dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventEntityCreated,
		Subject: events.Subject{Type: domain.EntityKindBranch, ID: 2},
		After:   map[string]any{"code": "BR2"},
	})
	require.NoError(t, err)

	require.Len(t, store.records, 2)
	assert.NotEmpty(t, store.records[0].BatchID)
	assert.NotEmpty(t, store.records[1].BatchID)
	// Each out-of-request mutation gets its own batch.
	assert.NotEqual(t, store.records[0].BatchID, store.records[1].BatchID)
	assert.Empty(t, store.records[0].RequestURL)
	assert.Nil(t, store.records[0].ActorID)
}

func TestRecorderStoreFailureDoesNotReachPublisher(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}
	_, dispatcher := newTestRecorder(store)

	err := dispatcher.Publish(requestCtx(), events.Event{
		Type:    events.EventEntityCreated,
		Subject: events.Subject{Type: domain.EntityKindBranch, ID: 1},
		After:   map[string]any{"code": "BR1"},
	})
	assert.NoError(t, err)
	assert.Empty(t, store.records)
}

func TestRecorderActorPropagation(t *testing.T) {
	store := &fakeStore{}
	_, dispatcher := newTestRecorder(store)

	ctx := WithActor(requestCtx(), 99)
	err := dispatcher.Publish(ctx, events.Event{
		Type:    events.EventEntityCreated,
		Subject: events.Subject{Type: domain.EntityKindBranch, ID: 1},
		After:   map[string]any{"code": "BR1"},
	})
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	require.NotNil(t, store.records[0].ActorID)
	assert.Equal(t, int64(99), *store.records[0].ActorID)
	// Attaching the actor keeps the original batch.
	assert.Equal(t, "batch-1", store.records[0].BatchID)
}

func TestDiffStatesFieldRemoval(t *testing.T) {
	before, after := diffStates(
		map[string]any{"a": 1, "b": 2},
		map[string]any{"a": 1},
	)
	assert.Equal(t, map[string]any{"b": 2}, before)
	assert.Empty(t, after)
}
