package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/coop-admin/internal/audit"
	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/events"
)

type fakeBranchRepo struct {
	nextID   int64
	branches map[int64]*domain.Branch
}

func newFakeBranchRepo() *fakeBranchRepo {
	return &fakeBranchRepo{branches: map[int64]*domain.Branch{}}
}

func (f *fakeBranchRepo) Create(_ context.Context, branch *domain.Branch) error {
	f.nextID++
	branch.ID = f.nextID
	clone := *branch
	f.branches[branch.ID] = &clone
	return nil
}

func (f *fakeBranchRepo) Update(_ context.Context, branch *domain.Branch) error {
	if _, ok := f.branches[branch.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *branch
	f.branches[branch.ID] = &clone
	return nil
}

func (f *fakeBranchRepo) Delete(_ context.Context, id int64) error {
	delete(f.branches, id)
	return nil
}

func (f *fakeBranchRepo) GetByID(_ context.Context, id int64) (*domain.Branch, error) {
	branch, ok := f.branches[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *branch
	return &clone, nil
}

func (f *fakeBranchRepo) GetByCode(_ context.Context, code string) (*domain.Branch, error) {
	for _, branch := range f.branches {
		if branch.Code == code {
			clone := *branch
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeBranchRepo) List(_ context.Context, _, _ int) ([]domain.Branch, error) {
	out := []domain.Branch{}
	for _, branch := range f.branches {
		out = append(out, *branch)
	}
	return out, nil
}

type recordSink struct {
	records []domain.ChangeRecord
}

func (s *recordSink) Create(_ context.Context, record *domain.ChangeRecord) error {
	record.ID = int64(len(s.records) + 1)
	s.records = append(s.records, *record)
	return nil
}

// Full lifecycle through the real dispatcher and recorder: a branch is
// created, renamed and removed, leaving exactly three change records that
// share no batch.
func TestBranchLifecycleIsRecorded(t *testing.T) {
	sink := &recordSink{}
	dispatcher := events.NewInMemoryDispatcher()
	audit.NewRecorder(sink, zap.NewNop(), nil).Register(dispatcher)

	svc := NewBranchService(BranchDependencies{
		BranchRepo: newFakeBranchRepo(),
		Dispatcher: dispatcher,
	})

	ctxCreate := audit.WithRequestInfo(context.Background(), audit.RequestInfo{BatchID: "req-1"})
	branch, err := svc.Create(ctxCreate, BranchInput{Code: "BR1", Name: "Main Office"})
	require.NoError(t, err)
	require.NotZero(t, branch.ID)
	assert.True(t, branch.IsActive)

	ctxUpdate := audit.WithRequestInfo(context.Background(), audit.RequestInfo{BatchID: "req-2"})
	_, err = svc.Update(ctxUpdate, branch.ID, BranchInput{Code: "BR1", Name: "Head Office"})
	require.NoError(t, err)

	ctxDelete := audit.WithRequestInfo(context.Background(), audit.RequestInfo{BatchID: "req-3"})
	require.NoError(t, svc.Delete(ctxDelete, branch.ID))

	require.Len(t, sink.records, 3)

	created := sink.records[0]
	assert.Equal(t, domain.EventKindCreated, created.EventKind)
	assert.Equal(t, domain.EntityKindBranch, created.SubjectType)
	assert.Equal(t, branch.ID, created.SubjectID)
	assert.Equal(t, "req-1", created.BatchID)
	assert.Nil(t, created.BeforeState)
	assert.Equal(t, "Main Office", created.AfterState["name"])

	updated := sink.records[1]
	assert.Equal(t, domain.EventKindUpdated, updated.EventKind)
	assert.Equal(t, "req-2", updated.BatchID)
	assert.Equal(t, map[string]any{"name": "Main Office"}, updated.BeforeState)
	assert.Equal(t, map[string]any{"name": "Head Office"}, updated.AfterState)

	deleted := sink.records[2]
	assert.Equal(t, domain.EventKindDeleted, deleted.EventKind)
	assert.Equal(t, "req-3", deleted.BatchID)
	assert.Equal(t, "Head Office", deleted.BeforeState["name"])
	assert.Nil(t, deleted.AfterState)
}

func TestBranchCreateValidation(t *testing.T) {
	svc := NewBranchService(BranchDependencies{
		BranchRepo: newFakeBranchRepo(),
		Dispatcher: events.NewInMemoryDispatcher(),
	})

	_, err := svc.Create(context.Background(), BranchInput{Code: "", Name: "No Code"})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), BranchInput{Code: "BR1", Name: "  "})
	require.Error(t, err)
}

func TestBranchCreateRejectsDuplicateCode(t *testing.T) {
	repo := newFakeBranchRepo()
	svc := NewBranchService(BranchDependencies{
		BranchRepo: repo,
		Dispatcher: events.NewInMemoryDispatcher(),
	})

	_, err := svc.Create(context.Background(), BranchInput{Code: "BR1", Name: "First"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), BranchInput{Code: "BR1", Name: "Second"})
	require.Error(t, err)
}

func TestBranchUpdateUnchangedSaveLeavesNoRecord(t *testing.T) {
	sink := &recordSink{}
	dispatcher := events.NewInMemoryDispatcher()
	audit.NewRecorder(sink, zap.NewNop(), nil).Register(dispatcher)

	svc := NewBranchService(BranchDependencies{
		BranchRepo: newFakeBranchRepo(),
		Dispatcher: dispatcher,
	})

	branch, err := svc.Create(context.Background(), BranchInput{Code: "BR1", Name: "Main"})
	require.NoError(t, err)
	require.Len(t, sink.records, 1)

	// Saving identical values is a touch-only update; no audit trace.
	_, err = svc.Update(context.Background(), branch.ID, BranchInput{Code: "BR1", Name: "Main"})
	require.NoError(t, err)
	assert.Len(t, sink.records, 1)
}
