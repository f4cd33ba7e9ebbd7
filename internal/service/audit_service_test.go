package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/repository"
	apperrors "github.com/spec-kit/coop-admin/pkg/util"
)

// fakeRecordRepo serves canned change records with the same batch semantics
// as the SQL queries: the feed returns one first record per batch newest
// first, the subject listing includes batch siblings.
type fakeRecordRepo struct {
	records []domain.ChangeRecord
}

func (f *fakeRecordRepo) Create(_ context.Context, record *domain.ChangeRecord) error {
	record.ID = int64(len(f.records) + 1)
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeRecordRepo) firstPerBatch(filter repository.FeedFilter) []domain.ChangeRecord {
	firsts := map[string]domain.ChangeRecord{}
	for _, r := range f.records {
		existing, seen := firsts[r.BatchID]
		if !seen || r.ID < existing.ID {
			firsts[r.BatchID] = r
		}
	}
	out := []domain.ChangeRecord{}
	for _, r := range firsts {
		if filter.EventKind != nil && r.EventKind != *filter.EventKind {
			continue
		}
		if filter.ActorID != nil && (r.ActorID == nil || *r.ActorID != *filter.ActorID) {
			continue
		}
		out = append(out, r)
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].RecordedAt.After(out[i].RecordedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func (f *fakeRecordRepo) ListFeed(_ context.Context, filter repository.FeedFilter) ([]domain.ChangeRecord, error) {
	out := f.firstPerBatch(filter)
	if filter.Offset >= len(out) {
		return []domain.ChangeRecord{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeRecordRepo) CountFeed(_ context.Context, filter repository.FeedFilter) (int64, error) {
	return int64(len(f.firstPerBatch(filter))), nil
}

func (f *fakeRecordRepo) ListBySubject(_ context.Context, subjectType string, subjectID int64) ([]domain.ChangeRecord, error) {
	batches := map[string]struct{}{}
	for _, r := range f.records {
		if r.SubjectType == subjectType && r.SubjectID == subjectID {
			batches[r.BatchID] = struct{}{}
		}
	}
	out := []domain.ChangeRecord{}
	for _, r := range f.records {
		if _, ok := batches[r.BatchID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) ListByBatch(_ context.Context, batchID string) ([]domain.ChangeRecord, error) {
	out := []domain.ChangeRecord{}
	for _, r := range f.records {
		if r.BatchID == batchID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeCache struct {
	counts map[string]int64
	sets   int
}

func (f *fakeCache) GetCount(_ context.Context, key string) (int64, bool) {
	v, ok := f.counts[key]
	return v, ok
}

func (f *fakeCache) SetCount(_ context.Context, key string, value int64, _ time.Duration) {
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key] = value
	f.sets++
}

func actorRef(id int64) *int64 { return &id }

func seedRepo() *fakeRecordRepo {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeRecordRepo{records: []domain.ChangeRecord{
		{ID: 1, SubjectType: domain.EntityKindVoucher, SubjectID: 10, BatchID: "batch-a",
			ActorID: actorRef(1), EventKind: domain.EventKindCreated,
			AfterState: map[string]any{"voucher_no": "JV-1"}, RecordedAt: base},
		{ID: 2, SubjectType: domain.EntityKindVoucherLine, SubjectID: 100, BatchID: "batch-a",
			ActorID: actorRef(1), EventKind: domain.EventKindCreated,
			AfterState: map[string]any{"account_code": "1001"}, RecordedAt: base.Add(time.Millisecond)},
		{ID: 3, SubjectType: domain.EntityKindBranch, SubjectID: 5, BatchID: "batch-b",
			ActorID: actorRef(2), EventKind: domain.EventKindUpdated,
			BeforeState: map[string]any{"name": "Old"}, AfterState: map[string]any{"name": "New"},
			RecordedAt: base.Add(time.Hour)},
		{ID: 4, SubjectType: domain.EntityKindVoucher, SubjectID: 10, BatchID: "batch-c",
			ActorID: actorRef(2), EventKind: domain.EventKindDeleted,
			BeforeState: map[string]any{"voucher_no": "JV-1"}, RecordedAt: base.Add(2 * time.Hour)},
	}}
}

func newAuditService(repo *fakeRecordRepo, cache CountCache) *AuditService {
	return NewAuditService(AuditDependencies{
		RecordRepo: repo,
		Cache:      cache,
		CacheTTL:   30 * time.Second,
	})
}

func TestFeedReturnsOneRowPerBatchNewestFirst(t *testing.T) {
	svc := newAuditService(seedRepo(), nil)

	page, err := svc.Feed(context.Background(), FeedQuery{})
	require.NoError(t, err)

	require.Len(t, page.Items, 3)
	assert.Equal(t, "batch-c", page.Items[0].BatchID)
	assert.Equal(t, "batch-b", page.Items[1].BatchID)
	assert.Equal(t, "batch-a", page.Items[2].BatchID)

	// batch-a surfaces its first record, not the sibling line.
	assert.Equal(t, "Voucher", page.Items[2].Change.Entity)
	assert.Equal(t, domain.EventKindCreated, page.Items[2].Change.EventKind)

	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.LastPage)
	assert.Equal(t, 20, page.PageSize)
}

func TestFeedPaginationMeta(t *testing.T) {
	svc := newAuditService(seedRepo(), nil)

	page, err := svc.Feed(context.Background(), FeedQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)

	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, int64(3), page.Total)
}

func TestFeedFilters(t *testing.T) {
	svc := newAuditService(seedRepo(), nil)

	kind := domain.EventKindUpdated
	page, err := svc.Feed(context.Background(), FeedQuery{EventKind: &kind})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "batch-b", page.Items[0].BatchID)

	page, err = svc.Feed(context.Background(), FeedQuery{ActorID: actorRef(1)})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "batch-a", page.Items[0].BatchID)
}

func TestFeedRejectsUnknownEventKind(t *testing.T) {
	svc := newAuditService(seedRepo(), nil)

	kind := domain.EventKind("PURGED")
	_, err := svc.Feed(context.Background(), FeedQuery{EventKind: &kind})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, 400, domainErr.HTTPStatus)
}

func TestFeedTotalUsesCache(t *testing.T) {
	repo := seedRepo()
	cache := &fakeCache{counts: map[string]int64{"audit:feed:total:all:all": 77}}
	svc := newAuditService(repo, cache)

	page, err := svc.Feed(context.Background(), FeedQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(77), page.Total)

	// Miss populates the cache.
	kind := domain.EventKindDeleted
	page, err = svc.Feed(context.Background(), FeedQuery{EventKind: &kind})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, int64(1), cache.counts["audit:feed:total:DELETED:all"])
}

func TestEntityHistoryIncludesBatchSiblings(t *testing.T) {
	svc := newAuditService(seedRepo(), nil)

	groups, err := svc.EntityHistory(context.Background(), domain.EntityKindVoucher, 10)
	require.NoError(t, err)

	// batch-a and batch-c touch the voucher; batch-b does not.
	require.Len(t, groups, 2)
	assert.Equal(t, "batch-a", groups[0].BatchID)
	assert.Equal(t, "batch-c", groups[1].BatchID)

	// The voucher-line sibling written in the same batch rides along.
	require.Len(t, groups[0].Changes, 2)
	assert.Equal(t, "Voucher", groups[0].Changes[0].Entity)
	assert.Equal(t, "VoucherLine", groups[0].Changes[1].Entity)

	require.Len(t, groups[1].Changes, 1)
	assert.Equal(t, domain.EventKindDeleted, groups[1].Changes[0].EventKind)
}

func TestEntityHistoryValidation(t *testing.T) {
	svc := newAuditService(seedRepo(), nil)

	_, err := svc.EntityHistory(context.Background(), "  ", 10)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)

	_, err = svc.EntityHistory(context.Background(), domain.EntityKindBranch, 0)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
}

func TestEntityHistoryEmptyForUntouchedEntity(t *testing.T) {
	svc := newAuditService(seedRepo(), nil)

	groups, err := svc.EntityHistory(context.Background(), domain.EntityKindCustomer, 999)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestBatchDetail(t *testing.T) {
	svc := newAuditService(seedRepo(), nil)

	detail, err := svc.BatchDetail(context.Background(), "batch-a")
	require.NoError(t, err)
	assert.Equal(t, "batch-a", detail.BatchID)
	require.NotNil(t, detail.ActorID)
	assert.Equal(t, int64(1), *detail.ActorID)
	require.Len(t, detail.Changes, 2)
	assert.Equal(t, "Voucher", detail.Changes[0].Entity)
}

func TestBatchDetailNotFound(t *testing.T) {
	svc := newAuditService(seedRepo(), nil)

	_, err := svc.BatchDetail(context.Background(), "no-such-batch")
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
}

func TestDeviceLabel(t *testing.T) {
	assert.Equal(t, "Unknown Device", DeviceLabel(""))
	assert.Equal(t, "Unknown Device", DeviceLabel("   "))

	label := DeviceLabel("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	assert.Contains(t, label, "Chrome")
	assert.Contains(t, label, " on ")
}
