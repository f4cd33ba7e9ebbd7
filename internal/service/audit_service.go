package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"go.uber.org/zap"

	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/repository"
	apperrors "github.com/spec-kit/coop-admin/pkg/util"
)

// CountCache caches expensive feed totals. Implementations are best-effort;
// a miss falls back to the database count.
type CountCache interface {
	GetCount(ctx context.Context, key string) (int64, bool)
	SetCount(ctx context.Context, key string, value int64, ttl time.Duration)
}

// AuditService provides read-only projections over the change record store.
type AuditService struct {
	records  repository.ChangeRecordRepository
	cache    CountCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// AuditDependencies bundles collaborators for the audit service.
type AuditDependencies struct {
	RecordRepo repository.ChangeRecordRepository
	Cache      CountCache
	CacheTTL   time.Duration
	Logger     *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(deps AuditDependencies) *AuditService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		records:  deps.RecordRepo,
		cache:    deps.Cache,
		cacheTTL: deps.CacheTTL,
		logger:   logger,
	}
}

// FeedQuery describes global feed parameters.
type FeedQuery struct {
	Page      int
	PageSize  int
	EventKind *domain.EventKind
	ActorID   *int64
}

// ChangeView is the presentation shape of one change record.
type ChangeView struct {
	Entity    string
	EventKind domain.EventKind
	Before    map[string]any
	After     map[string]any
}

// BatchSummary is one feed row: the representative first record of a batch.
type BatchSummary struct {
	BatchID    string
	ActorID    *int64
	RecordedAt time.Time
	RequestURL string
	ClientIP   string
	Device     string
	Change     ChangeView
}

// FeedPage is a page of batch summaries with pagination metadata.
type FeedPage struct {
	Items       []BatchSummary
	CurrentPage int
	LastPage    int
	PageSize    int
	Total       int64
}

// BatchGroup is one batch of an entity's history, chronological within.
type BatchGroup struct {
	BatchID   string
	ActorID   *int64
	StartedAt time.Time
	Changes   []ChangeView
}

// BatchDetail is the full chronological change list of one batch.
type BatchDetail struct {
	BatchID    string
	ActorID    *int64
	RecordedAt time.Time
	RequestURL string
	ClientIP   string
	Device     string
	Changes    []ChangeView
}

// Feed returns a paginated list of distinct batches, newest first, optionally
// filtered by event kind and actor.
func (s *AuditService) Feed(ctx context.Context, query FeedQuery) (*FeedPage, error) {
	if query.EventKind != nil && !query.EventKind.IsValid() {
		return nil, apperrors.NewValidationError("invalid event kind", map[string]any{
			"event_kind": string(*query.EventKind),
		})
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	filter := repository.FeedFilter{
		EventKind: query.EventKind,
		ActorID:   query.ActorID,
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}

	total, err := s.feedTotal(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	records, err := s.records.ListFeed(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	items := make([]BatchSummary, 0, len(records))
	for i := range records {
		record := &records[i]
		items = append(items, BatchSummary{
			BatchID:    record.BatchID,
			ActorID:    record.ActorID,
			RecordedAt: record.RecordedAt,
			RequestURL: record.RequestURL,
			ClientIP:   record.ClientIP,
			Device:     DeviceLabel(record.ClientAgent),
			Change:     changeView(record),
		})
	}

	lastPage := int((total + int64(pageSize) - 1) / int64(pageSize))
	if lastPage < 1 {
		lastPage = 1
	}

	return &FeedPage{
		Items:       items,
		CurrentPage: page,
		LastPage:    lastPage,
		PageSize:    pageSize,
		Total:       total,
	}, nil
}

// EntityHistory returns every batch touching the subject. A batch containing
// one record for the subject surfaces all its sibling records too; batches
// are ordered by first occurrence, records chronologically within each.
func (s *AuditService) EntityHistory(ctx context.Context, subjectType string, subjectID int64) ([]BatchGroup, error) {
	subjectType = strings.TrimSpace(subjectType)
	if subjectType == "" || subjectID <= 0 {
		return nil, apperrors.NewValidationError("subject type and id are required", map[string]any{
			"subject_type": subjectType,
			"subject_id":   subjectID,
		})
	}

	records, err := s.records.ListBySubject(ctx, subjectType, subjectID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	groups := []BatchGroup{}
	index := map[string]int{}
	for i := range records {
		record := &records[i]
		pos, ok := index[record.BatchID]
		if !ok {
			pos = len(groups)
			index[record.BatchID] = pos
			groups = append(groups, BatchGroup{
				BatchID:   record.BatchID,
				ActorID:   record.ActorID,
				StartedAt: record.RecordedAt,
			})
		}
		groups[pos].Changes = append(groups[pos].Changes, changeView(record))
	}
	return groups, nil
}

// BatchDetail returns the full change list of one batch, or a not-found error
// when the batch id matches no records.
func (s *AuditService) BatchDetail(ctx context.Context, batchID string) (*BatchDetail, error) {
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return nil, apperrors.NewValidationError("batch id is required", nil)
	}

	records, err := s.records.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFound("audit batch", map[string]any{"batch_id": batchID})
	}

	first := &records[0]
	detail := &BatchDetail{
		BatchID:    first.BatchID,
		ActorID:    first.ActorID,
		RecordedAt: first.RecordedAt,
		RequestURL: first.RequestURL,
		ClientIP:   first.ClientIP,
		Device:     DeviceLabel(first.ClientAgent),
		Changes:    make([]ChangeView, 0, len(records)),
	}
	for i := range records {
		detail.Changes = append(detail.Changes, changeView(&records[i]))
	}
	return detail, nil
}

func (s *AuditService) feedTotal(ctx context.Context, filter repository.FeedFilter) (int64, error) {
	key := feedTotalKey(filter)
	if s.cache != nil {
		if total, hit := s.cache.GetCount(ctx, key); hit {
			return total, nil
		}
	}
	total, err := s.records.CountFeed(ctx, filter)
	if err != nil {
		return 0, err
	}
	if s.cache != nil && s.cacheTTL > 0 {
		s.cache.SetCount(ctx, key, total, s.cacheTTL)
	}
	return total, nil
}

func feedTotalKey(filter repository.FeedFilter) string {
	kind := "all"
	if filter.EventKind != nil {
		kind = string(*filter.EventKind)
	}
	actor := "all"
	if filter.ActorID != nil {
		actor = fmt.Sprintf("%d", *filter.ActorID)
	}
	return fmt.Sprintf("audit:feed:total:%s:%s", kind, actor)
}

func changeView(record *domain.ChangeRecord) ChangeView {
	return ChangeView{
		Entity:    domain.SubjectShortName(record.SubjectType),
		EventKind: record.EventKind,
		Before:    record.BeforeState,
		After:     record.AfterState,
	}
}

// DeviceLabel derives a human-readable browser/OS label from a raw user
// agent, for display alongside audit batches.
func DeviceLabel(agent string) string {
	if strings.TrimSpace(agent) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(agent)
	name, _ := ua.Browser()
	os := ua.OS()
	switch {
	case name != "" && os != "":
		return name + " on " + os
	case name != "":
		return name
	case os != "":
		return os
	}
	return "Unknown Device"
}
