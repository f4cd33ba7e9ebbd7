package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/coop-admin/internal/domain"
)

// FeedFilter captures audit feed parameters. Filters apply to the
// representative (first) record of each batch.
type FeedFilter struct {
	EventKind *domain.EventKind
	ActorID   *int64
	Limit     int
	Offset    int
}

// ChangeRecordRepository stores and queries the append-only audit trail.
// No update or delete is exposed; change records are immutable once written.
type ChangeRecordRepository interface {
	Create(ctx context.Context, record *domain.ChangeRecord) error
	ListFeed(ctx context.Context, filter FeedFilter) ([]domain.ChangeRecord, error)
	CountFeed(ctx context.Context, filter FeedFilter) (int64, error)
	ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]domain.ChangeRecord, error)
	ListByBatch(ctx context.Context, batchID string) ([]domain.ChangeRecord, error)
}

type changeRecordRepository struct {
	pool *pgxpool.Pool
}

// NewChangeRecordRepository builds repository.
func NewChangeRecordRepository(pool *pgxpool.Pool) ChangeRecordRepository {
	return &changeRecordRepository{pool: pool}
}

const changeRecordColumns = `id, subject_type, subject_id, batch_id, actor_id, event_kind,
               before_state, after_state, request_url, client_ip, client_agent, recorded_at`

func (r *changeRecordRepository) Create(ctx context.Context, record *domain.ChangeRecord) error {
	const query = `
        INSERT INTO change_records (subject_type, subject_id, batch_id, actor_id, event_kind,
                                    before_state, after_state, request_url, client_ip, client_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, recorded_at`
	return r.pool.QueryRow(ctx, query,
		record.SubjectType,
		record.SubjectID,
		record.BatchID,
		record.ActorID,
		record.EventKind,
		jsonState(record.BeforeState),
		jsonState(record.AfterState),
		record.RequestURL,
		record.ClientIP,
		record.ClientAgent,
	).Scan(&record.ID, &record.RecordedAt)
}

// ListFeed returns one representative record per batch, newest batch first.
// The representative is the batch's first record.
func (r *changeRecordRepository) ListFeed(ctx context.Context, filter FeedFilter) ([]domain.ChangeRecord, error) {
	clauses, args := feedClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT cr.id, cr.subject_type, cr.subject_id, cr.batch_id, cr.actor_id, cr.event_kind,
               cr.before_state, cr.after_state, cr.request_url, cr.client_ip, cr.client_agent, cr.recorded_at
        FROM change_records cr
        JOIN (SELECT batch_id, MIN(id) AS first_id FROM change_records GROUP BY batch_id) firsts
          ON cr.id = firsts.first_id
        WHERE %s
        ORDER BY cr.recorded_at DESC, cr.id DESC
        LIMIT %d OFFSET %d`,
		strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChangeRecords(rows)
}

// CountFeed returns the number of distinct batches matching the filter,
// ignoring pagination.
func (r *changeRecordRepository) CountFeed(ctx context.Context, filter FeedFilter) (int64, error) {
	clauses, args := feedClauses(filter)

	query := fmt.Sprintf(`
        SELECT COUNT(*)
        FROM change_records cr
        JOIN (SELECT batch_id, MIN(id) AS first_id FROM change_records GROUP BY batch_id) firsts
          ON cr.id = firsts.first_id
        WHERE %s`, strings.Join(clauses, " AND "))

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListBySubject resolves the batches touching the subject and returns every
// record of those batches, sibling entities included, in chronological order.
func (r *changeRecordRepository) ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]domain.ChangeRecord, error) {
	const query = `
        SELECT ` + changeRecordColumns + `
        FROM change_records
        WHERE batch_id IN (SELECT batch_id FROM change_records WHERE subject_type=$1 AND subject_id=$2)
        ORDER BY recorded_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChangeRecords(rows)
}

func (r *changeRecordRepository) ListByBatch(ctx context.Context, batchID string) ([]domain.ChangeRecord, error) {
	const query = `
        SELECT ` + changeRecordColumns + `
        FROM change_records
        WHERE batch_id=$1
        ORDER BY recorded_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChangeRecords(rows)
}

func feedClauses(filter FeedFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.EventKind != nil {
		args = append(args, *filter.EventKind)
		clauses = append(clauses, fmt.Sprintf("cr.event_kind=$%d", len(args)))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		clauses = append(clauses, fmt.Sprintf("cr.actor_id=$%d", len(args)))
	}
	return clauses, args
}

func scanChangeRecords(rows pgx.Rows) ([]domain.ChangeRecord, error) {
	var result []domain.ChangeRecord
	for rows.Next() {
		var record domain.ChangeRecord
		if err := rows.Scan(
			&record.ID,
			&record.SubjectType,
			&record.SubjectID,
			&record.BatchID,
			&record.ActorID,
			&record.EventKind,
			&record.BeforeState,
			&record.AfterState,
			&record.RequestURL,
			&record.ClientIP,
			&record.ClientAgent,
			&record.RecordedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

// jsonState maps an absent state to SQL NULL rather than the JSON null value.
func jsonState(state map[string]any) any {
	if state == nil {
		return nil
	}
	return state
}
