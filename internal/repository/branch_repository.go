package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/coop-admin/internal/domain"
)

// BranchRepository encapsulates branch persistence.
type BranchRepository interface {
	Create(ctx context.Context, branch *domain.Branch) error
	Update(ctx context.Context, branch *domain.Branch) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Branch, error)
	GetByCode(ctx context.Context, code string) (*domain.Branch, error)
	List(ctx context.Context, limit, offset int) ([]domain.Branch, error)
}

type branchRepository struct {
	pool *pgxpool.Pool
}

// NewBranchRepository instantiates repository.
func NewBranchRepository(pool *pgxpool.Pool) BranchRepository {
	return &branchRepository{pool: pool}
}

func (r *branchRepository) Create(ctx context.Context, branch *domain.Branch) error {
	const query = `
        INSERT INTO branches (code, name, address, phone, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		branch.Code,
		branch.Name,
		branch.Address,
		branch.Phone,
		branch.IsActive,
	).Scan(&branch.ID, &branch.CreatedAt, &branch.UpdatedAt)
}

func (r *branchRepository) Update(ctx context.Context, branch *domain.Branch) error {
	const query = `
        UPDATE branches SET code=$1, name=$2, address=$3, phone=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		branch.Code,
		branch.Name,
		branch.Address,
		branch.Phone,
		branch.IsActive,
		branch.ID,
	).Scan(&branch.UpdatedAt)
}

func (r *branchRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM branches WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *branchRepository) GetByID(ctx context.Context, id int64) (*domain.Branch, error) {
	const query = `
        SELECT id, code, name, address, phone, is_active, created_at, updated_at
        FROM branches WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *branchRepository) GetByCode(ctx context.Context, code string) (*domain.Branch, error) {
	const query = `
        SELECT id, code, name, address, phone, is_active, created_at, updated_at
        FROM branches WHERE code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *branchRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Branch, error) {
	var branch domain.Branch
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&branch.ID,
		&branch.Code,
		&branch.Name,
		&branch.Address,
		&branch.Phone,
		&branch.IsActive,
		&branch.CreatedAt,
		&branch.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepository) List(ctx context.Context, limit, offset int) ([]domain.Branch, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, code, name, address, phone, is_active, created_at, updated_at
        FROM branches ORDER BY code ASC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Branch
	for rows.Next() {
		var branch domain.Branch
		if err := rows.Scan(
			&branch.ID,
			&branch.Code,
			&branch.Name,
			&branch.Address,
			&branch.Phone,
			&branch.IsActive,
			&branch.CreatedAt,
			&branch.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, branch)
	}
	return result, rows.Err()
}
