package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/coop-admin/internal/domain"
)

// VoucherRepository encapsulates voucher header and line persistence.
type VoucherRepository interface {
	Create(ctx context.Context, voucher *domain.Voucher) error
	Update(ctx context.Context, voucher *domain.Voucher) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Voucher, error)
	ListByBranch(ctx context.Context, branchID int64, limit, offset int) ([]domain.Voucher, error)
	CreateLine(ctx context.Context, line *domain.VoucherLine) error
	UpdateLine(ctx context.Context, line *domain.VoucherLine) error
	DeleteLine(ctx context.Context, id int64) error
	ListLines(ctx context.Context, voucherID int64) ([]domain.VoucherLine, error)
}

type voucherRepository struct {
	pool *pgxpool.Pool
}

// NewVoucherRepository instantiates repository.
func NewVoucherRepository(pool *pgxpool.Pool) VoucherRepository {
	return &voucherRepository{pool: pool}
}

func (r *voucherRepository) Create(ctx context.Context, voucher *domain.Voucher) error {
	const query = `
        INSERT INTO vouchers (voucher_no, branch_id, voucher_date, narration, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		voucher.VoucherNo,
		voucher.BranchID,
		voucher.VoucherDate,
		voucher.Narration,
		voucher.Status,
	).Scan(&voucher.ID, &voucher.CreatedAt, &voucher.UpdatedAt)
}

func (r *voucherRepository) Update(ctx context.Context, voucher *domain.Voucher) error {
	const query = `
        UPDATE vouchers SET branch_id=$1, voucher_date=$2, narration=$3, status=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		voucher.BranchID,
		voucher.VoucherDate,
		voucher.Narration,
		voucher.Status,
		voucher.ID,
	).Scan(&voucher.UpdatedAt)
}

func (r *voucherRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM vouchers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *voucherRepository) GetByID(ctx context.Context, id int64) (*domain.Voucher, error) {
	const query = `
        SELECT id, voucher_no, branch_id, voucher_date, narration, status, created_at, updated_at
        FROM vouchers WHERE id=$1`
	var voucher domain.Voucher
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&voucher.ID,
		&voucher.VoucherNo,
		&voucher.BranchID,
		&voucher.VoucherDate,
		&voucher.Narration,
		&voucher.Status,
		&voucher.CreatedAt,
		&voucher.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lines, err := r.ListLines(ctx, voucher.ID)
	if err != nil {
		return nil, err
	}
	voucher.Lines = lines
	return &voucher, nil
}

func (r *voucherRepository) ListByBranch(ctx context.Context, branchID int64, limit, offset int) ([]domain.Voucher, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, voucher_no, branch_id, voucher_date, narration, status, created_at, updated_at
        FROM vouchers WHERE branch_id=$1
        ORDER BY voucher_date DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, branchID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Voucher
	for rows.Next() {
		var voucher domain.Voucher
		if err := rows.Scan(
			&voucher.ID,
			&voucher.VoucherNo,
			&voucher.BranchID,
			&voucher.VoucherDate,
			&voucher.Narration,
			&voucher.Status,
			&voucher.CreatedAt,
			&voucher.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, voucher)
	}
	return result, rows.Err()
}

func (r *voucherRepository) CreateLine(ctx context.Context, line *domain.VoucherLine) error {
	const query = `
        INSERT INTO voucher_lines (voucher_id, account_code, particulars, debit, credit)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		line.VoucherID,
		line.AccountCode,
		line.Particulars,
		line.Debit,
		line.Credit,
	).Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)
}

func (r *voucherRepository) UpdateLine(ctx context.Context, line *domain.VoucherLine) error {
	const query = `
        UPDATE voucher_lines SET account_code=$1, particulars=$2, debit=$3, credit=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		line.AccountCode,
		line.Particulars,
		line.Debit,
		line.Credit,
		line.ID,
	).Scan(&line.UpdatedAt)
}

func (r *voucherRepository) DeleteLine(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM voucher_lines WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *voucherRepository) ListLines(ctx context.Context, voucherID int64) ([]domain.VoucherLine, error) {
	const query = `
        SELECT id, voucher_id, account_code, particulars, debit, credit, created_at, updated_at
        FROM voucher_lines WHERE voucher_id=$1 ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query, voucherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.VoucherLine
	for rows.Next() {
		var line domain.VoucherLine
		if err := rows.Scan(
			&line.ID,
			&line.VoucherID,
			&line.AccountCode,
			&line.Particulars,
			&line.Debit,
			&line.Credit,
			&line.CreatedAt,
			&line.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, line)
	}
	return result, rows.Err()
}
