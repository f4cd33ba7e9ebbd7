package domain

import "time"

// Audit subject types for voucher headers and their lines.
const (
	EntityKindVoucher     = "Voucher"
	EntityKindVoucherLine = "VoucherLine"
)

// VoucherStatus enumerates voucher workflow states.
type VoucherStatus string

const (
	VoucherStatusDraft    VoucherStatus = "DRAFT"
	VoucherStatusApproved VoucherStatus = "APPROVED"
	VoucherStatusVoid     VoucherStatus = "VOID"
)

// Voucher is a journal voucher header. Saving one together with its lines is
// the typical multi-entity mutation grouped under a single audit batch.
type Voucher struct {
	ID          int64
	VoucherNo   string
	BranchID    int64
	VoucherDate time.Time
	Narration   string
	Status      VoucherStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []VoucherLine
}

// VoucherLine is a single debit or credit row belonging to a voucher.
type VoucherLine struct {
	ID          int64
	VoucherID   int64
	AccountCode string
	Particulars string
	Debit       float64
	Credit      float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AuditFields returns the persisted header field values used for change capture.
func (v *Voucher) AuditFields() map[string]any {
	return map[string]any{
		"voucher_no":   v.VoucherNo,
		"branch_id":    v.BranchID,
		"voucher_date": v.VoucherDate,
		"narration":    v.Narration,
		"status":       v.Status,
		"created_at":   v.CreatedAt,
		"updated_at":   v.UpdatedAt,
	}
}

// AuditFields returns the persisted line field values used for change capture.
func (l *VoucherLine) AuditFields() map[string]any {
	return map[string]any{
		"voucher_id":   l.VoucherID,
		"account_code": l.AccountCode,
		"particulars":  l.Particulars,
		"debit":        l.Debit,
		"credit":       l.Credit,
		"created_at":   l.CreatedAt,
		"updated_at":   l.UpdatedAt,
	}
}
