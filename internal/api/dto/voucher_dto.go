package dto

import "time"

// VoucherLineRequest is one line of a voucher payload.
type VoucherLineRequest struct {
	ID          *int64  `json:"id,omitempty"`
	AccountCode string  `json:"account_code"`
	Particulars string  `json:"particulars"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
}

// VoucherRequest is the voucher create/update payload.
type VoucherRequest struct {
	BranchID    int64                `json:"branch_id"`
	VoucherDate *time.Time           `json:"voucher_date,omitempty"`
	Narration   string               `json:"narration"`
	Status      string               `json:"status,omitempty"`
	Lines       []VoucherLineRequest `json:"lines"`
}

// VoucherLineResponse is one voucher line payload.
type VoucherLineResponse struct {
	ID          int64   `json:"id"`
	AccountCode string  `json:"account_code"`
	Particulars string  `json:"particulars"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
}

// VoucherResponse is the voucher payload.
type VoucherResponse struct {
	ID          int64                 `json:"id"`
	VoucherNo   string                `json:"voucher_no"`
	BranchID    int64                 `json:"branch_id"`
	VoucherDate time.Time             `json:"voucher_date"`
	Narration   string                `json:"narration"`
	Status      string                `json:"status"`
	Lines       []VoucherLineResponse `json:"lines"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}
