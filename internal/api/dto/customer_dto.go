package dto

import "time"

// CustomerRequest is the customer create/update payload.
type CustomerRequest struct {
	BranchID int64  `json:"branch_id"`
	MemberNo string `json:"member_no,omitempty"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Status   string `json:"status,omitempty"`
}

// CustomerResponse is the customer payload.
type CustomerResponse struct {
	ID        int64     `json:"id"`
	BranchID  int64     `json:"branch_id"`
	MemberNo  string    `json:"member_no"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
