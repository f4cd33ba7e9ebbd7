package domain

import "time"

// EntityKindCustomer is the audit subject type for customers.
const EntityKindCustomer = "Customer"

// CustomerStatus enumerates membership states.
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "ACTIVE"
	CustomerStatusInactive  CustomerStatus = "INACTIVE"
	CustomerStatusSuspended CustomerStatus = "SUSPENDED"
)

// Customer is a member of the cooperative, registered at a branch.
type Customer struct {
	ID        int64
	BranchID  int64
	MemberNo  string
	FullName  string
	Email     string
	Phone     string
	Status    CustomerStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuditFields returns the persisted field values used for change capture.
func (c *Customer) AuditFields() map[string]any {
	return map[string]any{
		"branch_id":  c.BranchID,
		"member_no":  c.MemberNo,
		"full_name":  c.FullName,
		"email":      c.Email,
		"phone":      c.Phone,
		"status":     c.Status,
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
}
