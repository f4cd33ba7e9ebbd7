package domain

import "time"

// EntityKindBranch is the audit subject type for branches.
const EntityKindBranch = "Branch"

// Branch is a physical office of the cooperative.
type Branch struct {
	ID        int64
	Code      string
	Name      string
	Address   string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuditFields returns the persisted field values used for change capture.
// The last-modified timestamp is included on purpose; the recorder filters it.
func (b *Branch) AuditFields() map[string]any {
	return map[string]any{
		"code":       b.Code,
		"name":       b.Name,
		"address":    b.Address,
		"phone":      b.Phone,
		"is_active":  b.IsActive,
		"created_at": b.CreatedAt,
		"updated_at": b.UpdatedAt,
	}
}
