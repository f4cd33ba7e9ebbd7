package domain

import "time"

// AdminRole enumerates back-office roles.
type AdminRole string

const (
	RoleAdmin   AdminRole = "ADMIN"
	RoleAuditor AdminRole = "AUDITOR"
)

// AdminUser is a back-office operator. Admin users are the actors recorded
// against audit batches; they are not themselves audit-tracked.
type AdminUser struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	Role         AdminRole
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
