package domain

import (
	"strings"
	"time"
)

// EventKind identifies the lifecycle transition that produced a change record.
type EventKind string

const (
	EventKindCreated EventKind = "CREATED"
	EventKindUpdated EventKind = "UPDATED"
	EventKindDeleted EventKind = "DELETED"
)

// IsValid reports whether the kind is one of the closed set.
func (k EventKind) IsValid() bool {
	switch k {
	case EventKindCreated, EventKindUpdated, EventKindDeleted:
		return true
	}
	return false
}

// ChangeRecord is an immutable audit trail entry. It captures the before/after
// delta of one entity mutation and the request context that produced it.
// Records are append-only and outlive the entity they describe.
type ChangeRecord struct {
	ID          int64
	SubjectType string
	SubjectID   int64
	BatchID     string
	ActorID     *int64
	EventKind   EventKind
	BeforeState map[string]any
	AfterState  map[string]any
	RequestURL  string
	ClientIP    string
	ClientAgent string
	RecordedAt  time.Time
}

// SubjectShortName strips any package or namespace qualifier from a subject
// type, leaving the terminal type name for display.
func SubjectShortName(subjectType string) string {
	if idx := strings.LastIndexAny(subjectType, `./\`); idx >= 0 {
		return subjectType[idx+1:]
	}
	return subjectType
}
