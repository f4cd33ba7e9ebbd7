package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEntityCreated EventType = "entity_created"
	EventEntityUpdated EventType = "entity_updated"
	EventEntityDeleted EventType = "entity_deleted"
)

// Subject identifies the entity a lifecycle event describes.
type Subject struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// Event represents an entity lifecycle transition emitted by domain services.
// Before and After carry the full persisted field maps around the transition:
// Before is nil on creation, After is nil on deletion. Observers derive their
// own delta from the two.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Subject   Subject        `json:"subject"`
	Before    map[string]any `json:"before,omitempty"`
	After     map[string]any `json:"after,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
