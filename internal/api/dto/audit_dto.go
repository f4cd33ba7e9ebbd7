package dto

import "time"

// ChangeResponse is the presentation shape of one change record.
type ChangeResponse struct {
	Entity    string         `json:"entity"`
	EventKind string         `json:"event_kind"`
	Before    map[string]any `json:"before_state,omitempty"`
	After     map[string]any `json:"after_state,omitempty"`
}

// BatchSummaryResponse is one row of the global feed.
type BatchSummaryResponse struct {
	BatchID    string         `json:"batch_id"`
	ActorID    *int64         `json:"actor_id,omitempty"`
	RecordedAt time.Time      `json:"recorded_at"`
	RequestURL string         `json:"request_url,omitempty"`
	ClientIP   string         `json:"client_ip,omitempty"`
	Device     string         `json:"device"`
	Change     ChangeResponse `json:"change"`
}

// PaginationMeta reports feed pagination state.
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PageSize    int   `json:"page_size"`
	Total       int64 `json:"total"`
}

// FeedResponse is the paginated global feed payload.
type FeedResponse struct {
	Items []BatchSummaryResponse `json:"items"`
	Meta  PaginationMeta         `json:"meta"`
}

// BatchGroupResponse is one batch of an entity's history.
type BatchGroupResponse struct {
	BatchID   string           `json:"batch_id"`
	ActorID   *int64           `json:"actor_id,omitempty"`
	StartedAt time.Time        `json:"started_at"`
	Changes   []ChangeResponse `json:"changes"`
}

// BatchDetailResponse is the full change list of one batch.
type BatchDetailResponse struct {
	BatchID    string           `json:"batch_id"`
	ActorID    *int64           `json:"actor_id,omitempty"`
	RecordedAt time.Time        `json:"recorded_at"`
	RequestURL string           `json:"request_url,omitempty"`
	ClientIP   string           `json:"client_ip,omitempty"`
	Device     string           `json:"device"`
	Changes    []ChangeResponse `json:"changes"`
}
