package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/coop-admin/internal/events"
)

// publishLifecycle emits one entity lifecycle event. Services call this after
// the primary mutation committed; observers (the audit recorder among them)
// may fail without affecting the caller.
func publishLifecycle(ctx context.Context, dispatcher events.Dispatcher, eventType events.EventType, subject events.Subject, before, after map[string]any) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Before:    before,
		After:     after,
		Timestamp: time.Now(),
	})
}
