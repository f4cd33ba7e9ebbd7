package worker

import (
	"github.com/spec-kit/coop-admin/internal/audit"
	"github.com/spec-kit/coop-admin/internal/events"
)

// StartAuditRecorder subscribes the change recorder to entity lifecycle events.
func StartAuditRecorder(recorder *audit.Recorder, dispatcher events.Dispatcher) {
	if recorder == nil || dispatcher == nil {
		return
	}
	recorder.Register(dispatcher)
}
