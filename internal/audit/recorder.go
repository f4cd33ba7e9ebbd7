package audit

import (
	"context"
	"reflect"

	"go.uber.org/zap"

	"github.com/spec-kit/coop-admin/internal/domain"
	"github.com/spec-kit/coop-admin/internal/events"
	"github.com/spec-kit/coop-admin/internal/observability"
)

// Store persists change records. Append-only; the recorder never updates or
// deletes what it wrote.
type Store interface {
	Create(ctx context.Context, record *domain.ChangeRecord) error
}

// noiseFields are excluded from both states before persisting so that
// touch-only saves do not produce audit entries.
var noiseFields = map[string]struct{}{
	"updated_at": {},
}

// Recorder observes entity lifecycle events and writes one change record per
// qualifying mutation. A failed write is logged and swallowed: audit capture
// is best-effort and must never abort the business operation it observes.
type Recorder struct {
	store   Store
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewRecorder constructs the recorder.
func NewRecorder(store Store, logger *zap.Logger, metrics *observability.Metrics) *Recorder {
	return &Recorder{store: store, logger: logger, metrics: metrics}
}

// Register subscribes the recorder to all entity lifecycle events.
func (r *Recorder) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventEntityCreated, r.handleCreated)
	dispatcher.Subscribe(events.EventEntityUpdated, r.handleUpdated)
	dispatcher.Subscribe(events.EventEntityDeleted, r.handleDeleted)
}

func (r *Recorder) handleCreated(ctx context.Context, event events.Event) error {
	return r.record(ctx, event, domain.EventKindCreated, nil, filterNoise(event.After))
}

func (r *Recorder) handleUpdated(ctx context.Context, event events.Event) error {
	before, after := diffStates(event.Before, event.After)
	return r.record(ctx, event, domain.EventKindUpdated, filterNoise(before), filterNoise(after))
}

func (r *Recorder) handleDeleted(ctx context.Context, event events.Event) error {
	return r.record(ctx, event, domain.EventKindDeleted, filterNoise(event.Before), nil)
}

func (r *Recorder) record(ctx context.Context, event events.Event, kind domain.EventKind, before, after map[string]any) error {
	// Suppress empty records: a save that changed nothing meaningful leaves
	// no audit trace.
	if len(before) == 0 && len(after) == 0 {
		return nil
	}

	info, ok := RequestInfoFromContext(ctx)
	if !ok {
		// No active request scope (background mutation); the record still
		// gets its own one-off batch.
		info = RequestInfo{BatchID: NewBatchID()}
	}

	record := &domain.ChangeRecord{
		SubjectType: event.Subject.Type,
		SubjectID:   event.Subject.ID,
		BatchID:     info.BatchID,
		ActorID:     info.ActorID,
		EventKind:   kind,
		BeforeState: before,
		AfterState:  after,
		RequestURL:  info.RequestURL,
		ClientIP:    info.ClientIP,
		ClientAgent: info.ClientAgent,
	}

	if err := r.store.Create(ctx, record); err != nil {
		r.logger.Error("failed to write change record",
			zap.String("subject_type", event.Subject.Type),
			zap.Int64("subject_id", event.Subject.ID),
			zap.String("batch_id", info.BatchID),
			zap.Error(err))
		return err
	}
	r.metrics.RecordAuditWrite(string(kind))
	return nil
}

// diffStates reduces two full field maps to the subset that actually changed.
func diffStates(before, after map[string]any) (map[string]any, map[string]any) {
	changedBefore := map[string]any{}
	changedAfter := map[string]any{}
	for key, newVal := range after {
		oldVal, existed := before[key]
		if !existed || !reflect.DeepEqual(oldVal, newVal) {
			if existed {
				changedBefore[key] = oldVal
			}
			changedAfter[key] = newVal
		}
	}
	for key, oldVal := range before {
		if _, exists := after[key]; !exists {
			changedBefore[key] = oldVal
		}
	}
	return changedBefore, changedAfter
}

func filterNoise(state map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	filtered := make(map[string]any, len(state))
	for key, val := range state {
		if _, noisy := noiseFields[key]; noisy {
			continue
		}
		filtered[key] = val
	}
	return filtered
}
