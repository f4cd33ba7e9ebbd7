package audit

import (
	"context"

	"github.com/google/uuid"
)

type requestInfoKey struct{}

// RequestInfo is the request-scoped correlation state for change capture.
// It is created once per inbound request and threaded through the call chain
// via context.Context; it never crosses request boundaries.
type RequestInfo struct {
	BatchID     string
	ActorID     *int64
	RequestURL  string
	ClientIP    string
	ClientAgent string
}

// NewBatchID issues a fresh opaque correlation token.
func NewBatchID() string {
	return uuid.NewString()
}

// WithRequestInfo stores correlation state on the context.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext retrieves correlation state, if any request scope
// is active.
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}

// WithActor attaches the authenticated actor to existing correlation state.
// Called by the auth middleware once the principal is known; a no-op batch
// is created when no correlation state exists yet.
func WithActor(ctx context.Context, actorID int64) context.Context {
	info, ok := RequestInfoFromContext(ctx)
	if !ok {
		info = RequestInfo{BatchID: NewBatchID()}
	}
	info.ActorID = &actorID
	return WithRequestInfo(ctx, info)
}
