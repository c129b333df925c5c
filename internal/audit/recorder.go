package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/obs"
	"mocdesk.org/internal/store"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context so
// recorded entries can be correlated with access logs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Recorder persists audit entries and mirrors them to the structured
// log.
type Recorder struct {
	trail store.AuditStore
	now   func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRecorder builds a Recorder on top of the given trail.
func NewRecorder(trail store.AuditStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{trail: trail, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one entry to the trail and emits a matching log line.
// The entry id and timestamp are assigned here.
func (r *Recorder) Record(ctx context.Context, actor domain.User, action domain.AuditAction, resource domain.Resource, details string, changes []domain.FieldChange) error {
	entry := domain.AuditEntry{
		ID:        uuid.NewString(),
		ActorID:   actor.ID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    action,
		Resource:  resource,
		Timestamp: r.now().UTC(),
		Details:   details,
		Changes:   changes,
	}
	if err := r.trail.Append(ctx, entry); err != nil {
		return err
	}

	fields := map[string]any{
		"type":     "audit",
		"action":   string(action),
		"resource": string(resource),
		"actor_id": actor.ID,
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		fields["request_id"] = rid
	}
	if len(changes) > 0 {
		fields["changed_fields"] = len(changes)
	}
	obs.Event("info", details, fields)
	return nil
}

// Violation records a denied operation. The trail keeps the attempt
// even though the operation itself never ran.
func (r *Recorder) Violation(ctx context.Context, actor domain.User, resource domain.Resource, verb string) error {
	details := "Unauthorized access attempt: " + verb + " on " + string(resource)
	return r.Record(ctx, actor, domain.ActionSecurityViolation, resource, details, nil)
}
