// Package service is the facade every transport goes through. Each
// operation resolves the acting user, checks the permission table,
// applies the mutation and records the outcome in the audit trail.
// Denied calls are recorded and rejected before anything is written.
package service

import (
	"context"
	"fmt"
	"time"

	"mocdesk.org/internal/audit"
	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/geo"
	"mocdesk.org/internal/moc"
	"mocdesk.org/internal/notify"
	"mocdesk.org/internal/rbac"
	"mocdesk.org/internal/session"
	"mocdesk.org/internal/store"
)

// Service orchestrates storage, authorization, workflow and audit.
type Service struct {
	store    store.Store
	recorder *audit.Recorder
	engine   *moc.Engine
	geocoder geo.Geocoder
	hub      *notify.Hub
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithGeocoder sets the location lookup collaborator.
func WithGeocoder(g geo.Geocoder) Option {
	return func(s *Service) {
		if g != nil {
			s.geocoder = g
		}
	}
}

// WithNotifier sets the notification hub.
func WithNotifier(h *notify.Hub) Option {
	return func(s *Service) { s.hub = h }
}

// New builds the facade. The recorder and engine default to production
// wiring over the given store.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		recorder: audit.NewRecorder(st.Audit()),
		engine:   moc.NewEngine(),
		geocoder: geo.NewClient("", 0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// actor resolves the authenticated user from the context.
func (s *Service) actor(ctx context.Context) (domain.User, error) {
	user, ok := session.UserFromContext(ctx)
	if !ok {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return user, nil
}

// authorize runs the membership check and records a violation on
// denial. The returned error is the sentinel the transport maps to
// 403.
func (s *Service) authorize(ctx context.Context, actor domain.User, resource domain.Resource, verb rbac.Verb) error {
	if rbac.Allowed(actor.Role, resource, verb) {
		return nil
	}
	_ = s.recorder.Violation(ctx, actor, resource, string(verb))
	return fmt.Errorf("%w: %s on %s", domain.ErrForbidden, verb, resource)
}

// record appends a WRITE entry; audit failures surface to the caller
// because a mutation without a trail entry is itself a defect.
func (s *Service) record(ctx context.Context, actor domain.User, resource domain.Resource, details string, changes []domain.FieldChange) error {
	return s.recorder.Record(ctx, actor, domain.ActionWrite, resource, details, changes)
}

func (s *Service) publish(ctx context.Context, n domain.Notification) {
	if s.hub == nil {
		return
	}
	_, _ = s.hub.Publish(ctx, n)
}

// ListAuditTrail returns the trail, newest first. Reading it is
// admin-only through the permission table.
func (s *Service) ListAuditTrail(ctx context.Context) ([]domain.AuditEntry, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceAuditTrail, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.Audit().List(ctx)
}
