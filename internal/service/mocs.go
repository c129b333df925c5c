package service

import (
	"context"
	"fmt"
	"strings"

	"mocdesk.org/internal/audit"
	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/ids"
	"mocdesk.org/internal/rbac"
)

// ListMOCs returns all change requests.
func (s *Service) ListMOCs(ctx context.Context) ([]domain.MOCRequest, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceMOCs, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.MOCs().List(ctx)
}

// GetMOC returns one change request by id.
func (s *Service) GetMOC(ctx context.Context, id string) (domain.MOCRequest, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.MOCRequest{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceMOCs, rbac.Read); err != nil {
		return domain.MOCRequest{}, err
	}
	return s.store.MOCs().Get(ctx, id)
}

// CreateMOC registers a change request in draft, stamping the actor as
// requester and opening the history with a creation entry.
func (s *Service) CreateMOC(ctx context.Context, m domain.MOCRequest) (domain.MOCRequest, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.MOCRequest{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceMOCs, rbac.Write); err != nil {
		return domain.MOCRequest{}, err
	}
	if strings.TrimSpace(m.Title) == "" {
		return domain.MOCRequest{}, fmt.Errorf("%w: change request title is required", domain.ErrValidation)
	}

	now := s.now().UTC()
	m.ID = ids.NewPrefixed("MOC")
	if m.Status == "" {
		m.Status = domain.StatusDraft
	}
	if m.Requester == "" {
		m.Requester = actor.Name
	}
	m.History = append([]domain.HistoryEntry{{
		ID:        ids.New(),
		UserID:    actor.ID,
		UserName:  actor.Name,
		Action:    "Created",
		Kind:      domain.HistoryUser,
		Timestamp: now,
	}}, m.History...)
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := s.store.MOCs().Create(ctx, m); err != nil {
		return domain.MOCRequest{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceMOCs, "Created change request "+m.ID, nil); err != nil {
		return domain.MOCRequest{}, err
	}
	return m, nil
}

// UpdateMOC persists an edit or a status transition. The workflow
// engine validates the move and plans side effects: on the fresh
// approval edge the implementation work order is created, a system
// history entry is prepended and subscribers are notified, all before
// the write-audit entry. A failed validation leaves every collection
// untouched.
func (s *Service) UpdateMOC(ctx context.Context, m domain.MOCRequest) (domain.MOCRequest, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.MOCRequest{}, err
	}
	old, err := s.store.MOCs().Get(ctx, m.ID)
	if err != nil {
		return domain.MOCRequest{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceMOCs, rbac.Write); err != nil {
		return domain.MOCRequest{}, err
	}

	changes := audit.Diff(old, m, audit.MOCFields)
	outcome, err := s.engine.Plan(old, m)
	if err != nil {
		return domain.MOCRequest{}, err
	}

	// the request is persisted before the cascade so a storage failure
	// cannot leave an orphaned work order behind
	updated := outcome.MOC
	updated.CreatedAt = old.CreatedAt
	updated.UpdatedAt = s.now().UTC()
	if err := s.store.MOCs().Update(ctx, updated); err != nil {
		return domain.MOCRequest{}, err
	}
	if outcome.WorkOrder != nil {
		if err := s.store.WorkOrders().Create(ctx, *outcome.WorkOrder); err != nil {
			return domain.MOCRequest{}, err
		}
	}
	if err := s.record(ctx, actor, domain.ResourceMOCs, "Updated change request "+m.ID, changes); err != nil {
		return domain.MOCRequest{}, err
	}

	if outcome.WorkOrder != nil {
		s.publish(ctx, domain.Notification{
			Title:    "Change request approved",
			Message:  fmt.Sprintf("%s approved; %s scheduled for implementation", updated.Title, outcome.WorkOrder.ID),
			Severity: domain.SeveritySuccess,
			Link:     "/mocs/" + updated.ID,
		})
	}
	return updated, nil
}

// ListRisks returns the standalone risk assessments.
func (s *Service) ListRisks(ctx context.Context) ([]domain.RiskAssessment, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceRisks, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.Risks().List(ctx)
}

// SaveRiskAssessment upserts the assessment for a change request and
// mirrors the score onto the request itself.
func (s *Service) SaveRiskAssessment(ctx context.Context, r domain.RiskAssessment) (domain.RiskAssessment, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.RiskAssessment{}, err
	}
	if r.MOCID == "" {
		return domain.RiskAssessment{}, fmt.Errorf("%w: assessment must reference a change request", domain.ErrValidation)
	}
	target, err := s.store.MOCs().Get(ctx, r.MOCID)
	if err != nil {
		return domain.RiskAssessment{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceRisks, rbac.Write); err != nil {
		return domain.RiskAssessment{}, err
	}

	now := s.now().UTC()
	if r.ID == "" {
		r.ID = ids.New()
	}
	r.Score = r.Probability * r.Severity
	r.AssessedAt = now

	if err := s.store.Risks().Upsert(ctx, r); err != nil {
		return domain.RiskAssessment{}, err
	}

	target.RiskScore = r.Score
	ra := r
	target.RiskAssessment = &ra
	target.UpdatedAt = now
	if err := s.store.MOCs().Update(ctx, target); err != nil {
		return domain.RiskAssessment{}, err
	}

	details := fmt.Sprintf("Assessed risk for %s (score %d)", r.MOCID, r.Score)
	if err := s.record(ctx, actor, domain.ResourceRisks, details, nil); err != nil {
		return domain.RiskAssessment{}, err
	}
	return r, nil
}
