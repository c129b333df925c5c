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

// ListWorkOrders returns all execution items.
func (s *Service) ListWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceWorkOrders, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.WorkOrders().List(ctx)
}

// ListWorkOrdersByMOC returns the orders linked to one change request.
func (s *Service) ListWorkOrdersByMOC(ctx context.Context, mocID string) ([]domain.WorkOrder, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceWorkOrders, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.WorkOrders().ListByMOC(ctx, mocID)
}

// ListUnlinkedWorkOrders returns orders not yet tied to a change
// request.
func (s *Service) ListUnlinkedWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceWorkOrders, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.WorkOrders().ListUnlinked(ctx)
}

// CreateWorkOrder registers a manually raised order.
func (s *Service) CreateWorkOrder(ctx context.Context, w domain.WorkOrder) (domain.WorkOrder, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceWorkOrders, rbac.Write); err != nil {
		return domain.WorkOrder{}, err
	}
	if strings.TrimSpace(w.Title) == "" {
		return domain.WorkOrder{}, fmt.Errorf("%w: work order title is required", domain.ErrValidation)
	}

	w.ID = ids.NewPrefixed("WO")
	if w.Status == "" {
		w.Status = domain.WorkOrderPending
	}
	w.CreatedAt = s.now().UTC()

	if err := s.store.WorkOrders().Create(ctx, w); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceWorkOrders, "Created work order "+w.ID, nil); err != nil {
		return domain.WorkOrder{}, err
	}
	return w, nil
}

// UpdateWorkOrder persists changes to an order.
func (s *Service) UpdateWorkOrder(ctx context.Context, w domain.WorkOrder) (domain.WorkOrder, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	old, err := s.store.WorkOrders().Get(ctx, w.ID)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceWorkOrders, rbac.Write); err != nil {
		return domain.WorkOrder{}, err
	}

	changes := audit.Diff(old, w, audit.WorkOrderFields)
	w.CreatedAt = old.CreatedAt
	if err := s.store.WorkOrders().Update(ctx, w); err != nil {
		return domain.WorkOrder{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceWorkOrders, "Updated work order "+w.ID, changes); err != nil {
		return domain.WorkOrder{}, err
	}
	return w, nil
}

// LinkWorkOrders ties a batch of unlinked orders to a change request.
// Orders already linked elsewhere are rejected before anything is
// written.
func (s *Service) LinkWorkOrders(ctx context.Context, mocID string, orderIDs []string) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if _, err := s.store.MOCs().Get(ctx, mocID); err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, domain.ResourceWorkOrders, rbac.Write); err != nil {
		return err
	}

	orders := make([]domain.WorkOrder, 0, len(orderIDs))
	for _, id := range orderIDs {
		w, err := s.store.WorkOrders().Get(ctx, id)
		if err != nil {
			return err
		}
		if w.MOCID != "" && w.MOCID != mocID {
			return fmt.Errorf("%w: work order %s is already linked to %s", domain.ErrValidation, id, w.MOCID)
		}
		orders = append(orders, w)
	}

	for _, w := range orders {
		w.MOCID = mocID
		if err := s.store.WorkOrders().Update(ctx, w); err != nil {
			return err
		}
	}
	details := fmt.Sprintf("Linked %d work orders to %s", len(orders), mocID)
	return s.record(ctx, actor, domain.ResourceWorkOrders, details, nil)
}
