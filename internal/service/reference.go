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

// Reference collections: regulatory standards and useful links. Plain
// records with no workflow; only the permission table applies.

// ListStandards returns the regulatory standards register.
func (s *Service) ListStandards(ctx context.Context) ([]domain.RegulatoryStandard, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceStandards, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.Standards().List(ctx)
}

// CreateStandard adds an entry to the register.
func (s *Service) CreateStandard(ctx context.Context, std domain.RegulatoryStandard) (domain.RegulatoryStandard, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.RegulatoryStandard{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceStandards, rbac.Write); err != nil {
		return domain.RegulatoryStandard{}, err
	}
	if strings.TrimSpace(std.Code) == "" {
		return domain.RegulatoryStandard{}, fmt.Errorf("%w: standard code is required", domain.ErrValidation)
	}
	std.ID = ids.New()
	if err := s.store.Standards().Create(ctx, std); err != nil {
		return domain.RegulatoryStandard{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceStandards, "Created standard "+std.Code, nil); err != nil {
		return domain.RegulatoryStandard{}, err
	}
	return std, nil
}

// UpdateStandard edits a register entry.
func (s *Service) UpdateStandard(ctx context.Context, std domain.RegulatoryStandard) (domain.RegulatoryStandard, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.RegulatoryStandard{}, err
	}
	olds, err := s.store.Standards().List(ctx)
	if err != nil {
		return domain.RegulatoryStandard{}, err
	}
	var old *domain.RegulatoryStandard
	for i := range olds {
		if olds[i].ID == std.ID {
			old = &olds[i]
			break
		}
	}
	if old == nil {
		return domain.RegulatoryStandard{}, domain.ErrNotFound
	}
	if err := s.authorize(ctx, actor, domain.ResourceStandards, rbac.Write); err != nil {
		return domain.RegulatoryStandard{}, err
	}

	changes := audit.Diff(*old, std, audit.StandardFields)
	if err := s.store.Standards().Update(ctx, std); err != nil {
		return domain.RegulatoryStandard{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceStandards, "Updated standard "+std.Code, changes); err != nil {
		return domain.RegulatoryStandard{}, err
	}
	return std, nil
}

// DeleteStandard removes a register entry.
func (s *Service) DeleteStandard(ctx context.Context, id string) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, domain.ResourceStandards, rbac.Write); err != nil {
		return err
	}
	if err := s.store.Standards().Delete(ctx, id); err != nil {
		return err
	}
	return s.record(ctx, actor, domain.ResourceStandards, "Deleted standard "+id, nil)
}

// ListLinks returns the bookmark collection.
func (s *Service) ListLinks(ctx context.Context) ([]domain.UsefulLink, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceLinks, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.Links().List(ctx)
}

// CreateLink adds a bookmark.
func (s *Service) CreateLink(ctx context.Context, l domain.UsefulLink) (domain.UsefulLink, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.UsefulLink{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceLinks, rbac.Write); err != nil {
		return domain.UsefulLink{}, err
	}
	if strings.TrimSpace(l.URL) == "" {
		return domain.UsefulLink{}, fmt.Errorf("%w: link url is required", domain.ErrValidation)
	}
	l.ID = ids.New()
	if err := s.store.Links().Create(ctx, l); err != nil {
		return domain.UsefulLink{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceLinks, "Created link "+l.Label, nil); err != nil {
		return domain.UsefulLink{}, err
	}
	return l, nil
}

// DeleteLink removes a bookmark.
func (s *Service) DeleteLink(ctx context.Context, id string) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, domain.ResourceLinks, rbac.Write); err != nil {
		return err
	}
	if err := s.store.Links().Delete(ctx, id); err != nil {
		return err
	}
	return s.record(ctx, actor, domain.ResourceLinks, "Deleted link "+id, nil)
}
