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

// ListFacilities returns all installations.
func (s *Service) ListFacilities(ctx context.Context) ([]domain.Facility, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceFacilities, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.Facilities().List(ctx)
}

// CreateFacility registers an installation. When no coordinates are
// supplied the address is geocoded; lookup failure falls back to the
// default location, so creation never blocks on it.
func (s *Service) CreateFacility(ctx context.Context, f domain.Facility) (domain.Facility, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.Facility{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceFacilities, rbac.Write); err != nil {
		return domain.Facility{}, err
	}
	if strings.TrimSpace(f.Name) == "" {
		return domain.Facility{}, fmt.Errorf("%w: facility name is required", domain.ErrValidation)
	}

	if f.Location.Lat == 0 && f.Location.Lng == 0 {
		query := f.Location.Address
		if query == "" {
			query = f.Name
		}
		loc := s.geocoder.Locate(ctx, query)
		f.Location = domain.Location{
			Lat:     loc.Lat,
			Lng:     loc.Lng,
			Address: loc.Address,
			MapURL:  loc.MapURL,
			Snippet: loc.Snippet,
		}
	}

	now := s.now().UTC()
	f.ID = ids.NewPrefixed("FAC")
	f.CreatedAt = now
	f.UpdatedAt = now
	if f.Status == "" {
		f.Status = domain.FacilityOnline
	}

	if err := s.store.Facilities().Create(ctx, f); err != nil {
		return domain.Facility{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceFacilities, "Created facility "+f.Name, nil); err != nil {
		return domain.Facility{}, err
	}
	return f, nil
}

// UpdateFacility persists changes to an existing installation and
// records the field-level diff.
func (s *Service) UpdateFacility(ctx context.Context, f domain.Facility) (domain.Facility, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.Facility{}, err
	}
	old, err := s.store.Facilities().Get(ctx, f.ID)
	if err != nil {
		return domain.Facility{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceFacilities, rbac.Write); err != nil {
		return domain.Facility{}, err
	}

	changes := audit.Diff(old, f, audit.FacilityFields)
	f.CreatedAt = old.CreatedAt
	f.UpdatedAt = s.now().UTC()
	if err := s.store.Facilities().Update(ctx, f); err != nil {
		return domain.Facility{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceFacilities, "Updated facility "+f.Name, changes); err != nil {
		return domain.Facility{}, err
	}
	return f, nil
}

// DeleteFacility removes an installation.
func (s *Service) DeleteFacility(ctx context.Context, id string) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	old, err := s.store.Facilities().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, domain.ResourceFacilities, rbac.Write); err != nil {
		return err
	}
	if err := s.store.Facilities().Delete(ctx, id); err != nil {
		return err
	}
	return s.record(ctx, actor, domain.ResourceFacilities, "Deleted facility "+old.Name, nil)
}
