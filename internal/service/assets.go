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

// ListAssets returns all tagged equipment.
func (s *Service) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceAssets, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.Assets().List(ctx)
}

// CreateAsset registers a tagged equipment item. The tag is the
// operator-facing key and must be unique.
func (s *Service) CreateAsset(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceAssets, rbac.Write); err != nil {
		return domain.Asset{}, err
	}
	if strings.TrimSpace(a.Tag) == "" {
		return domain.Asset{}, fmt.Errorf("%w: asset tag is required", domain.ErrValidation)
	}

	now := s.now().UTC()
	a.ID = ids.New()
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := s.store.Assets().Create(ctx, a); err != nil {
		return domain.Asset{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceAssets, "Created asset "+a.Tag, nil); err != nil {
		return domain.Asset{}, err
	}
	return a, nil
}

// UpdateAsset persists changes to an asset, keyed by tag.
func (s *Service) UpdateAsset(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	old, err := s.store.Assets().GetByTag(ctx, a.Tag)
	if err != nil {
		return domain.Asset{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceAssets, rbac.Write); err != nil {
		return domain.Asset{}, err
	}

	changes := audit.Diff(old, a, audit.AssetFields)
	a.ID = old.ID
	a.CreatedAt = old.CreatedAt
	a.UpdatedAt = s.now().UTC()
	if err := s.store.Assets().Update(ctx, a); err != nil {
		return domain.Asset{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceAssets, "Updated asset "+a.Tag, changes); err != nil {
		return domain.Asset{}, err
	}
	return a, nil
}

// DeleteAssetByTag removes an asset.
func (s *Service) DeleteAssetByTag(ctx context.Context, tag string) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if _, err := s.store.Assets().GetByTag(ctx, tag); err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, domain.ResourceAssets, rbac.Write); err != nil {
		return err
	}
	if err := s.store.Assets().DeleteByTag(ctx, tag); err != nil {
		return err
	}
	return s.record(ctx, actor, domain.ResourceAssets, "Deleted asset "+tag, nil)
}
