package service

import (
	"context"
	"fmt"
	"strings"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/ids"
	"mocdesk.org/internal/rbac"
	"mocdesk.org/internal/session"
)

// ListUsers returns all accounts. Password hashes never leave the
// store representation's json encoding.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceAdminUsers, rbac.Read); err != nil {
		return nil, err
	}
	return s.store.Users().List(ctx)
}

// CreateUser provisions an account. The role accepts both canonical
// names and the simplified registration aliases.
func (s *Service) CreateUser(ctx context.Context, name, email, rawRole, password string) (domain.User, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.authorize(ctx, actor, domain.ResourceAdminUsers, rbac.Write); err != nil {
		return domain.User{}, err
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" {
		return domain.User{}, fmt.Errorf("%w: name and email are required", domain.ErrValidation)
	}
	role, ok := domain.NormalizeRole(rawRole)
	if !ok {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, rawRole)
	}

	var hash string
	if password != "" {
		hash, err = session.HashPassword(password)
		if err != nil {
			return domain.User{}, err
		}
	}

	now := s.now().UTC()
	u := domain.User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		Role:         role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return domain.User{}, err
	}
	if err := s.record(ctx, actor, domain.ResourceAdminUsers, "Created account "+email, nil); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
