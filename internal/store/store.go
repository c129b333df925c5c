// Package store defines the persistence port for the service and an
// in-memory implementation used in development and tests. A Postgres
// implementation lives in store/pg.
package store

import (
	"context"

	"mocdesk.org/internal/domain"
)

// Store groups the per-collection sub-stores. Implementations must be
// safe for concurrent use.
type Store interface {
	Facilities() FacilityStore
	Assets() AssetStore
	MOCs() MOCStore
	Risks() RiskStore
	WorkOrders() WorkOrderStore
	Users() UserStore
	Standards() StandardStore
	Links() LinkStore
	Audit() AuditStore
	Notifications() NotificationStore
}

// FacilityStore persists installations.
type FacilityStore interface {
	List(ctx context.Context) ([]domain.Facility, error)
	Get(ctx context.Context, id string) (domain.Facility, error)
	Create(ctx context.Context, f domain.Facility) error
	Update(ctx context.Context, f domain.Facility) error
	Delete(ctx context.Context, id string) error
}

// AssetStore persists tagged equipment. Tag is the lookup and
// deletion key.
type AssetStore interface {
	List(ctx context.Context) ([]domain.Asset, error)
	GetByTag(ctx context.Context, tag string) (domain.Asset, error)
	Create(ctx context.Context, a domain.Asset) error
	Update(ctx context.Context, a domain.Asset) error
	DeleteByTag(ctx context.Context, tag string) error
}

// MOCStore persists change requests. There is no delete: requests are
// part of the permanent record.
type MOCStore interface {
	List(ctx context.Context) ([]domain.MOCRequest, error)
	Get(ctx context.Context, id string) (domain.MOCRequest, error)
	Create(ctx context.Context, m domain.MOCRequest) error
	Update(ctx context.Context, m domain.MOCRequest) error
}

// RiskStore persists standalone risk assessments, at most one per
// change request.
type RiskStore interface {
	List(ctx context.Context) ([]domain.RiskAssessment, error)
	Upsert(ctx context.Context, r domain.RiskAssessment) error
}

// WorkOrderStore persists execution items.
type WorkOrderStore interface {
	List(ctx context.Context) ([]domain.WorkOrder, error)
	Get(ctx context.Context, id string) (domain.WorkOrder, error)
	ListByMOC(ctx context.Context, mocID string) ([]domain.WorkOrder, error)
	ListUnlinked(ctx context.Context) ([]domain.WorkOrder, error)
	Create(ctx context.Context, w domain.WorkOrder) error
	Update(ctx context.Context, w domain.WorkOrder) error
}

// UserStore persists accounts. Accounts are soft-disabled, never
// removed.
type UserStore interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, u domain.User) error
	Update(ctx context.Context, u domain.User) error
}

// StandardStore persists regulatory reference records.
type StandardStore interface {
	List(ctx context.Context) ([]domain.RegulatoryStandard, error)
	Create(ctx context.Context, s domain.RegulatoryStandard) error
	Update(ctx context.Context, s domain.RegulatoryStandard) error
	Delete(ctx context.Context, id string) error
}

// LinkStore persists bookmark records.
type LinkStore interface {
	List(ctx context.Context) ([]domain.UsefulLink, error)
	Create(ctx context.Context, l domain.UsefulLink) error
	Update(ctx context.Context, l domain.UsefulLink) error
	Delete(ctx context.Context, id string) error
}

// AuditStore persists the capped audit trail. Append places the entry
// at the head; implementations evict the oldest entry once the trail
// exceeds MaxAuditEntries. List returns newest first.
type AuditStore interface {
	List(ctx context.Context) ([]domain.AuditEntry, error)
	Append(ctx context.Context, e domain.AuditEntry) error
}

// NotificationStore persists the short notification buffer, capped at
// MaxNotifications, newest first.
type NotificationStore interface {
	List(ctx context.Context) ([]domain.Notification, error)
	Append(ctx context.Context, n domain.Notification) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Clear(ctx context.Context) error
}

// Buffer caps shared by every implementation.
const (
	MaxAuditEntries  = 1000
	MaxNotifications = 50
)
