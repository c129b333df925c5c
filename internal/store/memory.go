package store

import (
	"context"
	"strings"
	"sync"

	"mocdesk.org/internal/domain"
)

// Memory is the in-process Store. Collections are plain slices guarded
// by one RWMutex; reads return copies so callers can't mutate shared
// state.
type Memory struct {
	mu sync.RWMutex

	facilities    []domain.Facility
	assets        []domain.Asset
	mocs          []domain.MOCRequest
	risks         []domain.RiskAssessment
	workOrders    []domain.WorkOrder
	users         []domain.User
	standards     []domain.RegulatoryStandard
	links         []domain.UsefulLink
	audit         []domain.AuditEntry
	notifications []domain.Notification
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Facilities() FacilityStore        { return facilityView{m} }
func (m *Memory) Assets() AssetStore               { return assetView{m} }
func (m *Memory) MOCs() MOCStore                   { return mocView{m} }
func (m *Memory) Risks() RiskStore                 { return riskView{m} }
func (m *Memory) WorkOrders() WorkOrderStore       { return workOrderView{m} }
func (m *Memory) Users() UserStore                 { return userView{m} }
func (m *Memory) Standards() StandardStore         { return standardView{m} }
func (m *Memory) Links() LinkStore                 { return linkView{m} }
func (m *Memory) Audit() AuditStore                { return auditView{m} }
func (m *Memory) Notifications() NotificationStore { return notificationView{m} }

func copySlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// --- facilities ---

type facilityView struct{ m *Memory }

func (v facilityView) List(context.Context) ([]domain.Facility, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return copySlice(v.m.facilities), nil
}

func (v facilityView) Get(_ context.Context, id string) (domain.Facility, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	for _, f := range v.m.facilities {
		if f.ID == id {
			return f, nil
		}
	}
	return domain.Facility{}, domain.ErrNotFound
}

func (v facilityView) Create(_ context.Context, f domain.Facility) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for _, existing := range v.m.facilities {
		if existing.ID == f.ID {
			return domain.ErrConflict
		}
	}
	v.m.facilities = append(v.m.facilities, f)
	return nil
}

func (v facilityView) Update(_ context.Context, f domain.Facility) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.facilities {
		if existing.ID == f.ID {
			v.m.facilities[i] = f
			return nil
		}
	}
	return domain.ErrNotFound
}

func (v facilityView) Delete(_ context.Context, id string) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.facilities {
		if existing.ID == id {
			v.m.facilities = append(v.m.facilities[:i], v.m.facilities[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- assets ---

type assetView struct{ m *Memory }

func (v assetView) List(context.Context) ([]domain.Asset, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return copySlice(v.m.assets), nil
}

func (v assetView) GetByTag(_ context.Context, tag string) (domain.Asset, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	for _, a := range v.m.assets {
		if a.Tag == tag {
			return a, nil
		}
	}
	return domain.Asset{}, domain.ErrNotFound
}

func (v assetView) Create(_ context.Context, a domain.Asset) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for _, existing := range v.m.assets {
		if existing.Tag == a.Tag {
			return domain.ErrConflict
		}
	}
	v.m.assets = append(v.m.assets, a)
	return nil
}

func (v assetView) Update(_ context.Context, a domain.Asset) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.assets {
		if existing.Tag == a.Tag {
			v.m.assets[i] = a
			return nil
		}
	}
	return domain.ErrNotFound
}

func (v assetView) DeleteByTag(_ context.Context, tag string) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.assets {
		if existing.Tag == tag {
			v.m.assets = append(v.m.assets[:i], v.m.assets[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- change requests ---

type mocView struct{ m *Memory }

func (v mocView) List(context.Context) ([]domain.MOCRequest, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	out := make([]domain.MOCRequest, len(v.m.mocs))
	for i, r := range v.m.mocs {
		out[i] = cloneMOC(r)
	}
	return out, nil
}

func (v mocView) Get(_ context.Context, id string) (domain.MOCRequest, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	for _, r := range v.m.mocs {
		if r.ID == id {
			return cloneMOC(r), nil
		}
	}
	return domain.MOCRequest{}, domain.ErrNotFound
}

func (v mocView) Create(_ context.Context, r domain.MOCRequest) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for _, existing := range v.m.mocs {
		if existing.ID == r.ID {
			return domain.ErrConflict
		}
	}
	v.m.mocs = append(v.m.mocs, cloneMOC(r))
	return nil
}

func (v mocView) Update(_ context.Context, r domain.MOCRequest) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.mocs {
		if existing.ID == r.ID {
			v.m.mocs[i] = cloneMOC(r)
			return nil
		}
	}
	return domain.ErrNotFound
}

// cloneMOC deep-copies the nested slices so a returned request can be
// edited freely before Update.
func cloneMOC(r domain.MOCRequest) domain.MOCRequest {
	out := r
	out.History = copySlice(r.History)
	out.Tasks = copySlice(r.Tasks)
	out.Attachments = copySlice(r.Attachments)
	out.RelatedAssetTags = copySlice(r.RelatedAssetTags)
	if r.RiskAssessment != nil {
		ra := *r.RiskAssessment
		out.RiskAssessment = &ra
	}
	return out
}

// --- risks ---

type riskView struct{ m *Memory }

func (v riskView) List(context.Context) ([]domain.RiskAssessment, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return copySlice(v.m.risks), nil
}

func (v riskView) Upsert(_ context.Context, r domain.RiskAssessment) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.risks {
		if existing.MOCID == r.MOCID {
			v.m.risks[i] = r
			return nil
		}
	}
	v.m.risks = append(v.m.risks, r)
	return nil
}

// --- work orders ---

type workOrderView struct{ m *Memory }

func (v workOrderView) List(context.Context) ([]domain.WorkOrder, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return copySlice(v.m.workOrders), nil
}

func (v workOrderView) Get(_ context.Context, id string) (domain.WorkOrder, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	for _, w := range v.m.workOrders {
		if w.ID == id {
			return w, nil
		}
	}
	return domain.WorkOrder{}, domain.ErrNotFound
}

func (v workOrderView) ListByMOC(_ context.Context, mocID string) ([]domain.WorkOrder, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	var out []domain.WorkOrder
	for _, w := range v.m.workOrders {
		if w.MOCID == mocID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (v workOrderView) ListUnlinked(_ context.Context) ([]domain.WorkOrder, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	var out []domain.WorkOrder
	for _, w := range v.m.workOrders {
		if w.MOCID == "" {
			out = append(out, w)
		}
	}
	return out, nil
}

func (v workOrderView) Create(_ context.Context, w domain.WorkOrder) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for _, existing := range v.m.workOrders {
		if existing.ID == w.ID {
			return domain.ErrConflict
		}
	}
	v.m.workOrders = append(v.m.workOrders, w)
	return nil
}

func (v workOrderView) Update(_ context.Context, w domain.WorkOrder) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.workOrders {
		if existing.ID == w.ID {
			v.m.workOrders[i] = w
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- users ---

type userView struct{ m *Memory }

func (v userView) List(context.Context) ([]domain.User, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return copySlice(v.m.users), nil
}

func (v userView) Get(_ context.Context, id string) (domain.User, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	for _, u := range v.m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// GetByEmail matches case-insensitively, mirroring the lower(email)
// unique index in Postgres.
func (v userView) GetByEmail(_ context.Context, email string) (domain.User, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	for _, u := range v.m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (v userView) Create(_ context.Context, u domain.User) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for _, existing := range v.m.users {
		if existing.ID == u.ID || strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrConflict
		}
	}
	v.m.users = append(v.m.users, u)
	return nil
}

func (v userView) Update(_ context.Context, u domain.User) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.users {
		if existing.ID == u.ID {
			v.m.users[i] = u
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- standards ---

type standardView struct{ m *Memory }

func (v standardView) List(context.Context) ([]domain.RegulatoryStandard, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return copySlice(v.m.standards), nil
}

func (v standardView) Create(_ context.Context, s domain.RegulatoryStandard) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for _, existing := range v.m.standards {
		if existing.ID == s.ID {
			return domain.ErrConflict
		}
	}
	v.m.standards = append(v.m.standards, s)
	return nil
}

func (v standardView) Update(_ context.Context, s domain.RegulatoryStandard) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.standards {
		if existing.ID == s.ID {
			v.m.standards[i] = s
			return nil
		}
	}
	return domain.ErrNotFound
}

func (v standardView) Delete(_ context.Context, id string) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.standards {
		if existing.ID == id {
			v.m.standards = append(v.m.standards[:i], v.m.standards[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- links ---

type linkView struct{ m *Memory }

func (v linkView) List(context.Context) ([]domain.UsefulLink, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return copySlice(v.m.links), nil
}

func (v linkView) Create(_ context.Context, l domain.UsefulLink) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for _, existing := range v.m.links {
		if existing.ID == l.ID {
			return domain.ErrConflict
		}
	}
	v.m.links = append(v.m.links, l)
	return nil
}

func (v linkView) Update(_ context.Context, l domain.UsefulLink) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.links {
		if existing.ID == l.ID {
			v.m.links[i] = l
			return nil
		}
	}
	return domain.ErrNotFound
}

func (v linkView) Delete(_ context.Context, id string) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, existing := range v.m.links {
		if existing.ID == id {
			v.m.links = append(v.m.links[:i], v.m.links[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- audit trail ---

type auditView struct{ m *Memory }

func (v auditView) List(context.Context) ([]domain.AuditEntry, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return copySlice(v.m.audit), nil
}

func (v auditView) Append(_ context.Context, e domain.AuditEntry) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	v.m.audit = append([]domain.AuditEntry{e}, v.m.audit...)
	if len(v.m.audit) > MaxAuditEntries {
		v.m.audit = v.m.audit[:MaxAuditEntries]
	}
	return nil
}

// --- notifications ---

type notificationView struct{ m *Memory }

func (v notificationView) List(context.Context) ([]domain.Notification, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	return copySlice(v.m.notifications), nil
}

func (v notificationView) Append(_ context.Context, n domain.Notification) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	v.m.notifications = append([]domain.Notification{n}, v.m.notifications...)
	if len(v.m.notifications) > MaxNotifications {
		v.m.notifications = v.m.notifications[:MaxNotifications]
	}
	return nil
}

func (v notificationView) MarkRead(_ context.Context, id string) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i, n := range v.m.notifications {
		if n.ID == id {
			v.m.notifications[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (v notificationView) MarkAllRead(context.Context) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for i := range v.m.notifications {
		v.m.notifications[i].Read = true
	}
	return nil
}

func (v notificationView) Clear(context.Context) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	v.m.notifications = nil
	return nil
}
