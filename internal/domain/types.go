package domain

import (
	"errors"
	"time"
)

// Role identifies an operational profile. Authorization is a plain
// membership test against per-resource role sets; Admin passes every
// check regardless of table contents.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleFacilityManager   Role = "facility_manager"
	RoleProcessEngineer   Role = "process_engineer"
	RoleMaintenanceTech   Role = "maintenance_tech"
	RoleHSECoordinator    Role = "hse_coordinator"
	RoleApprovalCommittee Role = "approval_committee"
)

// Roles lists every operational role.
var Roles = []Role{
	RoleAdmin,
	RoleFacilityManager,
	RoleProcessEngineer,
	RoleMaintenanceTech,
	RoleHSECoordinator,
	RoleApprovalCommittee,
}

// NormalizeRole resolves a role name, accepting the simplified
// registration-time aliases (engineer/manager/auditor) used by the
// signup flow alongside the canonical names.
func NormalizeRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleFacilityManager, RoleProcessEngineer,
		RoleMaintenanceTech, RoleHSECoordinator, RoleApprovalCommittee:
		return Role(raw), true
	}
	switch raw {
	case "engineer":
		return RoleProcessEngineer, true
	case "manager":
		return RoleFacilityManager, true
	case "auditor":
		return RoleAdmin, true
	}
	return "", false
}

// Resource is a permission-gated record category.
type Resource string

const (
	ResourceFacilities Resource = "FACILITIES"
	ResourceAssets     Resource = "ASSETS"
	ResourceMOCs       Resource = "MOCS"
	ResourceRisks      Resource = "RISKS"
	ResourceWorkOrders Resource = "WORK_ORDERS"
	ResourceAdminUsers Resource = "ADMIN_USERS"
	ResourceAuditTrail Resource = "AUDIT_TRAIL"
	ResourceStandards  Resource = "STANDARDS"
	ResourceLinks      Resource = "LINKS"

	// ResourceSession labels audit entries for login/logout; it is not
	// part of the permission table.
	ResourceSession Resource = "SESSION"
)

// User is a provisioned account. Users are never hard-deleted; Active
// is the soft status flag.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FacilityType enumerates installation kinds.
type FacilityType string

const (
	FacilityFloatingProduction FacilityType = "floating_production"
	FacilityFixed              FacilityType = "fixed"
	FacilityOnshore            FacilityType = "onshore"
)

// FacilityStatus is the operating state of an installation.
type FacilityStatus string

const (
	FacilityOnline      FacilityStatus = "online"
	FacilityOffline     FacilityStatus = "offline"
	FacilityMaintenance FacilityStatus = "maintenance"
)

// Location is a resolved geographic point plus the descriptive
// metadata the geocoding collaborator returns.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
	MapURL  string  `json:"map_url,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
}

// Facility is an industrial installation.
type Facility struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      FacilityType   `json:"type"`
	Location  Location       `json:"location"`
	Status    FacilityStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Attachment is an inline document reference.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        string `json:"data,omitempty"`
}

// Parameters is the live process snapshot attached to an asset.
type Parameters struct {
	Temperature float64 `json:"temperature"`
	Pressure    float64 `json:"pressure"`
	Flow        float64 `json:"flow"`
}

// Asset is a tagged equipment item. Tag is the human-meaningful
// alternate key; deletion is keyed by tag.
type Asset struct {
	Tag         string       `json:"tag"`
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	FacilityID  string       `json:"facility_id"`
	Type        string       `json:"type"`
	Category    string       `json:"category"`
	Material    string       `json:"material"`
	LastMaint   time.Time    `json:"last_maint"`
	Parameters  Parameters   `json:"parameters"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// MOCStatus is the ordered workflow state of a change request.
// Rejected is a terminal side-branch.
type MOCStatus string

const (
	StatusDraft          MOCStatus = "draft"
	StatusEvaluation     MOCStatus = "evaluation"
	StatusApproved       MOCStatus = "approved"
	StatusImplementation MOCStatus = "implementation"
	StatusCompleted      MOCStatus = "completed"
	StatusRejected       MOCStatus = "rejected"
)

// MOCPriority ranks urgency.
type MOCPriority string

const (
	PriorityLow      MOCPriority = "low"
	PriorityMedium   MOCPriority = "medium"
	PriorityHigh     MOCPriority = "high"
	PriorityCritical MOCPriority = "critical"
)

// ChangeType classifies the engineering discipline of a change.
type ChangeType string

const (
	ChangeMechanical      ChangeType = "mechanical"
	ChangeProcess         ChangeType = "process"
	ChangeProcedure       ChangeType = "procedure"
	ChangePersonnel       ChangeType = "personnel"
	ChangeElectrical      ChangeType = "electrical"
	ChangeInstrumentation ChangeType = "instrumentation"
	ChangeCivil           ChangeType = "civil"
)

// ImpactFlags are independent booleans describing affected areas.
type ImpactFlags struct {
	Safety        bool `json:"safety"`
	Environmental bool `json:"environmental"`
	Operational   bool `json:"operational"`
	Regulatory    bool `json:"regulatory"`
	Emergency     bool `json:"emergency"`
}

// HistoryKind distinguishes user-authored from system-authored
// history entries.
type HistoryKind string

const (
	HistoryUser   HistoryKind = "user"
	HistorySystem HistoryKind = "system"
)

// HistoryEntry is one line of a change request's log. The history
// slice is strictly newest-first and is never reordered.
type HistoryEntry struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	UserName  string      `json:"user_name"`
	Action    string      `json:"action"`
	Details   string      `json:"details,omitempty"`
	Kind      HistoryKind `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
}

// TaskStatus tracks checklist item progress.
type TaskStatus string

const (
	TaskToDo       TaskStatus = "to_do"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskDone       TaskStatus = "done"
)

// Task is a checklist item attached to a change request. Phase is
// "pre" or "post" relative to implementation.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Assignee  string     `json:"assignee"`
	DueDate   time.Time  `json:"due_date"`
	Completed bool       `json:"completed"`
	Status    TaskStatus `json:"status"`
	Phase     string     `json:"phase"`
}

// RiskAssessment is a scored evaluation, either embedded in a change
// request or stored standalone in the risks collection.
type RiskAssessment struct {
	ID          string    `json:"id,omitempty"`
	MOCID       string    `json:"moc_id,omitempty"`
	Probability int       `json:"probability"`
	Severity    int       `json:"severity"`
	Score       int       `json:"score"`
	Rationale   string    `json:"rationale"`
	AssessedAt  time.Time `json:"assessed_at"`
}

// MOCRequest is the primary workflow entity: a Management of Change
// request tracked from draft through approval to completion.
type MOCRequest struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Requester           string          `json:"requester"`
	Status              MOCStatus       `json:"status"`
	Priority            MOCPriority     `json:"priority"`
	ChangeType          ChangeType      `json:"change_type"`
	Discipline          string          `json:"discipline"`
	FacilityID          string          `json:"facility_id"`
	Impacts             ImpactFlags     `json:"impacts"`
	Description         string          `json:"description"`
	TechnicalSummary    string          `json:"technical_summary,omitempty"`
	TechnicalAssessment string          `json:"technical_assessment,omitempty"`
	RiskScore           int             `json:"risk_score"`
	RiskAssessment      *RiskAssessment `json:"risk_assessment,omitempty"`
	Attachments         []Attachment    `json:"attachments,omitempty"`
	Tasks               []Task          `json:"tasks,omitempty"`
	History             []HistoryEntry  `json:"history"`
	RelatedAssetTags    []string        `json:"related_asset_tags,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// WorkOrderStatus is the execution state of a work order.
type WorkOrderStatus string

const (
	WorkOrderPending    WorkOrderStatus = "pending"
	WorkOrderInProgress WorkOrderStatus = "in_progress"
	WorkOrderDone       WorkOrderStatus = "done"
)

// WorkOrder is an execution item, optionally linked to the change
// request that originated it. An empty MOCID means unlinked.
type WorkOrder struct {
	ID         string          `json:"id"`
	MOCID      string          `json:"moc_id,omitempty"`
	Title      string          `json:"title"`
	AssignedTo string          `json:"assigned_to"`
	DueDate    time.Time       `json:"due_date"`
	Status     WorkOrderStatus `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RegulatoryStandard is a reference record with no transition logic.
type RegulatoryStandard struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

// UsefulLink is a bookmark reference record.
type UsefulLink struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url"`
	Icon  string `json:"icon,omitempty"`
}

// Severity classifies notifications.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// Notification is a short-lived user-facing message. The store keeps
// at most 50, newest first.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	Link      string    `json:"link,omitempty"`
}

// AuditAction enumerates recorded action kinds.
type AuditAction string

const (
	ActionLogin             AuditAction = "LOGIN"
	ActionLogout            AuditAction = "LOGOUT"
	ActionWrite             AuditAction = "WRITE"
	ActionSecurityViolation AuditAction = "SECURITY_VIOLATION"
	ActionSystem            AuditAction = "SYSTEM"
)

// FieldChange is one field-level difference between two versions of
// an entity.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

// AuditEntry is an immutable record of one action. The audit trail is
// a capped ring buffer (newest first, oldest evicted past 1000).
type AuditEntry struct {
	ID        string        `json:"id"`
	ActorID   string        `json:"actor_id"`
	ActorName string        `json:"actor_name"`
	ActorRole Role          `json:"actor_role"`
	Action    AuditAction   `json:"action"`
	Resource  Resource      `json:"resource"`
	Timestamp time.Time     `json:"timestamp"`
	Details   string        `json:"details,omitempty"`
	Changes   []FieldChange `json:"changes,omitempty"`
}

// Sentinel errors shared across packages. The HTTP layer maps these
// to status codes; the facade maps authorization denials to
// ErrForbidden after recording the security violation.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("resource conflict")
)
