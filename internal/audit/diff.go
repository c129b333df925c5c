// Package audit computes field-level change sets and records them in
// the capped audit trail.
package audit

import (
	"encoding/json"

	"mocdesk.org/internal/domain"
)

// Field pairs a stable field name with its extractor. Diffing walks a
// declared list of these instead of reflecting over whole structs, so
// the comparable surface of each entity is explicit and bookkeeping
// fields (id, updated-at, history) are excluded by construction.
type Field[T any] struct {
	Name string
	Get  func(T) any
}

// Diff returns the changes between two versions of an entity, in the
// declared field order. Values are compared by their JSON encoding, so
// nested structs and slices compare by content.
func Diff[T any](oldV, newV T, fields []Field[T]) []domain.FieldChange {
	var changes []domain.FieldChange
	for _, f := range fields {
		ov := f.Get(oldV)
		nv := f.Get(newV)
		if jsonEqual(ov, nv) {
			continue
		}
		changes = append(changes, domain.FieldChange{
			Field:    f.Name,
			OldValue: ov,
			NewValue: nv,
		})
	}
	return changes
}

func jsonEqual(a, b any) bool {
	aj, aerr := json.Marshal(a)
	bj, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		// unencodable values are treated as changed so the trail errs
		// toward recording
		return false
	}
	return string(aj) == string(bj)
}

// FacilityFields is the comparable surface of a facility.
var FacilityFields = []Field[domain.Facility]{
	{Name: "name", Get: func(f domain.Facility) any { return f.Name }},
	{Name: "type", Get: func(f domain.Facility) any { return f.Type }},
	{Name: "location", Get: func(f domain.Facility) any { return f.Location }},
	{Name: "status", Get: func(f domain.Facility) any { return f.Status }},
}

// AssetFields is the comparable surface of an asset.
var AssetFields = []Field[domain.Asset]{
	{Name: "name", Get: func(a domain.Asset) any { return a.Name }},
	{Name: "facility_id", Get: func(a domain.Asset) any { return a.FacilityID }},
	{Name: "type", Get: func(a domain.Asset) any { return a.Type }},
	{Name: "category", Get: func(a domain.Asset) any { return a.Category }},
	{Name: "material", Get: func(a domain.Asset) any { return a.Material }},
	{Name: "last_maint", Get: func(a domain.Asset) any { return a.LastMaint }},
	{Name: "parameters", Get: func(a domain.Asset) any { return a.Parameters }},
	{Name: "attachments", Get: func(a domain.Asset) any { return a.Attachments }},
}

// MOCFields is the comparable surface of a change request. History is
// deliberately absent: appending log lines is not an edit.
var MOCFields = []Field[domain.MOCRequest]{
	{Name: "title", Get: func(m domain.MOCRequest) any { return m.Title }},
	{Name: "requester", Get: func(m domain.MOCRequest) any { return m.Requester }},
	{Name: "status", Get: func(m domain.MOCRequest) any { return m.Status }},
	{Name: "priority", Get: func(m domain.MOCRequest) any { return m.Priority }},
	{Name: "change_type", Get: func(m domain.MOCRequest) any { return m.ChangeType }},
	{Name: "discipline", Get: func(m domain.MOCRequest) any { return m.Discipline }},
	{Name: "facility_id", Get: func(m domain.MOCRequest) any { return m.FacilityID }},
	{Name: "impacts", Get: func(m domain.MOCRequest) any { return m.Impacts }},
	{Name: "description", Get: func(m domain.MOCRequest) any { return m.Description }},
	{Name: "technical_summary", Get: func(m domain.MOCRequest) any { return m.TechnicalSummary }},
	{Name: "technical_assessment", Get: func(m domain.MOCRequest) any { return m.TechnicalAssessment }},
	{Name: "risk_score", Get: func(m domain.MOCRequest) any { return m.RiskScore }},
	{Name: "risk_assessment", Get: func(m domain.MOCRequest) any { return m.RiskAssessment }},
	{Name: "attachments", Get: func(m domain.MOCRequest) any { return m.Attachments }},
	{Name: "tasks", Get: func(m domain.MOCRequest) any { return m.Tasks }},
	{Name: "related_asset_tags", Get: func(m domain.MOCRequest) any { return m.RelatedAssetTags }},
}

// WorkOrderFields is the comparable surface of a work order.
var WorkOrderFields = []Field[domain.WorkOrder]{
	{Name: "moc_id", Get: func(w domain.WorkOrder) any { return w.MOCID }},
	{Name: "title", Get: func(w domain.WorkOrder) any { return w.Title }},
	{Name: "assigned_to", Get: func(w domain.WorkOrder) any { return w.AssignedTo }},
	{Name: "due_date", Get: func(w domain.WorkOrder) any { return w.DueDate }},
	{Name: "status", Get: func(w domain.WorkOrder) any { return w.Status }},
}

// UserFields is the comparable surface of an account. The password
// hash never appears in the trail.
var UserFields = []Field[domain.User]{
	{Name: "name", Get: func(u domain.User) any { return u.Name }},
	{Name: "email", Get: func(u domain.User) any { return u.Email }},
	{Name: "role", Get: func(u domain.User) any { return u.Role }},
	{Name: "active", Get: func(u domain.User) any { return u.Active }},
}

// StandardFields is the comparable surface of a regulatory standard.
var StandardFields = []Field[domain.RegulatoryStandard]{
	{Name: "code", Get: func(s domain.RegulatoryStandard) any { return s.Code }},
	{Name: "title", Get: func(s domain.RegulatoryStandard) any { return s.Title }},
	{Name: "status", Get: func(s domain.RegulatoryStandard) any { return s.Status }},
	{Name: "description", Get: func(s domain.RegulatoryStandard) any { return s.Description }},
	{Name: "link", Get: func(s domain.RegulatoryStandard) any { return s.Link }},
}

// LinkFields is the comparable surface of a bookmark.
var LinkFields = []Field[domain.UsefulLink]{
	{Name: "label", Get: func(l domain.UsefulLink) any { return l.Label }},
	{Name: "url", Get: func(l domain.UsefulLink) any { return l.URL }},
	{Name: "icon", Get: func(l domain.UsefulLink) any { return l.Icon }},
}
