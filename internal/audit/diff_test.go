package audit

import (
	"testing"
	"time"

	"mocdesk.org/internal/domain"
)

func sampleMOC() domain.MOCRequest {
	return domain.MOCRequest{
		ID:          "MOC-1",
		Title:       "Replace relief valve",
		Requester:   "Elena Duarte",
		Status:      domain.StatusEvaluation,
		Priority:    domain.PriorityHigh,
		ChangeType:  domain.ChangeMechanical,
		FacilityID:  "FAC-1",
		Description: "Swap PSV-1024 for higher set pressure model.",
		RiskScore:   9,
		History:     []domain.HistoryEntry{{ID: "h1", Action: "Created"}},
		UpdatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDiffIdenticalIsEmpty(t *testing.T) {
	m := sampleMOC()
	if changes := Diff(m, m, MOCFields); len(changes) != 0 {
		t.Fatalf("diff of identical values = %+v", changes)
	}
}

func TestDiffIgnoresBookkeepingFields(t *testing.T) {
	oldV := sampleMOC()
	newV := sampleMOC()
	newV.ID = "MOC-other"
	newV.UpdatedAt = newV.UpdatedAt.Add(48 * time.Hour)
	newV.History = append([]domain.HistoryEntry{{ID: "h2", Action: "Commented"}}, newV.History...)

	if changes := Diff(oldV, newV, MOCFields); len(changes) != 0 {
		t.Fatalf("bookkeeping fields leaked into diff: %+v", changes)
	}
}

func TestDiffReportsChangedFieldsInDeclaredOrder(t *testing.T) {
	oldV := sampleMOC()
	newV := sampleMOC()
	newV.Status = domain.StatusApproved
	newV.Title = "Replace relief valve (rev B)"
	newV.RiskScore = 12

	changes := Diff(oldV, newV, MOCFields)
	if len(changes) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(changes), changes)
	}
	// declared order: title before status before risk_score
	wantOrder := []string{"title", "status", "risk_score"}
	for i, want := range wantOrder {
		if changes[i].Field != want {
			t.Fatalf("changes[%d].Field = %s, want %s", i, changes[i].Field, want)
		}
	}
	if changes[1].OldValue != domain.StatusEvaluation || changes[1].NewValue != domain.StatusApproved {
		t.Fatalf("status change = %+v", changes[1])
	}
}

func TestDiffComparesNestedValuesByContent(t *testing.T) {
	oldV := domain.Asset{Tag: "P-201A", Parameters: domain.Parameters{Pressure: 8.1}}
	newV := domain.Asset{Tag: "P-201A", Parameters: domain.Parameters{Pressure: 8.1}}
	if changes := Diff(oldV, newV, AssetFields); len(changes) != 0 {
		t.Fatalf("equal nested structs diffed: %+v", changes)
	}

	newV.Parameters.Pressure = 9.4
	changes := Diff(oldV, newV, AssetFields)
	if len(changes) != 1 || changes[0].Field != "parameters" {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestUserFieldsExcludePasswordHash(t *testing.T) {
	oldV := domain.User{ID: "u1", Name: "A", PasswordHash: "x"}
	newV := domain.User{ID: "u1", Name: "A", PasswordHash: "y"}
	if changes := Diff(oldV, newV, UserFields); len(changes) != 0 {
		t.Fatalf("password hash leaked into diff: %+v", changes)
	}
}
