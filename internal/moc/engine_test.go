package moc

import (
	"errors"
	"strings"
	"testing"
	"time"

	"mocdesk.org/internal/domain"
)

func request(status domain.MOCStatus) domain.MOCRequest {
	return domain.MOCRequest{
		ID:     "MOC-1",
		Title:  "Replace relief valve",
		Status: status,
		History: []domain.HistoryEntry{
			{ID: "h1", UserID: "u1", Action: "Created", Kind: domain.HistoryUser},
		},
	}
}

func TestPlanLegalTransitions(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		from, to domain.MOCStatus
		wantErr  bool
	}{
		{domain.StatusDraft, domain.StatusEvaluation, false},
		{domain.StatusDraft, domain.StatusApproved, false},
		{domain.StatusEvaluation, domain.StatusApproved, false},
		{domain.StatusEvaluation, domain.StatusDraft, false},
		{domain.StatusApproved, domain.StatusImplementation, false},
		{domain.StatusImplementation, domain.StatusCompleted, false},
		{domain.StatusRejected, domain.StatusDraft, false},
		{domain.StatusCompleted, domain.StatusDraft, true},
		{domain.StatusDraft, domain.StatusImplementation, true},
		{domain.StatusDraft, domain.StatusCompleted, true},
		{domain.StatusApproved, domain.StatusDraft, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			existing := request(tt.from)
			proposed := request(tt.to)
			_, err := e.Plan(existing, proposed)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("err = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil && tt.to != domain.StatusRejected {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestPlanSameStatusIsAlwaysLegal(t *testing.T) {
	e := NewEngine()
	for _, status := range []domain.MOCStatus{
		domain.StatusDraft, domain.StatusEvaluation, domain.StatusApproved,
		domain.StatusImplementation, domain.StatusCompleted, domain.StatusRejected,
	} {
		existing := request(status)
		proposed := request(status)
		proposed.Description = "edited"
		if status == domain.StatusRejected {
			// a rejected request always carries its justification
			existing.History[0].Details = "Set pressure out of design envelope"
			proposed.History[0].Details = "Set pressure out of design envelope"
		}
		out, err := e.Plan(existing, proposed)
		if err != nil {
			t.Fatalf("same-status edit at %s: %v", status, err)
		}
		if out.WorkOrder != nil {
			t.Fatalf("same-status edit at %s produced a work order", status)
		}
	}
}

func TestPlanRejectionRequiresJustification(t *testing.T) {
	e := NewEngine()
	existing := request(domain.StatusEvaluation)

	proposed := request(domain.StatusRejected)
	proposed.History = []domain.HistoryEntry{
		{ID: "h2", UserID: "u2", Action: "Rejection", Details: "   ", Kind: domain.HistoryUser},
	}
	if _, err := e.Plan(existing, proposed); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank justification: err = %v, want ErrValidation", err)
	}

	proposed.History = nil
	if _, err := e.Plan(existing, proposed); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("no history: err = %v, want ErrValidation", err)
	}

	proposed.History = []domain.HistoryEntry{
		{ID: "h2", UserID: "u2", Action: "Rejection", Details: "Set pressure out of design envelope", Kind: domain.HistoryUser},
	}
	out, err := e.Plan(existing, proposed)
	if err != nil {
		t.Fatalf("justified rejection: %v", err)
	}
	if out.WorkOrder != nil {
		t.Fatal("rejection created a work order")
	}
}

func TestPlanRejectedResaveCannotEraseJustification(t *testing.T) {
	e := NewEngine()
	existing := request(domain.StatusRejected)
	existing.History[0].Details = "Set pressure out of design envelope"

	proposed := request(domain.StatusRejected)
	proposed.History[0].Details = ""
	if _, err := e.Plan(existing, proposed); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blanked justification: err = %v, want ErrValidation", err)
	}

	proposed.History = nil
	if _, err := e.Plan(existing, proposed); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("dropped history: err = %v, want ErrValidation", err)
	}

	proposed = request(domain.StatusRejected)
	proposed.History[0].Details = "Set pressure out of design envelope"
	proposed.Description = "clarified scope"
	if _, err := e.Plan(existing, proposed); err != nil {
		t.Fatalf("justified re-save: %v", err)
	}
}

func TestPlanApprovalCascade(t *testing.T) {
	fixed := time.Date(2026, 3, 15, 10, 0, 0, 123*int(time.Millisecond), time.UTC)
	e := NewEngine(WithClock(func() time.Time { return fixed }))

	existing := request(domain.StatusEvaluation)
	proposed := request(domain.StatusApproved)

	out, err := e.Plan(existing, proposed)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	wo := out.WorkOrder
	if wo == nil {
		t.Fatal("approval did not create a work order")
	}
	if !strings.HasPrefix(wo.ID, "WO-AUTO-") || len(wo.ID) != len("WO-AUTO-")+4 {
		t.Fatalf("work order id = %q", wo.ID)
	}
	if wo.Title != "IMPLEMENTATION: Replace relief valve" {
		t.Fatalf("title = %q", wo.Title)
	}
	if wo.Status != domain.WorkOrderPending || wo.AssignedTo != PlaceholderAssignee {
		t.Fatalf("work order = %+v", wo)
	}
	if !wo.DueDate.Equal(fixed.AddDate(0, 0, 7)) {
		t.Fatalf("due date = %v, want +7d", wo.DueDate)
	}
	if wo.MOCID != "MOC-1" {
		t.Fatalf("moc link = %q", wo.MOCID)
	}

	if len(out.MOC.History) != 2 {
		t.Fatalf("history len = %d", len(out.MOC.History))
	}
	head := out.MOC.History[0]
	if head.Kind != domain.HistorySystem {
		t.Fatalf("head kind = %s", head.Kind)
	}
	if !strings.Contains(head.Details, wo.ID) {
		t.Fatalf("system entry %q does not reference %s", head.Details, wo.ID)
	}
}

func TestPlanApprovalIsOneShot(t *testing.T) {
	e := NewEngine()
	existing := request(domain.StatusApproved)
	proposed := request(domain.StatusApproved)
	proposed.Description = "touched after approval"

	out, err := e.Plan(existing, proposed)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if out.WorkOrder != nil {
		t.Fatal("approved -> approved re-fired the cascade")
	}
	if len(out.MOC.History) != len(proposed.History) {
		t.Fatal("approved -> approved added history")
	}
}
