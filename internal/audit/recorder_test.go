package audit

import (
	"context"
	"testing"
	"time"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/store"
)

func TestRecorderAssignsIDAndTimestamp(t *testing.T) {
	st := store.NewMemory()
	fixed := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	rec := NewRecorder(st.Audit(), WithClock(func() time.Time { return fixed }))

	actor := domain.User{ID: "u1", Name: "Sofia Almeida", Role: domain.RoleAdmin}
	changes := []domain.FieldChange{{Field: "status", OldValue: "draft", NewValue: "evaluation"}}
	if err := rec.Record(context.Background(), actor, domain.ActionWrite, domain.ResourceMOCs, "Updated change request MOC-1", changes); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, _ := st.Audit().List(context.Background())
	if len(entries) != 1 {
		t.Fatalf("len = %d", len(entries))
	}
	e := entries[0]
	if e.ID == "" {
		t.Fatal("entry id not assigned")
	}
	if !e.Timestamp.Equal(fixed) {
		t.Fatalf("timestamp = %v, want %v", e.Timestamp, fixed)
	}
	if e.ActorID != "u1" || e.ActorRole != domain.RoleAdmin {
		t.Fatalf("actor = %+v", e)
	}
	if len(e.Changes) != 1 || e.Changes[0].Field != "status" {
		t.Fatalf("changes = %+v", e.Changes)
	}
}

func TestViolationEntry(t *testing.T) {
	st := store.NewMemory()
	rec := NewRecorder(st.Audit())

	actor := domain.User{ID: "u2", Name: "Marcos Vieira", Role: domain.RoleMaintenanceTech}
	if err := rec.Violation(context.Background(), actor, domain.ResourceMOCs, "write"); err != nil {
		t.Fatalf("violation: %v", err)
	}

	entries, _ := st.Audit().List(context.Background())
	if len(entries) != 1 {
		t.Fatalf("len = %d", len(entries))
	}
	e := entries[0]
	if e.Action != domain.ActionSecurityViolation {
		t.Fatalf("action = %s", e.Action)
	}
	if e.Details != "Unauthorized access attempt: write on MOCS" {
		t.Fatalf("details = %q", e.Details)
	}
	if len(e.Changes) != 0 {
		t.Fatalf("violation must carry no changes: %+v", e.Changes)
	}
}

func TestRecorderNewestFirst(t *testing.T) {
	st := store.NewMemory()
	ts := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	rec := NewRecorder(st.Audit(), WithClock(func() time.Time {
		ts = ts.Add(time.Minute)
		return ts
	}))

	actor := domain.User{ID: "u1", Role: domain.RoleAdmin}
	ctx := context.Background()
	_ = rec.Record(ctx, actor, domain.ActionWrite, domain.ResourceFacilities, "first", nil)
	_ = rec.Record(ctx, actor, domain.ActionWrite, domain.ResourceFacilities, "second", nil)

	entries, _ := st.Audit().List(ctx)
	if entries[0].Details != "second" || entries[1].Details != "first" {
		t.Fatalf("order = %q, %q", entries[0].Details, entries[1].Details)
	}
}
