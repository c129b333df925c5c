package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/store"
)

func newTestStore(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := domain.User{
		ID:           "u1",
		Name:         "Elena Duarte",
		Email:        "engineer@mocdesk.org",
		Role:         domain.RoleProcessEngineer,
		Active:       true,
		PasswordHash: hash,
	}
	if err := m.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return m
}

func newTestManager(t *testing.T, st store.Store, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(st, "test-secret", opts...)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueAndValidate(t *testing.T) {
	st := newTestStore(t)
	m := newTestManager(t, st)

	pair, user, err := m.Issue(context.Background(), "Engineer@MOCDESK.org", "s3cret")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("user = %+v", user)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token pair")
	}

	got, ok := m.Validate(pair.AccessToken)
	if !ok {
		t.Fatal("validate rejected fresh token")
	}
	if got.ID != "u1" || got.Role != domain.RoleProcessEngineer || got.Email != "engineer@mocdesk.org" {
		t.Fatalf("snapshot = %+v", got)
	}

	entries, _ := st.Audit().List(context.Background())
	if len(entries) != 1 || entries[0].Action != domain.ActionLogin {
		t.Fatalf("audit after login = %+v", entries)
	}
}

func TestIssueRejectsBadCredentials(t *testing.T) {
	st := newTestStore(t)
	m := newTestManager(t, st)
	ctx := context.Background()

	tests := []struct {
		name            string
		email, password string
	}{
		{"wrong password", "engineer@mocdesk.org", "wrong"},
		{"unknown account", "ghost@mocdesk.org", "s3cret"},
		{"empty password", "engineer@mocdesk.org", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := m.Issue(ctx, tt.email, tt.password); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("err = %v, want ErrUnauthenticated", err)
			}
		})
	}

	if entries, _ := st.Audit().List(ctx); len(entries) != 0 {
		t.Fatalf("failed logins must not audit LOGIN: %+v", entries)
	}
}

func TestIssueRejectsInactiveAccount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	u, _ := st.Users().Get(ctx, "u1")
	u.Active = false
	if err := st.Users().Update(ctx, u); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	m := newTestManager(t, st)
	if _, _, err := m.Issue(ctx, "engineer@mocdesk.org", "s3cret"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestValidateExpiryBoundary(t *testing.T) {
	st := newTestStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	m := newTestManager(t, st,
		WithAccessTTL(time.Hour),
		WithClock(func() time.Time { return *clock }),
	)

	pair, _, err := m.Issue(context.Background(), "engineer@mocdesk.org", "s3cret")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	step := now.Add(time.Hour - time.Second)
	clock = &step
	if _, ok := m.Validate(pair.AccessToken); !ok {
		t.Fatal("token rejected one second before expiry")
	}

	past := now.Add(time.Hour + time.Second)
	clock = &past
	if _, ok := m.Validate(pair.AccessToken); ok {
		t.Fatal("token accepted after expiry")
	}
}

func TestValidateRejectsGarbageAndWrongType(t *testing.T) {
	st := newTestStore(t)
	m := newTestManager(t, st)

	pair, _, err := m.Issue(context.Background(), "engineer@mocdesk.org", "s3cret")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, ok := m.Validate(""); ok {
		t.Fatal("empty token accepted")
	}
	if _, ok := m.Validate("not.a.jwt"); ok {
		t.Fatal("garbage token accepted")
	}
	// a refresh token must not pass as an access token
	if _, ok := m.Validate(pair.RefreshToken); ok {
		t.Fatal("refresh token accepted by Validate")
	}

	other := newTestManager(t, st)
	forged, _, _ := other.Issue(context.Background(), "engineer@mocdesk.org", "s3cret")
	wrongSecret, err := NewManager(st, "different-secret")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, ok := wrongSecret.Validate(forged.AccessToken); ok {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestRefreshReadsLiveUserAndKeepsToken(t *testing.T) {
	st := newTestStore(t)
	m := newTestManager(t, st)
	ctx := context.Background()

	pair, _, err := m.Issue(ctx, "engineer@mocdesk.org", "s3cret")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// promote the user after issuance: the old access token keeps the
	// stale snapshot, the refreshed one carries the new role
	u, _ := st.Users().Get(ctx, "u1")
	u.Role = domain.RoleFacilityManager
	if err := st.Users().Update(ctx, u); err != nil {
		t.Fatalf("update user: %v", err)
	}

	stale, ok := m.Validate(pair.AccessToken)
	if !ok || stale.Role != domain.RoleProcessEngineer {
		t.Fatalf("stale snapshot = %+v, ok=%v", stale, ok)
	}

	next, fresh, err := m.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.Role != domain.RoleFacilityManager {
		t.Fatalf("refreshed user role = %s", fresh.Role)
	}
	if next.RefreshToken != pair.RefreshToken {
		t.Fatal("refresh token was rotated")
	}
	live, ok := m.Validate(next.AccessToken)
	if !ok || live.Role != domain.RoleFacilityManager {
		t.Fatalf("refreshed snapshot = %+v, ok=%v", live, ok)
	}
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	st := newTestStore(t)
	m := newTestManager(t, st)
	ctx := context.Background()

	pair, _, err := m.Issue(ctx, "engineer@mocdesk.org", "s3cret")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	u, _ := st.Users().Get(ctx, "u1")
	u.Active = false
	_ = st.Users().Update(ctx, u)

	if _, _, err := m.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestEndAppendsLogout(t *testing.T) {
	st := newTestStore(t)
	m := newTestManager(t, st)
	ctx := context.Background()

	pair, _, err := m.Issue(ctx, "engineer@mocdesk.org", "s3cret")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	m.End(ctx, pair.AccessToken)

	entries, _ := st.Audit().List(ctx)
	if len(entries) != 2 {
		t.Fatalf("audit len = %d, want 2", len(entries))
	}
	if entries[0].Action != domain.ActionLogout || entries[1].Action != domain.ActionLogin {
		t.Fatalf("audit order = %s, %s", entries[0].Action, entries[1].Action)
	}

	// ending with a bad token is a silent no-op
	m.End(ctx, "garbage")
	entries, _ = st.Audit().List(ctx)
	if len(entries) != 2 {
		t.Fatalf("audit len after bad End = %d", len(entries))
	}
}
