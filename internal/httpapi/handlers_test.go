package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/notify"
	"mocdesk.org/internal/service"
	"mocdesk.org/internal/session"
	"mocdesk.org/internal/store"
)

type testEnv struct {
	srv   *httptest.Server
	store *store.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemory()
	seedUsers(t, st)

	sessions, err := session.NewManager(st, "test-secret")
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	hub := notify.NewHub(st.Notifications())
	svc := service.New(st, service.WithNotifier(hub))
	api := New(svc, sessions, hub, ReadyProbe{}, "test", Options{
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: st}
}

func seedUsers(t *testing.T, st *store.Memory) {
	t.Helper()
	users := []struct {
		id, name, email, password string
		role                      domain.Role
	}{
		{"u-admin", "Sofia Almeida", "admin@mocdesk.org", "admin123", domain.RoleAdmin},
		{"u-eng", "Elena Duarte", "engineer@mocdesk.org", "engineer123", domain.RoleProcessEngineer},
		{"u-tech", "Rui Barros", "tech@mocdesk.org", "tech123", domain.RoleMaintenanceTech},
	}
	for _, u := range users {
		hash, err := session.HashPassword(u.password)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		err = st.Users().Create(t.Context(), domain.User{
			ID: u.id, Name: u.name, Email: u.email, Role: u.role,
			Active: true, PasswordHash: hash,
		})
		if err != nil {
			t.Fatalf("seed %s: %v", u.email, err)
		}
	}
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", email, status, body)
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("login decode: %v", err)
	}
	return resp.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload any) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode: %v (%s)", err, data)
	}
	return v
}

func TestHealthEndpointsArePublic(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz", "/v1/info", "/metrics"} {
		status, _ := e.do(t, http.MethodGet, path, "", nil)
		if status != http.StatusOK {
			t.Fatalf("%s status = %d", path, status)
		}
	}
}

func TestProtectedPathsRequireToken(t *testing.T) {
	e := newTestEnv(t)

	status, _ := e.do(t, http.MethodGet, "/v1/facilities", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", status)
	}

	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/v1/facilities", nil)
	req.Header.Set("Authorization", "Bearer bogus.token.value")
	resp, err := e.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Session-Expired") != "true" {
		t.Fatal("missing session teardown header")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newTestEnv(t)
	status, _ := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "admin@mocdesk.org",
		"password": "wrong",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d", status)
	}
}

func TestFacilityLifecycle(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@mocdesk.org", "admin123")

	status, body := e.do(t, http.MethodPost, "/v1/facilities", admin, map[string]any{
		"name":     "FPSO Atlantic Star",
		"type":     "floating_production",
		"location": map[string]any{"lat": -22.47, "lng": -40.32},
	})
	if status != http.StatusCreated {
		t.Fatalf("create: status %d: %s", status, body)
	}
	created := decode[domain.Facility](t, body)
	if created.ID == "" || created.Status != domain.FacilityOnline {
		t.Fatalf("created = %+v", created)
	}

	status, body = e.do(t, http.MethodGet, "/v1/facilities", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d", status)
	}
	if items := decode[[]domain.Facility](t, body); len(items) != 1 {
		t.Fatalf("list = %+v", items)
	}

	created.Status = domain.FacilityMaintenance
	status, body = e.do(t, http.MethodPut, "/v1/facilities/"+created.ID, admin, created)
	if status != http.StatusOK {
		t.Fatalf("update: status %d: %s", status, body)
	}

	status, _ = e.do(t, http.MethodDelete, "/v1/facilities/"+created.ID, admin, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete: status %d", status)
	}
	status, _ = e.do(t, http.MethodDelete, "/v1/facilities/"+created.ID, admin, nil)
	if status != http.StatusNotFound {
		t.Fatalf("second delete: status %d", status)
	}
}

func TestForbiddenRoleGetsAuditedViolation(t *testing.T) {
	e := newTestEnv(t)
	tech := e.login(t, "tech@mocdesk.org", "tech123")
	admin := e.login(t, "admin@mocdesk.org", "admin123")

	status, _ := e.do(t, http.MethodGet, "/v1/mocs", tech, nil)
	if status != http.StatusForbidden {
		t.Fatalf("tech reading mocs: status = %d", status)
	}

	status, body := e.do(t, http.MethodGet, "/v1/audit", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("audit: status %d", status)
	}
	entries := decode[[]domain.AuditEntry](t, body)
	var violations int
	for _, en := range entries {
		if en.Action == domain.ActionSecurityViolation {
			violations++
		}
	}
	if violations != 1 {
		t.Fatalf("violations = %d, want 1 (entries: %+v)", violations, entries)
	}
}

func TestMOCApprovalFlowOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	eng := e.login(t, "engineer@mocdesk.org", "engineer123")

	status, body := e.do(t, http.MethodPost, "/v1/mocs", eng, map[string]any{
		"title":       "Replace relief valve",
		"status":      "evaluation",
		"priority":    "high",
		"change_type": "mechanical",
	})
	if status != http.StatusCreated {
		t.Fatalf("create: status %d: %s", status, body)
	}
	created := decode[domain.MOCRequest](t, body)

	created.Status = domain.StatusApproved
	status, body = e.do(t, http.MethodPut, "/v1/mocs/"+created.ID, eng, created)
	if status != http.StatusOK {
		t.Fatalf("approve: status %d: %s", status, body)
	}
	approved := decode[domain.MOCRequest](t, body)
	if approved.History[0].Kind != domain.HistorySystem {
		t.Fatalf("history head = %+v", approved.History[0])
	}

	admin := e.login(t, "admin@mocdesk.org", "admin123")
	status, body = e.do(t, http.MethodGet, "/v1/mocs/"+created.ID+"/work-orders", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("linked orders: status %d", status)
	}
	orders := decode[[]domain.WorkOrder](t, body)
	if len(orders) != 1 || !strings.HasPrefix(orders[0].ID, "WO-AUTO-") {
		t.Fatalf("orders = %+v", orders)
	}
	if orders[0].Title != "IMPLEMENTATION: Replace relief valve" {
		t.Fatalf("title = %q", orders[0].Title)
	}
}

func TestRejectionWithoutJustificationIs400(t *testing.T) {
	e := newTestEnv(t)
	eng := e.login(t, "engineer@mocdesk.org", "engineer123")

	status, body := e.do(t, http.MethodPost, "/v1/mocs", eng, map[string]any{
		"title":  "Risky change",
		"status": "evaluation",
	})
	if status != http.StatusCreated {
		t.Fatalf("create: status %d", status)
	}
	created := decode[domain.MOCRequest](t, body)

	created.Status = domain.StatusRejected
	status, _ = e.do(t, http.MethodPut, "/v1/mocs/"+created.ID, eng, created)
	if status != http.StatusBadRequest {
		t.Fatalf("reject without justification: status %d", status)
	}
}

func TestUnknownJSONFieldIs400(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@mocdesk.org", "admin123")
	status, _ := e.do(t, http.MethodPost, "/v1/facilities", admin, map[string]any{
		"name":       "X",
		"surprising": true,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@mocdesk.org", "admin123")
	status, _ := e.do(t, http.MethodDelete, "/v1/mocs", admin, nil)
	if status != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", status)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@mocdesk.org", "admin123")
	eng := e.login(t, "engineer@mocdesk.org", "engineer123")

	// approving a request publishes a notification
	status, body := e.do(t, http.MethodPost, "/v1/mocs", eng, map[string]any{
		"title":  "Swap instrument air dryer",
		"status": "evaluation",
	})
	if status != http.StatusCreated {
		t.Fatalf("create: %d", status)
	}
	created := decode[domain.MOCRequest](t, body)
	created.Status = domain.StatusApproved
	if status, body = e.do(t, http.MethodPut, "/v1/mocs/"+created.ID, eng, created); status != http.StatusOK {
		t.Fatalf("approve: %d: %s", status, body)
	}

	status, body = e.do(t, http.MethodGet, "/v1/notifications", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("list: %d", status)
	}
	items := decode[[]domain.Notification](t, body)
	if len(items) != 1 || items[0].Read {
		t.Fatalf("items = %+v", items)
	}

	status, _ = e.do(t, http.MethodPost, fmt.Sprintf("/v1/notifications/%s/read", items[0].ID), admin, nil)
	if status != http.StatusNoContent {
		t.Fatalf("mark read: %d", status)
	}
	status, _ = e.do(t, http.MethodPost, "/v1/notifications/read-all", admin, nil)
	if status != http.StatusNoContent {
		t.Fatalf("read all: %d", status)
	}
	status, _ = e.do(t, http.MethodDelete, "/v1/notifications", admin, nil)
	if status != http.StatusNoContent {
		t.Fatalf("clear: %d", status)
	}
	status, body = e.do(t, http.MethodGet, "/v1/notifications", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("list after clear: %d", status)
	}
	if items := decode[[]domain.Notification](t, body); len(items) != 0 {
		t.Fatalf("items after clear = %+v", items)
	}
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	e := newTestEnv(t)
	eng := e.login(t, "engineer@mocdesk.org", "engineer123")
	admin := e.login(t, "admin@mocdesk.org", "admin123")

	status, _ := e.do(t, http.MethodGet, "/v1/users", eng, nil)
	if status != http.StatusForbidden {
		t.Fatalf("engineer listing users: %d", status)
	}

	status, body := e.do(t, http.MethodPost, "/v1/users", admin, map[string]string{
		"name":     "Nina Costa",
		"email":    "nina@mocdesk.org",
		"role":     "hse_coordinator",
		"password": "pass1234",
	})
	if status != http.StatusCreated {
		t.Fatalf("create user: %d: %s", status, body)
	}
	created := decode[domain.User](t, body)
	if created.Role != domain.RoleHSECoordinator {
		t.Fatalf("role = %s", created.Role)
	}
	if strings.Contains(string(body), "password") {
		t.Fatalf("password material leaked: %s", body)
	}
}

func TestLogoutAndResetPassword(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "admin@mocdesk.org", "admin123")

	status, _ := e.do(t, http.MethodPost, "/v1/auth/logout", admin, nil)
	if status != http.StatusNoContent {
		t.Fatalf("logout: %d", status)
	}

	status, _ = e.do(t, http.MethodPost, "/v1/auth/reset-password", "", map[string]string{
		"email": "ghost@mocdesk.org",
	})
	if status != http.StatusAccepted {
		t.Fatalf("reset for unknown account must still be accepted: %d", status)
	}
}

func TestRefreshFlow(t *testing.T) {
	e := newTestEnv(t)
	status, body := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "engineer@mocdesk.org",
		"password": "engineer123",
	})
	if status != http.StatusOK {
		t.Fatalf("login: %d", status)
	}
	first := decode[map[string]any](t, body)

	status, body = e.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": first["refresh_token"].(string),
	})
	if status != http.StatusOK {
		t.Fatalf("refresh: %d: %s", status, body)
	}
	second := decode[map[string]any](t, body)
	if second["refresh_token"] != first["refresh_token"] {
		t.Fatal("refresh token was rotated")
	}
	if second["access_token"] == "" {
		t.Fatal("no new access token")
	}

	status, _ = e.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": "garbage",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("garbage refresh: %d", status)
	}
}
