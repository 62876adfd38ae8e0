package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/api/handlers"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// testEnv wires the router against an in-memory store with a single local
// password provider, the way the server assembles it at startup.
type testEnv struct {
	handler http.Handler
	store   *store.GORMStore
	hasher  *auth.Hasher
	tokens  *auth.TokenService
}

func newTestEnv(t *testing.T, extraProviders ...auth.Provider) *testEnv {
	t.Helper()

	st, err := store.New(&store.Config{
		Type: store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{
			Path: ":memory:",
		},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	hasher := auth.NewHasher()
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: testSecret})
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}

	local := auth.NewLocalProvider("local", st, hasher)
	providers := append([]auth.Provider{local}, extraProviders...)
	authenticator := auth.NewAuthenticator(providers, true, auth.WithAuditSink(st))

	handler := NewRouter(&Deps{
		Store:         st,
		Authenticator: authenticator,
		Reconciler:    auth.NewReconciler(st),
		Tokens:        tokens,
		Hasher:        hasher,
	})

	return &testEnv{handler: handler, store: st, hasher: hasher, tokens: tokens}
}

func (e *testEnv) seedUser(t *testing.T, username, password string, role models.UserRole) {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	err = e.store.CreateUser(context.Background(), &models.User{
		Username:     username,
		AuthProvider: "local",
		Role:         string(role),
		Active:       true,
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// login authenticates through the real login endpoint and returns the token.
func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", handlers.LoginRequest{
		Username: username,
		Password: password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login for %s: status = %d, body = %s", username, rec.Code, rec.Body.String())
	}
	var resp handlers.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return resp.AccessToken
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "jdoe", "correct horse battery", models.RoleOperator)

	t.Run("valid credentials return a bearer token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", handlers.LoginRequest{
			Username: "jdoe",
			Password: "correct horse battery",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var resp handlers.LoginResponse
		decodeJSON(t, rec, &resp)

		if resp.AccessToken == "" {
			t.Error("access_token is empty")
		}
		if resp.TokenType != "Bearer" {
			t.Errorf("token_type = %q, want Bearer", resp.TokenType)
		}
		if resp.ExpiresIn != 3600 {
			t.Errorf("expires_in = %d, want 3600", resp.ExpiresIn)
		}
		if resp.User.Username != "jdoe" {
			t.Errorf("user.username = %q, want jdoe", resp.User.Username)
		}
		if resp.User.Role != string(models.RoleOperator) {
			t.Errorf("user.role = %q, want operator", resp.User.Role)
		}

		claims, err := env.tokens.Validate(resp.AccessToken)
		if err != nil {
			t.Fatalf("issued token does not validate: %v", err)
		}
		if claims.Subject != "jdoe" {
			t.Errorf("token subject = %q, want jdoe", claims.Subject)
		}
	})

	t.Run("wrong password yields a generic 401", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", handlers.LoginRequest{
			Username: "jdoe",
			Password: "nope",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != handlers.ContentTypeProblemJSON {
			t.Errorf("Content-Type = %q, want problem+json", ct)
		}

		var problem handlers.Problem
		decodeJSON(t, rec, &problem)
		if problem.Detail != "Invalid username or password" {
			t.Errorf("detail = %q, want generic message", problem.Detail)
		}
	})

	t.Run("unknown user yields the same generic 401", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", handlers.LoginRequest{
			Username: "ghost",
			Password: "whatever",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unknown requested provider is a client error", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", handlers.LoginRequest{
			Username: "jdoe",
			Password: "correct horse battery",
			Provider: "nonexistent",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", handlers.LoginRequest{
			Username: "jdoe",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("deactivated user cannot log in", func(t *testing.T) {
		if err := env.store.SetUserActive(context.Background(), "jdoe", false); err != nil {
			t.Fatalf("failed to deactivate user: %v", err)
		}
		t.Cleanup(func() { _ = env.store.SetUserActive(context.Background(), "jdoe", true) })

		rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", handlers.LoginRequest{
			Username: "jdoe",
			Password: "correct horse battery",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

// stubDirectoryProvider vouches for any username/secret pair, standing in
// for an external backend that accepts credentials the platform no longer
// wants to honor.
type stubDirectoryProvider struct {
	name string
}

func (p *stubDirectoryProvider) Name() string        { return p.name }
func (p *stubDirectoryProvider) PasswordBased() bool { return true }

func (p *stubDirectoryProvider) Verify(ctx context.Context, username, secret string) (*auth.Result, error) {
	return &auth.Result{
		Username:   username,
		Provider:   p.name,
		ExternalID: "S-1-5-21-0000000000-1",
	}, nil
}

func TestLoginDeactivatedExternalUser(t *testing.T) {
	env := newTestEnv(t, &stubDirectoryProvider{name: "corp-ad"})

	// First login creates the user through reconciliation.
	env.login(t, "adworker", "backend-accepted")

	if err := env.store.SetUserActive(context.Background(), "adworker", false); err != nil {
		t.Fatalf("failed to deactivate user: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", handlers.LoginRequest{
		Username: "adworker",
		Password: "backend-accepted",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401, body = %s", rec.Code, rec.Body.String())
	}

	// The body must match every other credential failure exactly.
	var problem handlers.Problem
	decodeJSON(t, rec, &problem)
	if problem.Detail != "Invalid username or password" {
		t.Errorf("detail = %q, want generic message", problem.Detail)
	}

	// The audit trail keeps the distinguishing cause.
	events, err := env.store.ListAuditEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to list audit events: %v", err)
	}
	found := false
	for _, e := range events {
		if e.Action == "auth.login" && e.Outcome == "denied" && strings.Contains(e.Detail, "account disabled") {
			found = true
			if e.Actor != "adworker" {
				t.Errorf("actor = %q, want adworker", e.Actor)
			}
		}
	}
	if !found {
		t.Error("no denied auth.login audit event with the disabled-account detail")
	}
}

func TestAuthMe(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "jdoe", "secret-password", models.RoleViewer)
	token := env.login(t, "jdoe", "secret-password")

	t.Run("returns current user", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var resp handlers.UserResponse
		decodeJSON(t, rec, &resp)
		if resp.Username != "jdoe" {
			t.Errorf("username = %q, want jdoe", resp.Username)
		}
		if resp.Role != string(models.RoleViewer) {
			t.Errorf("role = %q, want viewer", resp.Role)
		}
	})

	t.Run("missing authorization header", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/auth/me", "not.a.token", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := env.tokens.IssueWithTTL("jdoe", 1, string(models.RoleViewer), -time.Minute)
		if err != nil {
			t.Fatalf("failed to issue expired token: %v", err)
		}
		rec := env.do(t, http.MethodGet, "/api/v1/auth/me", expired, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("token for a deleted user", func(t *testing.T) {
		stale, err := env.tokens.Issue("gone", 99, string(models.RoleViewer))
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}
		rec := env.do(t, http.MethodGet, "/api/v1/auth/me", stale, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestRoleEnforcement(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "root", "admin-password-1", models.RoleAdmin)
	env.seedUser(t, "oscar", "operator-pass-1", models.RoleOperator)
	env.seedUser(t, "vera", "viewer-pass-111", models.RoleViewer)

	adminToken := env.login(t, "root", "admin-password-1")
	operatorToken := env.login(t, "oscar", "operator-pass-1")
	viewerToken := env.login(t, "vera", "viewer-pass-111")

	report := handlers.ScanReport{Hostname: "ws-042"}

	t.Run("viewer cannot ingest scans", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/scans", viewerToken, report)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("operator can ingest scans", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/scans", operatorToken, report)
		if rec.Code != http.StatusCreated {
			t.Errorf("status = %d, want 201, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("viewer cannot list users", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/users", viewerToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("viewer can read own record", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/users/vera", viewerToken, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("viewer cannot read another user", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/users/oscar", viewerToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("admin can read any user", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/users/oscar", adminToken, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("viewer cannot read the audit trail", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/audit", viewerToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("unauthenticated requests are rejected everywhere", func(t *testing.T) {
		routes := []struct {
			method string
			path   string
		}{
			{http.MethodPost, "/api/v1/scans"},
			{http.MethodGet, "/api/v1/endpoints"},
			{http.MethodGet, "/api/v1/users"},
			{http.MethodGet, "/api/v1/audit"},
		}
		for _, route := range routes {
			rec := env.do(t, route.method, route.path, "", nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s %s: status = %d, want 401", route.method, route.path, rec.Code)
			}
		}
	})
}

func TestScanIngestionAndEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "oscar", "operator-pass-1", models.RoleOperator)
	token := env.login(t, "oscar", "operator-pass-1")

	collected := time.Now().Add(-5 * time.Minute).UTC().Truncate(time.Second)

	rec := env.do(t, http.MethodPost, "/api/v1/scans", token, handlers.ScanReport{
		Hostname:     "ws-042",
		Domain:       "corp.example",
		OSCaption:    "Windows 11 Enterprise",
		OSVersion:    "10.0.26100",
		AgentVersion: "2.3.0",
		CollectedAt:  collected,
		Metrics: []handlers.ScanMetric{
			{Name: "cpu_percent", Value: 37.5},
			{Name: "memory_percent", Value: 82.1},
			{Name: "", Value: 1.0},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var scanResp handlers.ScanResponse
	decodeJSON(t, rec, &scanResp)
	if scanResp.EndpointID == "" {
		t.Fatal("endpoint_id is empty")
	}
	// Nameless readings are dropped
	if scanResp.Samples != 2 {
		t.Errorf("samples = %d, want 2", scanResp.Samples)
	}

	t.Run("hostname is required", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/scans", token, handlers.ScanReport{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("repeat scans reuse the endpoint", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/scans", token, handlers.ScanReport{
			Hostname: "ws-042",
			Metrics:  []handlers.ScanMetric{{Name: "cpu_percent", Value: 12.0}},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp handlers.ScanResponse
		decodeJSON(t, rec, &resp)
		if resp.EndpointID != scanResp.EndpointID {
			t.Errorf("endpoint_id = %q, want %q", resp.EndpointID, scanResp.EndpointID)
		}
	})

	t.Run("list endpoints", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/endpoints", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var endpoints []models.Endpoint
		decodeJSON(t, rec, &endpoints)
		if len(endpoints) != 1 {
			t.Fatalf("got %d endpoints, want 1", len(endpoints))
		}
		if endpoints[0].Hostname != "ws-042" {
			t.Errorf("hostname = %q, want ws-042", endpoints[0].Hostname)
		}
		if endpoints[0].OSCaption != "Windows 11 Enterprise" {
			t.Errorf("os_caption = %q", endpoints[0].OSCaption)
		}
	})

	t.Run("get single endpoint", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/endpoints/"+scanResp.EndpointID, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("unknown endpoint is 404", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/endpoints/00000000-0000-0000-0000-000000000000", token, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("query metric samples by name", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/endpoints/%s/metrics?name=memory_percent", scanResp.EndpointID)
		rec := env.do(t, http.MethodGet, path, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var samples []models.MetricSample
		decodeJSON(t, rec, &samples)
		if len(samples) != 1 {
			t.Fatalf("got %d samples, want 1", len(samples))
		}
		if samples[0].Value != 82.1 {
			t.Errorf("value = %v, want 82.1", samples[0].Value)
		}
	})

	t.Run("time window excludes older samples", func(t *testing.T) {
		since := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
		path := fmt.Sprintf("/api/v1/endpoints/%s/metrics?name=cpu_percent&since=%s", scanResp.EndpointID, since)
		rec := env.do(t, http.MethodGet, path, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var samples []models.MetricSample
		decodeJSON(t, rec, &samples)
		// Only the repeat-scan reading falls inside the window
		if len(samples) != 1 {
			t.Fatalf("got %d samples, want 1", len(samples))
		}
		if samples[0].Value != 12.0 {
			t.Errorf("value = %v, want 12.0", samples[0].Value)
		}
	})

	t.Run("invalid since parameter", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/endpoints/%s/metrics?since=yesterday", scanResp.EndpointID)
		rec := env.do(t, http.MethodGet, path, token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestUserManagement(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "root", "admin-password-1", models.RoleAdmin)
	adminToken := env.login(t, "root", "admin-password-1")

	t.Run("create user", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/users", adminToken, handlers.CreateUserRequest{
			Username: "jdoe",
			Password: "initial-password",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		var resp handlers.UserResponse
		decodeJSON(t, rec, &resp)
		if resp.Role != string(models.RoleViewer) {
			t.Errorf("role = %q, want viewer default", resp.Role)
		}
		if resp.AuthProvider != "local" {
			t.Errorf("auth_provider = %q, want local", resp.AuthProvider)
		}

		// The new user can log in right away
		env.login(t, "jdoe", "initial-password")
	})

	t.Run("duplicate username", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/users", adminToken, handlers.CreateUserRequest{
			Username: "jdoe",
			Password: "another-password",
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("invalid role rejected on create", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/users", adminToken, handlers.CreateUserRequest{
			Username: "eve",
			Password: "some-password-1",
			Role:     "superuser",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("update role", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/v1/users/jdoe/role", adminToken, handlers.UpdateRoleRequest{
			Role: string(models.RoleOperator),
		})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}

		rec = env.do(t, http.MethodGet, "/api/v1/users/jdoe", adminToken, nil)
		var resp handlers.UserResponse
		decodeJSON(t, rec, &resp)
		if resp.Role != string(models.RoleOperator) {
			t.Errorf("role = %q, want operator", resp.Role)
		}
	})

	t.Run("update role for unknown user", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/v1/users/ghost/role", adminToken, handlers.UpdateRoleRequest{
			Role: string(models.RoleViewer),
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("deactivate and reactivate", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/v1/users/jdoe/active", adminToken, handlers.UpdateActiveRequest{
			Active: false,
		})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}

		rec = env.do(t, http.MethodGet, "/api/v1/users/jdoe", adminToken, nil)
		var resp handlers.UserResponse
		decodeJSON(t, rec, &resp)
		if resp.Active {
			t.Error("user still active after deactivation")
		}

		rec = env.do(t, http.MethodPut, "/api/v1/users/jdoe/active", adminToken, handlers.UpdateActiveRequest{
			Active: true,
		})
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("admin cannot deactivate own account", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/v1/users/root/active", adminToken, handlers.UpdateActiveRequest{
			Active: false,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("reset password for a local user", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/users/jdoe/password", adminToken, handlers.ResetPasswordRequest{
			Password: "rotated-password",
		})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204, body = %s", rec.Code, rec.Body.String())
		}

		env.login(t, "jdoe", "rotated-password")
	})

	t.Run("reset password for an externally owned user", func(t *testing.T) {
		err := env.store.CreateUser(context.Background(), &models.User{
			Username:     "adworker",
			AuthProvider: "corp-ad",
			Role:         string(models.RoleViewer),
			Active:       true,
		})
		if err != nil {
			t.Fatalf("failed to seed external user: %v", err)
		}

		rec := env.do(t, http.MethodPost, "/api/v1/users/adworker/password", adminToken, handlers.ResetPasswordRequest{
			Password: "does-not-apply",
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("list users", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/users", adminToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var users []handlers.UserResponse
		decodeJSON(t, rec, &users)
		if len(users) != 3 {
			t.Errorf("got %d users, want 3", len(users))
		}
	})
}

func TestAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "root", "admin-password-1", models.RoleAdmin)
	adminToken := env.login(t, "root", "admin-password-1")

	rec := env.do(t, http.MethodPost, "/api/v1/users", adminToken, handlers.CreateUserRequest{
		Username: "jdoe",
		Password: "initial-password",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user status = %d", rec.Code)
	}

	t.Run("login and management actions are recorded", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/audit", adminToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var events []models.AuditEvent
		decodeJSON(t, rec, &events)

		actions := make(map[string]bool)
		for _, e := range events {
			actions[e.Action] = true
		}
		if !actions["auth.login"] {
			t.Error("missing auth.login event")
		}
		if !actions["user.create"] {
			t.Error("missing user.create event")
		}
	})

	t.Run("limit parameter", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/audit?limit=1", adminToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var events []models.AuditEvent
		decodeJSON(t, rec, &events)
		if len(events) != 1 {
			t.Errorf("got %d events, want 1", len(events))
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/audit?limit=-3", adminToken, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("liveness", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/health", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "healthy") {
			t.Errorf("body = %s, want healthy status", rec.Body.String())
		}
	})

	t.Run("readiness with reachable store", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/health/ready", "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("root redirects to health", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/", "", nil)
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("status = %d, want 307", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/health" {
			t.Errorf("Location = %q, want /health", loc)
		}
	})
}
