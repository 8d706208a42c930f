package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/config"
	testutils "github.com/AbhinavBM/Centralized-Firewall-sub000/test_utils"
)

func setupAuthTest(t *testing.T) {
	t.Helper()
	config.AppConfig = nil
	cfg := config.GetConfig()
	// Keep the seeded admin hash cheap for tests.
	cfg.Security.BcryptCost = 4
	InitHandlers(cfg, nil)
	testutils.SetupTestDB()
}

func login(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	return postJSON(t, LoginHandler, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
}

func TestLoginSuccess(t *testing.T) {
	setupAuthTest(t)

	rr := login(t, "admin", "admin")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response has no data object: %s", rr.Body.String())
	}
	if data["username"] != "admin" || data["role"] != "admin" {
		t.Errorf("Unexpected user payload: %v", data)
	}

	if len(rr.Result().Cookies()) == 0 {
		t.Error("Login did not set a session cookie")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	setupAuthTest(t)

	if rr := login(t, "admin", "nope"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("Status = %d, want 401", rr.Code)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	setupAuthTest(t)

	if rr := login(t, "ghost", "admin"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("Status = %d, want 401", rr.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	setupAuthTest(t)

	if rr := login(t, "", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", rr.Code)
	}
}

func TestAuthMiddlewareRejectsAnonymous(t *testing.T) {
	setupAuthTest(t)

	called := false
	protected := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/endpoints", nil)
	rr := httptest.NewRecorder()
	protected(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Status = %d, want 401", rr.Code)
	}
	if called {
		t.Error("Protected handler ran without a session")
	}
}

func TestAuthMiddlewareAllowsSession(t *testing.T) {
	setupAuthTest(t)

	loginResp := login(t, "admin", "admin")
	if loginResp.Code != http.StatusOK {
		t.Fatalf("Login failed: %d", loginResp.Code)
	}

	called := false
	protected := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/endpoints", nil)
	for _, c := range loginResp.Result().Cookies() {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	protected(rr, req)

	if !called {
		t.Fatalf("Protected handler did not run: %d %s", rr.Code, rr.Body.String())
	}
}

func TestAdminMiddlewareRequiresRole(t *testing.T) {
	setupAuthTest(t)

	loginResp := login(t, "admin", "admin")

	called := false
	protected := AdminMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/endpoints/x", nil)
	for _, c := range loginResp.Result().Cookies() {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	protected(rr, req)

	if !called {
		t.Errorf("Admin handler did not run for admin role: %d", rr.Code)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	setupAuthTest(t)

	loginResp := login(t, "admin", "admin")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	for _, c := range loginResp.Result().Cookies() {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	LogoutHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rr.Code)
	}

	// The cleared cookie no longer opens protected routes.
	protected := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {})
	check := httptest.NewRequest(http.MethodGet, "/api/endpoints", nil)
	for _, c := range rr.Result().Cookies() {
		check.AddCookie(c)
	}
	checkRR := httptest.NewRecorder()
	protected(checkRR, check)

	if checkRR.Code != http.StatusUnauthorized {
		t.Errorf("Status after logout = %d, want 401", checkRR.Code)
	}
}
