package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopcore/internal/domain"
	staffsvc "shopcore/internal/service/staff"
)

func adminDeps(perms []string) Deps {
	deps := testDeps()
	deps.StaffSvc = &stubStaffSvc{
		user: &domain.StaffUser{ID: "staff-1", Email: "admin@example.com", RoleName: "admin", IsActive: true},
		claims: &staffsvc.Claims{
			UserID:      "staff-1",
			Email:       "admin@example.com",
			Role:        "admin",
			Permissions: perms,
		},
	}
	return deps
}

// adminLogin logs the stub staff user in and returns the JWT plus the CSRF
// token the login handler minted.
func adminLogin(t *testing.T, router http.Handler) (string, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth/login",
		strings.NewReader(`{"email":"admin@example.com","password":"Sup3rSecret"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token     string `json:"token"`
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" || resp.CSRFToken == "" {
		t.Fatalf("login response missing tokens: %s", rec.Body.String())
	}
	return resp.Token, resp.CSRFToken
}

func TestStaffLoginInvalidCredentials(t *testing.T) {
	deps := testDeps()
	deps.StaffSvc = &stubStaffSvc{err: staffsvc.ErrInvalidCredentials}
	router := testRouter(t, deps, Options{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth/login",
		strings.NewReader(`{"email":"admin@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAdminRequiresJWT(t *testing.T) {
	router := testRouter(t, adminDeps(domain.AllPermissions), Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	req.Header.Set("Authorization", "Bearer forged")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", rec.Code)
	}
}

func TestAdminStaffMe(t *testing.T) {
	router := testRouter(t, adminDeps(domain.AllPermissions), Options{})
	token, _ := adminLogin(t, router)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	for _, want := range []string{"staff-1", "admin@example.com", domain.PermCatalogWrite} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("expected %q in response, got %s", want, rec.Body.String())
		}
	}
}

func TestRequirePermission(t *testing.T) {
	router := testRouter(t, adminDeps([]string{domain.PermCatalogRead}), Options{})
	token, _ := adminLogin(t, router)

	// Reads under catalog:read pass.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	// Orders need a permission the claims do not carry.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), domain.PermOrdersRead) {
		t.Fatalf("expected missing permission named in body, got %s", rec.Body.String())
	}
}

func TestCSRFProtect(t *testing.T) {
	deps := adminDeps(domain.AllPermissions)
	deps.CatalogSvc = &stubCatalogSvc{product: &domain.Product{ID: "prod-1", Name: "Widget"}}
	router := testRouter(t, deps, Options{})
	token, csrfToken := adminLogin(t, router)

	post := func(csrf string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products",
			strings.NewReader(`{"sku":"SKU-1","name":"Widget","priceCents":1000,"currency":"USD"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		if csrf != "" {
			req.Header.Set(headerCSRFToken, csrf)
		}
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := post(""); got != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf token, got %d", got)
	}
	if got := post("tampered." + csrfToken); got != http.StatusForbidden {
		t.Fatalf("expected 403 for tampered csrf token, got %d", got)
	}
	if got := post(csrfToken); got != http.StatusCreated {
		t.Fatalf("expected 201 with csrf token, got %d", got)
	}
}

func TestCSRFSkipsReads(t *testing.T) {
	router := testRouter(t, adminDeps(domain.AllPermissions), Options{})
	token, _ := adminLogin(t, router)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/auth/csrf", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "csrfToken") {
		t.Fatalf("expected fresh csrf token, got %s", rec.Body.String())
	}
}

func TestOrderStatusRejectsUnknownStatus(t *testing.T) {
	deps := adminDeps(domain.AllPermissions)
	router := testRouter(t, deps, Options{})
	token, csrfToken := adminLogin(t, router)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/order-1/status",
		strings.NewReader(`{"status":"teleported"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(headerCSRFToken, csrfToken)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUploadWithoutMediaStorage(t *testing.T) {
	router := testRouter(t, adminDeps(domain.AllPermissions), Options{})
	token, csrfToken := adminLogin(t, router)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/prod-1/images", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(headerCSRFToken, csrfToken)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without media storage, got %d body=%s", rec.Code, rec.Body.String())
	}
}
