package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopcore/internal/domain"
	customersvc "shopcore/internal/service/customer"
)

func testCustomer() *domain.Customer {
	return &domain.Customer{
		ID:        "cust-1",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		IsActive:  true,
	}
}

func TestSignup(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerSvc{customer: testCustomer()}
	router := testRouter(t, deps, Options{})

	body := `{"email":"jane@example.com","password":"Sup3rSecret","firstName":"Jane","lastName":"Doe"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "jane@example.com") {
		t.Fatalf("expected customer in response, got %s", rec.Body.String())
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerSvc{loginErr: domain.ErrAlreadyExists}
	router := testRouter(t, deps, Options{})

	body := `{"email":"jane@example.com","password":"Sup3rSecret"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestLogin(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerSvc{customer: testCustomer()}
	router := testRouter(t, deps, Options{})

	body := `{"email":"jane@example.com","password":"Sup3rSecret"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	for _, want := range []string{"access-token", "refresh-token", "Bearer"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("expected %q in response, got %s", want, rec.Body.String())
		}
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerSvc{loginErr: customersvc.ErrInvalidCredentials}
	router := testRouter(t, deps, Options{})

	body := `{"email":"jane@example.com","password":"wrong"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestLoginMissingFields(t *testing.T) {
	router := testRouter(t, testDeps(), Options{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"jane@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMeRequiresToken(t *testing.T) {
	deps := testDeps()
	deps.CustomerSvc = &stubCustomerSvc{customer: testCustomer()}
	router := testRouter(t, deps, Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer access-token")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "cust-1") {
		t.Fatalf("expected customer id in response, got %s", rec.Body.String())
	}
}

func TestGuestCheckoutAllowed(t *testing.T) {
	deps := testDeps()
	deps.CheckoutSvc = &stubCheckoutSvc{order: &domain.Order{ID: "order-1", Number: "SC-100001"}}
	router := testRouter(t, deps, Options{})

	body := `{"cartId":"cart-1","email":"guest@example.com","shippingAddress":{"streetName":"1 Main St","city":"Springfield","postalCode":"12345","country":"US"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerCartToken, "cart-secret")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "SC-100001") {
		t.Fatalf("expected order number in response, got %s", rec.Body.String())
	}
}

func TestCreateCartReturnsToken(t *testing.T) {
	deps := testDeps()
	deps.CartSvc = &stubCartSvc{cart: &domain.Cart{ID: "cart-1", Token: "cart-secret", Currency: "USD", State: domain.CartStateActive}}
	router := testRouter(t, deps, Options{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts", strings.NewReader(`{"currency":"USD"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(headerCartToken); got != "cart-secret" {
		t.Fatalf("expected cart token header, got %q", got)
	}
}

func TestProductNotFound(t *testing.T) {
	router := testRouter(t, testDeps(), Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "not found") {
		t.Fatalf("expected not-found message in body, got %s", rec.Body.String())
	}
}
