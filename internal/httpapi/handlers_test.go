package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brewtab/internal/cache"
	"brewtab/internal/catalog/memory"
	"brewtab/internal/domain"
	"brewtab/internal/ledger"
	"brewtab/internal/service"
)

// newTestAPI builds a full API with the seeded in-memory catalog, real
// AuthManager and real Service so handler tests exercise the complete
// request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	source := memory.NewSeeded()
	submitter := ledger.NewMemorySubmitter()
	svc := service.New(source, cache.NoopSnapshotCache{}, submitter, "test-store", 5*time.Minute)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	auth := NewAuthManager("test-secret-key", time.Hour)
	if err := auth.SeedUser("admin", "admin123", "admin"); err != nil {
		t.Fatalf("seed admin failed: %v", err)
	}
	if err := auth.SeedUser("alice", "alice123", "cashier"); err != nil {
		t.Fatalf("seed cashier failed: %v", err)
	}

	return New(svc, auth, "*")
}

// postJSON sends an authenticated JSON POST through the full handler chain.
func postJSON(t *testing.T, api *API, path string, token string, csrf string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, api *API, path string, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)

	rec := postJSON(t, api, "/api/v1/auth/login", "", "", map[string]string{
		"username": "admin",
		"password": "admin123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["access_token"] == "" || body["access_token"] == nil {
		t.Fatalf("expected access_token in response, got %v", body)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)

	rec := postJSON(t, api, "/api/v1/auth/login", "", "", map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleCatalog_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := getJSON(t, api, "/api/v1/catalog", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleCatalog_WithValidToken(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	rec := getJSON(t, api, "/api/v1/catalog", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body domain.CatalogResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Products) == 0 || len(body.Addons) == 0 {
		t.Fatalf("expected products and addons, got %+v", body)
	}
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	rec := postJSON(t, api, "/api/v1/cart/lines", token, csrf, domain.AddLineRequest{
		TerminalID: "term-1",
		ProductID:  "prod-classic-mtea",
		Size:       domain.Size16oz,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var view domain.CartView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode cart view: %v", err)
	}
	if len(view.Lines) != 1 || view.TotalCents != 9900 {
		t.Fatalf("unexpected cart view: %+v", view)
	}
	lineID := view.Lines[0].ID

	rec = postJSON(t, api, "/api/v1/cart/lines/addons/increment", token, csrf, domain.AddonDeltaRequest{
		TerminalID: "term-1",
		LineID:     lineID,
		AddonID:    "prod-addon-pearls",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("increment addon: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode cart view: %v", err)
	}
	if view.TotalCents != 11900 {
		t.Fatalf("expected total 11900 with pearls, got %d", view.TotalCents)
	}

	rec = getJSON(t, api, "/api/v1/cart?terminal_id=term-1", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart: expected 200, got %d", rec.Code)
	}

	rec = postJSON(t, api, "/api/v1/checkout", token, csrf, domain.CheckoutRequest{
		TerminalID:        "term-1",
		PaymentMode:       domain.PaymentCash,
		CashReceivedCents: 12000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var checkout domain.CheckoutResponse
	if err := json.NewDecoder(rec.Body).Decode(&checkout); err != nil {
		t.Fatalf("decode checkout: %v", err)
	}
	if checkout.ChangeCents != 100 {
		t.Fatalf("expected change 100, got %d", checkout.ChangeCents)
	}

	rec = getJSON(t, api, "/api/v1/orders/"+checkout.OrderID, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("order lookup: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = getJSON(t, api, "/api/v1/session?terminal_id=term-1", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("session: expected 200, got %d", rec.Code)
	}
	var sess map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess["state"] != service.StateCommitted {
		t.Fatalf("expected committed state, got %v", sess["state"])
	}
}

func TestCheckoutErrorsMapToStatusCodes(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	// Empty cart is a bad request.
	rec := postJSON(t, api, "/api/v1/checkout", token, csrf, domain.CheckoutRequest{
		TerminalID:        "term-1",
		PaymentMode:       domain.PaymentCash,
		CashReceivedCents: 10000,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty cart: expected 400, got %d", rec.Code)
	}

	rec = postJSON(t, api, "/api/v1/cart/lines", token, csrf, domain.AddLineRequest{
		TerminalID: "term-1",
		ProductID:  "prod-classic-mtea",
		Size:       domain.Size16oz,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line failed: %d", rec.Code)
	}

	// Short cash is a bad request.
	rec = postJSON(t, api, "/api/v1/checkout", token, csrf, domain.CheckoutRequest{
		TerminalID:        "term-1",
		PaymentMode:       domain.PaymentCash,
		CashReceivedCents: 100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short cash: expected 400, got %d", rec.Code)
	}

	// Malformed reference is a bad request.
	rec = postJSON(t, api, "/api/v1/checkout", token, csrf, domain.CheckoutRequest{
		TerminalID:      "term-1",
		PaymentMode:     domain.PaymentGCash,
		ReferenceNumber: "123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad reference: expected 400, got %d", rec.Code)
	}

	// Unknown line is not found.
	rec = postJSON(t, api, "/api/v1/cart/lines/remove", token, csrf, domain.RemoveLineRequest{
		TerminalID: "term-1",
		LineID:     "line-nope",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown line: expected 404, got %d", rec.Code)
	}

	// Unknown order is not found.
	rec = getJSON(t, api, "/api/v1/orders/order-nope", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown order: expected 404, got %d", rec.Code)
	}
}

func TestCashierEndpointsRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	csrf := fetchCSRFToken(t, api)

	cashierToken := loginAs(t, api, "alice", "alice123")
	rec := getJSON(t, api, "/api/v1/users/cashiers", cashierToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier role, got %d", rec.Code)
	}

	adminToken := loginAsAdmin(t, api)
	rec = postJSON(t, api, "/api/v1/users/cashiers", adminToken, csrf, domain.CashierCreateRequest{
		Username: "newcashier",
		Password: "pass1234",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create cashier: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = getJSON(t, api, "/api/v1/users/cashiers", adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("list cashiers: expected 200, got %d", rec.Code)
	}
	var body map[string][]domain.CashierUser
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body["cashiers"]) != 2 {
		t.Fatalf("expected 2 cashiers, got %d", len(body["cashiers"]))
	}
}

func TestCatalogRefreshEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	rec := postJSON(t, api, "/api/v1/catalog/refresh", token, csrf, struct{}{})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body domain.CatalogResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Version == "" {
		t.Fatalf("expected snapshot version in refresh response")
	}
}
