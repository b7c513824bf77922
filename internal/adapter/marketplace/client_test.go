package marketplace_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/neomorfeo/storebridge/internal/adapter/marketplace"
	"github.com/neomorfeo/storebridge/internal/domain"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestClient(t *testing.T, handler http.Handler) (*marketplace.Client, *fakeClock) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	client := marketplace.New(marketplace.Config{
		BaseURL:  srv.URL,
		Login:    "integration",
		Password: "secret",
	}, clock)
	return client, clock
}

// loginHandler responds to /auth/login and counts how often it is hit.
func loginHandler(t *testing.T, logins *atomic.Int32, next http.HandlerFunc) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			logins.Add(1)

			var creds map[string]string
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Errorf("decoding login payload: %v", err)
			}
			if creds["login"] != "integration" || creds["password"] != "secret" {
				t.Errorf("unexpected credentials: %v", creds)
			}

			json.NewEncoder(w).Encode(map[string]string{"accessToken": "token-1"})
			return
		}
		next(w, r)
	}
}

func TestClient_LoginCachedAcrossCalls(t *testing.T) {
	var logins atomic.Int32
	client, _ := newTestClient(t, loginHandler(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer token-1")
		}
		json.NewEncoder(w).Encode(domain.StoreCreated{CNPJ: "123", StoreID: "s-1"})
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.CreateStore(ctx, domain.StoreRequest{CNPJ: "123"}); err != nil {
			t.Fatalf("CreateStore failed: %v", err)
		}
	}

	if got := logins.Load(); got != 1 {
		t.Errorf("login calls = %d, want 1", got)
	}
}

func TestClient_LoginRenewedAfterTTL(t *testing.T) {
	var logins atomic.Int32
	client, clock := newTestClient(t, loginHandler(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.StoreCreated{})
	}))

	ctx := context.Background()
	if _, err := client.CreateStore(ctx, domain.StoreRequest{}); err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}

	clock.now = clock.now.Add(25 * time.Hour)
	if _, err := client.CreateStore(ctx, domain.StoreRequest{}); err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}

	if got := logins.Load(); got != 2 {
		t.Errorf("login calls = %d, want 2", got)
	}
}

func TestClient_LoginFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))

	_, err := client.CreateStore(context.Background(), domain.StoreRequest{})

	var authErr *domain.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Op != "login" {
		t.Errorf("Op = %q, want %q", authErr.Op, "login")
	}
}

func TestClient_RateLimitRetriedOnce(t *testing.T) {
	var logins atomic.Int32
	var hits atomic.Int32
	client, _ := newTestClient(t, loginHandler(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(domain.StoreCreated{CNPJ: "123"})
	}))

	created, err := client.CreateStore(context.Background(), domain.StoreRequest{CNPJ: "123"})
	if err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}
	if created.CNPJ != "123" {
		t.Errorf("CNPJ = %q, want %q", created.CNPJ, "123")
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("store calls = %d, want 2", got)
	}
}

func TestClient_RateLimitPersistsAfterRetry(t *testing.T) {
	var logins atomic.Int32
	client, _ := newTestClient(t, loginHandler(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.CreateStore(context.Background(), domain.StoreRequest{})

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want %d", upstream.Status, http.StatusTooManyRequests)
	}
}

func TestClient_UpstreamErrorCarriesBody(t *testing.T) {
	var logins atomic.Int32
	client, _ := newTestClient(t, loginHandler(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"invalid store"}`))
	}))

	_, err := client.CreateStore(context.Background(), domain.StoreRequest{})

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want %d", upstream.Status, http.StatusUnprocessableEntity)
	}
	if upstream.Body != `{"error":"invalid store"}` {
		t.Errorf("Body = %q", upstream.Body)
	}
}

func TestClient_RefreshToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh" {
			t.Errorf("path = %q, want /auth/refresh", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("refresh should run unauthenticated")
		}

		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["refreshToken"] != "old-refresh" {
			t.Errorf("refreshToken = %q, want %q", payload["refreshToken"], "old-refresh")
		}

		json.NewEncoder(w).Encode(domain.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"})
	}))

	pair, err := client.RefreshToken(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if pair.AccessToken != "new-access" || pair.RefreshToken != "new-refresh" {
		t.Errorf("pair = %+v", pair)
	}
}

func TestClient_RefreshToken_Rejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	}))

	_, err := client.RefreshToken(context.Background(), "dead-token")

	var authErr *domain.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Op != "refresh" {
		t.Errorf("Op = %q, want %q", authErr.Op, "refresh")
	}
}

func TestClient_StoreToken_PathAndQuery(t *testing.T) {
	var logins atomic.Int32
	client, _ := newTestClient(t, loginHandler(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		want := "/stores/11222333000144/software-houses/99888777000166/token"
		if r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		if r.URL.Query().Get("notEncoded") != "true" {
			t.Errorf("notEncoded = %q, want %q", r.URL.Query().Get("notEncoded"), "true")
		}
		json.NewEncoder(w).Encode(domain.TokenPair{AccessToken: "a", RefreshToken: "r"})
	}))

	pair, err := client.StoreToken(context.Background(), "11222333000144", "99888777000166")
	if err != nil {
		t.Fatalf("StoreToken failed: %v", err)
	}
	if pair.AccessToken != "a" {
		t.Errorf("AccessToken = %q, want %q", pair.AccessToken, "a")
	}
}

func TestClient_SendProductBatch(t *testing.T) {
	var logins atomic.Int32
	client, _ := newTestClient(t, loginHandler(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/batch" {
			t.Errorf("path = %q, want /products/batch", r.URL.Path)
		}
		if got := r.Header.Get("x-tenant-name"); got != "acme" {
			t.Errorf("x-tenant-name = %q, want %q", got, "acme")
		}

		var payload struct {
			Products []domain.ImportProduct `json:"products"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding batch payload: %v", err)
		}
		if len(payload.Products) != 2 {
			t.Errorf("got %d products, want 2", len(payload.Products))
		}
		if payload.Products[0].SKU != "SKU-1" {
			t.Errorf("first SKU = %q, want %q", payload.Products[0].SKU, "SKU-1")
		}

		w.WriteHeader(http.StatusOK)
	}))

	err := client.SendProductBatch(context.Background(), "acme", []domain.ImportProduct{
		{SKU: "SKU-1", Price: 10},
		{SKU: "SKU-2", Price: 20},
	})
	if err != nil {
		t.Fatalf("SendProductBatch failed: %v", err)
	}
}

func TestClient_ListProducts_QueryParams(t *testing.T) {
	var logins atomic.Int32
	client, _ := newTestClient(t, loginHandler(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("_page") != "2" {
			t.Errorf("_page = %q, want %q", q.Get("_page"), "2")
		}
		if q.Get("size") != "25" {
			t.Errorf("size = %q, want %q", q.Get("size"), "25")
		}
		if q.Get("sku") != "SKU-1" {
			t.Errorf("sku = %q, want %q", q.Get("sku"), "SKU-1")
		}
		if q.Get("active") != "true" {
			t.Errorf("active = %q, want %q", q.Get("active"), "true")
		}
		w.Write([]byte(`{"items":[]}`))
	}))

	active := true
	out, err := client.ListProducts(context.Background(), domain.ProductQuery{
		Page:   2,
		Size:   25,
		SKU:    "SKU-1",
		Active: &active,
	})
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if string(out) != `{"items":[]}` {
		t.Errorf("body = %s", out)
	}
}
