package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"deliwer-commerce/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		StoreURL:        server.URL,
		StorefrontToken: "sf-token",
		HTTPClient:      server.Client(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client, server
}

func TestNew_RequiresConfig(t *testing.T) {
	if _, err := New(Config{StorefrontToken: "t"}); err == nil {
		t.Error("New() without store URL: error = nil, want error")
	}
	if _, err := New(Config{StoreURL: "https://x"}); err == nil {
		t.Error("New() without token: error = nil, want error")
	}
}

func TestSyncCart_SendsHeaders(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Storefront-Token"); got != "sf-token" {
			t.Errorf("X-Storefront-Token = %q, want sf-token", got)
		}
		if got := r.Header.Get("User-Agent"); got != "DeliWer-Gateway/1.0" {
			t.Errorf("User-Agent = %q, want DeliWer-Gateway/1.0", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		if r.URL.Path != "/cart/sync" {
			t.Errorf("path = %q, want /cart/sync", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.CartSyncResponse{CartID: "cart-1"})
	})

	resp, err := client.SyncCart(context.Background(), &model.CartSyncRequest{
		Items: []model.VariantLine{{VariantID: "var-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("SyncCart() error = %v", err)
	}
	if resp.CartID != "cart-1" {
		t.Errorf("CartID = %q, want cart-1", resp.CartID)
	}
}

func TestSyncCart_MissingCartID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.CartSyncResponse{})
	})

	_, err := client.SyncCart(context.Background(), &model.CartSyncRequest{})
	if !errors.Is(err, model.ErrUpstreamError) {
		t.Errorf("SyncCart() error = %v, want ErrUpstreamError", err)
	}
}

func TestVariantAvailability_NilMapNormalized(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	resp, err := client.VariantAvailability(context.Background(), []string{"var-1"})
	if err != nil {
		t.Fatalf("VariantAvailability() error = %v", err)
	}
	if resp.Variants == nil {
		t.Error("Variants = nil, want empty map")
	}
}

func TestCreateCheckout_EmptyLines(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached server for empty line items")
	})

	_, err := client.CreateCheckout(context.Background(), &model.CheckoutRequest{})
	if !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("CreateCheckout() error = %v, want ErrInvalidRequest", err)
	}
}

func TestCreateCheckout_MissingURL(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.CheckoutResponse{})
	})

	_, err := client.CreateCheckout(context.Background(), &model.CheckoutRequest{
		LineItems: []model.VariantLine{{VariantID: "var-1", Quantity: 1}},
	})
	if !errors.Is(err, model.ErrUpstreamError) {
		t.Errorf("CreateCheckout() error = %v, want ErrUpstreamError", err)
	}
}

func TestMe_SendsBearer(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q, want Bearer tok-1", got)
		}
		json.NewEncoder(w).Encode(model.User{ID: "u-1"})
	})

	user, err := client.Me(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if user.ID != "u-1" {
		t.Errorf("user ID = %q, want u-1", user.ID)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantStatus int
	}{
		{"not found", 404, `{"code":"not_found","message":"gone"}`, model.ErrNotFound, 404},
		{"unauthorized", 401, `{"code":"invalid_token","message":"expired"}`, model.ErrUnauthorized, 401},
		{"forbidden", 403, `{}`, model.ErrUnauthorized, 401},
		{"bad request", 400, `{"code":"bad","message":"nope"}`, model.ErrInvalidRequest, 400},
		{"rate limited", 429, `{}`, model.ErrRateLimited, 429},
		{"server error", 500, `{}`, model.ErrUpstreamError, 502},
		{"bad gateway", 502, `not even json`, model.ErrUpstreamError, 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.SyncCart(context.Background(), &model.CartSyncRequest{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %T, want *model.APIError", err)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestLogout_NoBodyExpected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.Logout(context.Background(), "tok-1"); err != nil {
		t.Errorf("Logout() error = %v", err)
	}
}
