package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"deliwer-commerce/internal/cart"
	"deliwer-commerce/internal/model"
	"deliwer-commerce/internal/platform"
	"deliwer-commerce/internal/storage"
)

type memRecorder struct {
	records map[string][]byte
}

func newMemRecorder() *memRecorder {
	return &memRecorder{records: make(map[string][]byte)}
}

func (m *memRecorder) Save(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.records[name] = data
	return nil
}

func (m *memRecorder) Load(name string, v any) error {
	data, ok := m.records[name]
	if !ok {
		return storage.ErrNoRecord
	}
	return json.Unmarshal(data, v)
}

func (m *memRecorder) Delete(name string) error {
	delete(m.records, name)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const fallbackURL = "https://shop.example/products/trade-in"

func newTestCart() *cart.Store {
	return cart.New(newMemRecorder(), testLogger())
}

func TestBegin_EmptyCart(t *testing.T) {
	store := newTestCart()
	initiator := New(store, &platform.Mock{}, testLogger(), Config{FallbackURL: fallbackURL})

	_, err := initiator.Begin(context.Background())
	if !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("Begin() error = %v, want ErrInvalidRequest", err)
	}
}

func TestBegin_Success(t *testing.T) {
	store := newTestCart()
	store.AddItem("var-1", 2, model.ItemMetadata{Price: 9900})
	_, _, gen := store.Snapshot()
	store.SetSyncedCartID("remote-1", gen)

	var captured model.CheckoutRequest
	mock := &platform.Mock{
		CreateCheckoutFunc: func(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
			captured = *req
			return &model.CheckoutResponse{CheckoutURL: "https://shop.example/checkouts/abc"}, nil
		},
	}

	initiator := New(store, mock, testLogger(), Config{
		FallbackURL: fallbackURL,
		SourceTag:   "deliwer-tradein",
	})

	handoff, err := initiator.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if handoff.URL != "https://shop.example/checkouts/abc" {
		t.Errorf("URL = %q, want checkout session URL", handoff.URL)
	}
	if handoff.Fallback {
		t.Error("Fallback = true on success, want false")
	}

	// Wire payload: variant lines only, no prices
	if len(captured.LineItems) != 1 {
		t.Fatalf("LineItems = %d, want 1", len(captured.LineItems))
	}
	if captured.LineItems[0].VariantID != "var-1" || captured.LineItems[0].Quantity != 2 {
		t.Errorf("line = %+v, want var-1 qty 2", captured.LineItems[0])
	}

	// Source attribute comes first
	if len(captured.CustomAttributes) == 0 || captured.CustomAttributes[0].Key != "source" ||
		captured.CustomAttributes[0].Value != "deliwer-tradein" {
		t.Errorf("CustomAttributes = %v, want leading source=deliwer-tradein", captured.CustomAttributes)
	}

	// Local session ends on successful handoff
	if store.Count() != 0 {
		t.Errorf("Count() = %d after handoff, want 0", store.Count())
	}
	if store.CartID() != "" {
		t.Errorf("CartID() = %q after handoff, want empty", store.CartID())
	}
}

func TestBegin_PlatformFailureFallsBack(t *testing.T) {
	store := newTestCart()
	store.AddItem("var-1", 1, model.ItemMetadata{})

	mock := &platform.Mock{
		CreateCheckoutFunc: func(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
			return nil, model.NewUpstreamError("platform", errors.New("503"))
		},
	}

	initiator := New(store, mock, testLogger(), Config{FallbackURL: fallbackURL})

	handoff, err := initiator.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin() error = %v, want nil (failure degrades to fallback)", err)
	}
	if handoff.URL != fallbackURL {
		t.Errorf("URL = %q, want fallback %q", handoff.URL, fallbackURL)
	}
	if !handoff.Fallback {
		t.Error("Fallback = false, want true")
	}

	// The cart survives a failed handoff so the user can retry.
	if store.Count() != 1 {
		t.Errorf("Count() = %d after fallback, want 1", store.Count())
	}
}

func TestBegin_ExtraAttributesAppended(t *testing.T) {
	store := newTestCart()
	store.AddItem("var-1", 1, model.ItemMetadata{})

	var captured model.CheckoutRequest
	mock := &platform.Mock{
		CreateCheckoutFunc: func(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
			captured = *req
			return &model.CheckoutResponse{CheckoutURL: "https://shop.example/checkouts/x"}, nil
		},
	}

	initiator := New(store, mock, testLogger(), Config{
		FallbackURL:     fallbackURL,
		SourceTag:       "deliwer-tradein",
		ExtraAttributes: []model.Attribute{{Key: "campaign", Value: "summer"}},
	})

	if _, err := initiator.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if len(captured.CustomAttributes) != 2 {
		t.Fatalf("CustomAttributes = %d, want 2", len(captured.CustomAttributes))
	}
	if captured.CustomAttributes[1].Key != "campaign" {
		t.Errorf("second attribute = %+v, want campaign", captured.CustomAttributes[1])
	}
}

func TestState_ReturnsToIdle(t *testing.T) {
	store := newTestCart()
	store.AddItem("var-1", 1, model.ItemMetadata{})

	mock := &platform.Mock{
		CreateCheckoutFunc: func(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
			return &model.CheckoutResponse{CheckoutURL: "https://shop.example/checkouts/x"}, nil
		},
	}

	initiator := New(store, mock, testLogger(), Config{FallbackURL: fallbackURL})
	if got := initiator.State(); got != StateIdle {
		t.Errorf("State() = %q before any attempt, want idle", got)
	}

	initiator.Begin(context.Background())
	if got := initiator.State(); got != StateIdle {
		t.Errorf("State() = %q after handoff, want idle", got)
	}
}
