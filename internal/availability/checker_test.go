package availability

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

func availabilityByVariant(s *cart.Store) map[string]bool {
	out := make(map[string]bool)
	for _, it := range s.Items() {
		out[it.VariantID] = it.Available
	}
	return out
}

func TestRefresh_AppliesFlags(t *testing.T) {
	store := cart.New(newMemRecorder(), testLogger())
	store.AddItem("var-1", 1, model.ItemMetadata{})
	store.AddItem("var-2", 1, model.ItemMetadata{})

	mock := &platform.Mock{
		VariantAvailabilityFunc: func(ctx context.Context, variantIDs []string) (*model.AvailabilityResponse, error) {
			if len(variantIDs) != 2 {
				t.Errorf("queried %d variants, want 2 (one batched call)", len(variantIDs))
			}
			return &model.AvailabilityResponse{Variants: map[string]model.VariantAvailability{
				"var-1": {Available: true, Quantity: 5},
				"var-2": {Available: false, Quantity: 0},
			}}, nil
		},
	}

	checker := New(store, mock, testLogger(), 0)
	if err := checker.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	flags := availabilityByVariant(store)
	if !flags["var-1"] {
		t.Error("var-1 Available = false, want true")
	}
	if flags["var-2"] {
		t.Error("var-2 Available = true, want false")
	}
}

func TestRefresh_OmittedVariantUnavailable(t *testing.T) {
	store := cart.New(newMemRecorder(), testLogger())
	store.AddItem("var-1", 1, model.ItemMetadata{})
	store.AddItem("var-gone", 1, model.ItemMetadata{})

	mock := &platform.Mock{
		VariantAvailabilityFunc: func(ctx context.Context, variantIDs []string) (*model.AvailabilityResponse, error) {
			// Platform answered but no longer lists var-gone
			return &model.AvailabilityResponse{Variants: map[string]model.VariantAvailability{
				"var-1": {Available: true, Quantity: 1},
			}}, nil
		},
	}

	checker := New(store, mock, testLogger(), 0)
	if err := checker.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if availabilityByVariant(store)["var-gone"] {
		t.Error("var-gone Available = true, want false (omitted from a successful response)")
	}
}

func TestRefresh_FailureKeepsKnownFlags(t *testing.T) {
	store := cart.New(newMemRecorder(), testLogger())
	store.AddItem("var-1", 1, model.ItemMetadata{})

	mock := &platform.Mock{
		VariantAvailabilityFunc: func(ctx context.Context, variantIDs []string) (*model.AvailabilityResponse, error) {
			return nil, model.NewUpstreamError("platform", errors.New("timeout"))
		},
	}

	checker := New(store, mock, testLogger(), 0)
	err := checker.Refresh(context.Background())
	if err == nil {
		t.Fatal("Refresh() error = nil, want upstream error")
	}

	// The optimistic flag from AddItem survives the failed refresh.
	if !availabilityByVariant(store)["var-1"] {
		t.Error("var-1 Available = false after failed refresh, want true (flags untouched)")
	}
}

func TestRefresh_EmptyCartSkipsQuery(t *testing.T) {
	store := cart.New(newMemRecorder(), testLogger())

	called := false
	mock := &platform.Mock{
		VariantAvailabilityFunc: func(ctx context.Context, variantIDs []string) (*model.AvailabilityResponse, error) {
			called = true
			return &model.AvailabilityResponse{}, nil
		},
	}

	checker := New(store, mock, testLogger(), 0)
	if err := checker.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if called {
		t.Error("availability query issued for empty cart, want skip")
	}
}
