// Package cart holds the authoritative local representation of the
// shopping cart. Mutations always succeed locally; persistence and remote
// propagation are best-effort and never block or revert a mutation.
package cart

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"deliwer-commerce/internal/model"
	"deliwer-commerce/internal/storage"
)

// Recorder is the slice of the record store the cart needs.
type Recorder interface {
	Save(name string, v any) error
	Load(name string, v any) error
	Delete(name string) error
}

// ChangeKind identifies what mutated.
type ChangeKind string

const (
	ChangeItemAdded       ChangeKind = "item_added"
	ChangeQuantityUpdated ChangeKind = "quantity_updated"
	ChangeItemRemoved     ChangeKind = "item_removed"
	ChangeCleared         ChangeKind = "cleared"
)

// Event describes a cart mutation. Subscribers (sync, metrics) receive it
// after the mutation is applied and persisted.
type Event struct {
	Kind      ChangeKind
	VariantID string // empty for ChangeCleared
}

// Store owns the in-memory cart and its persisted snapshot.
// Safe for concurrent use; reads return copies.
type Store struct {
	mu        sync.Mutex
	items     []model.LineItem
	cartID    string
	gen       uint64
	rec       Recorder
	logger    *slog.Logger
	listeners []func(Event)
}

// New creates a Store hydrated from the persisted cart record.
// A missing or corrupt record hydrates an empty cart.
func New(rec Recorder, logger *slog.Logger) *Store {
	s := &Store{rec: rec, logger: logger}

	var record model.CartRecord
	switch err := rec.Load(storage.RecordCart, &record); err {
	case nil:
		s.items = record.Items
		s.cartID = record.CartID
	case storage.ErrNoRecord:
		// first access: start empty
	default:
		logger.Warn("cart record unreadable, starting empty", slog.String("error", err.Error()))
	}
	return s
}

// Subscribe registers a listener for cart mutations. Listeners run on the
// mutating goroutine after the snapshot is persisted; they must not call
// back into mutating methods.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// AddItem merges quantity into an existing line for the variant, or
// appends a new line with a freshly generated local ID. Insertion order is
// preserved for display stability.
func (s *Store) AddItem(variantID string, quantity int, meta model.ItemMetadata) (model.LineItem, error) {
	if variantID == "" {
		return model.LineItem{}, model.NewValidationError("variant_id", "required")
	}
	if quantity < 1 {
		return model.LineItem{}, model.NewValidationError("quantity", "must be at least 1")
	}

	s.mu.Lock()
	var line model.LineItem
	merged := false
	for i := range s.items {
		if s.items[i].VariantID == variantID {
			s.items[i].Quantity += quantity
			line = s.items[i]
			merged = true
			break
		}
	}
	if !merged {
		line = model.LineItem{
			ID:           uuid.NewString(),
			VariantID:    variantID,
			ProductID:    meta.ProductID,
			Title:        meta.Title,
			VariantLabel: meta.VariantLabel,
			Price:        meta.Price,
			Quantity:     quantity,
			ImageURL:     meta.ImageURL,
			Available:    true, // optimistic until the platform says otherwise
		}
		s.items = append(s.items, line)
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: ChangeItemAdded, VariantID: variantID})
	return line, nil
}

// UpdateQuantity sets the quantity of the item with the given local ID.
// A quantity below 1 removes the item: the cart never holds a zero or
// negative line.
func (s *Store) UpdateQuantity(itemID string, quantity int) error {
	if quantity < 1 {
		return s.RemoveItem(itemID)
	}

	s.mu.Lock()
	variantID := ""
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
			variantID = s.items[i].VariantID
			break
		}
	}
	if variantID == "" {
		s.mu.Unlock()
		return model.NewNotFoundError("cart item")
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: ChangeQuantityUpdated, VariantID: variantID})
	return nil
}

// RemoveItem deletes the item with the given local ID. Other items keep
// their IDs and quantities.
func (s *Store) RemoveItem(itemID string) error {
	s.mu.Lock()
	variantID := ""
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ID == itemID {
			variantID = it.VariantID
			continue
		}
		kept = append(kept, it)
	}
	if variantID == "" {
		s.mu.Unlock()
		return model.NewNotFoundError("cart item")
	}
	s.items = kept
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: ChangeItemRemoved, VariantID: variantID})
	return nil
}

// Items returns the cached line items in insertion order. Availability
// flags are as of the last refresh; callers wanting freshness run the
// availability checker first.
func (s *Store) Items() []model.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the sum of all quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Total is the display total in minor units, computed from the prices
// captured at add time. Not re-validated against the platform; the
// checkout endpoint is the sole source of charged amounts.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, it := range s.items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

// Clear empties the cart and detaches the remote cart ID, so the next
// sync creates a fresh remote cart.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.cartID = ""
	s.gen++
	s.persistLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: ChangeCleared})
}

// CartID returns the remote cart identifier, empty until the first
// successful sync.
func (s *Store) CartID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartID
}

// SetSyncedCartID records the remote cart identifier returned by a push
// whose snapshot was taken at generation gen. It returns false without
// touching the store when the cart was cleared after that snapshot: the
// remote cart the ID names no longer belongs to this session. Persisted
// but not announced to subscribers: it is a sync side effect, not a cart
// mutation.
func (s *Store) SetSyncedCartID(id string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.cartID = id
	s.persistLocked()
	return true
}

// Snapshot returns the items, the remote cart ID, and the clear
// generation as one consistent view, for the sync agent to serialize.
// The generation increments on Clear, so a push that started before a
// Clear fails its SetSyncedCartID commit instead of re-attaching a stale
// remote cart.
func (s *Store) Snapshot() ([]model.LineItem, string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.LineItem, len(s.items))
	copy(out, s.items)
	return out, s.cartID, s.gen
}

// ApplyAvailability updates per-item available flags from a platform
// response. Variants the response omits become unavailable: a platform
// answer that leaves an item out means it is no longer sellable. Callers
// must not invoke this on transport failure, so stale flags survive
// outages untouched.
func (s *Store) ApplyAvailability(variants map[string]model.VariantAvailability) {
	s.mu.Lock()
	for i := range s.items {
		v, ok := variants[s.items[i].VariantID]
		s.items[i].Available = ok && v.Available
	}
	s.persistLocked()
	s.mu.Unlock()
}

// persistLocked writes the cart record. Failures are logged and swallowed:
// the in-memory cart stays authoritative for the session.
func (s *Store) persistLocked() {
	record := model.CartRecord{
		Items:     s.items,
		CartID:    s.cartID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.rec.Save(storage.RecordCart, record); err != nil {
		s.logger.Warn("cart persist failed, continuing in memory", slog.String("error", err.Error()))
	}
}

// notify fans an event out to subscribers outside the store lock.
func (s *Store) notify(ev Event) {
	s.mu.Lock()
	listeners := make([]func(Event), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
