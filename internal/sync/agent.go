// Package sync pushes local cart state to the commerce platform on a
// best-effort basis. The local cart is always the source of truth: a
// failed push is logged and dropped, never retried, and never rolls back
// a local mutation.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"deliwer-commerce/internal/cart"
	"deliwer-commerce/internal/model"
	"deliwer-commerce/internal/platform"
	"deliwer-commerce/internal/reconcile"
)

const (
	// DefaultDebounce is the trailing-edge delay that coalesces bursts of
	// cart mutations into a single push.
	DefaultDebounce = 400 * time.Millisecond

	// DefaultTimeout bounds one push.
	DefaultTimeout = 8 * time.Second
)

// TokenSource exposes the current bearer token, empty when logged out.
// Sync is only attempted for an authenticated session.
type TokenSource interface {
	Token() string
}

// Options tune the agent. Zero values take the defaults.
type Options struct {
	Debounce time.Duration
	Timeout  time.Duration
}

// Agent subscribes to cart changes and propagates them to the platform.
type Agent struct {
	store    *cart.Store
	commerce platform.Commerce
	tokens   TokenSource
	logger   *slog.Logger
	debounce time.Duration
	timeout  time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	lastPushed []model.VariantLine
	closed     bool
}

// New creates an Agent and subscribes it to the store. Pushes happen on a
// trailing-edge debounce so rapid mutations issue one request, not a
// storm.
func New(store *cart.Store, commerce platform.Commerce, tokens TokenSource, logger *slog.Logger, opts Options) *Agent {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	a := &Agent{
		store:    store,
		commerce: commerce,
		tokens:   tokens,
		logger:   logger,
		debounce: opts.Debounce,
		timeout:  opts.Timeout,
	}
	store.Subscribe(a.onChange)
	return a
}

// onChange arms (or re-arms) the debounce timer. Runs on the mutating
// goroutine, so it must stay cheap.
func (a *Agent) onChange(ev cart.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if ev.Kind == cart.ChangeCleared {
		// A cleared cart detaches the remote cart; forget what was pushed
		// so the next sync starts a fresh remote cart from scratch.
		a.lastPushed = nil
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, a.push)
}

// Flush runs any pending push immediately. Called on teardown so a
// mutation made just before shutdown still reaches the platform.
func (a *Agent) Flush() {
	a.mu.Lock()
	pending := a.timer != nil && a.timer.Stop()
	a.mu.Unlock()
	if pending {
		a.push()
	}
}

// Close stops the agent. Subsequent cart changes are ignored.
func (a *Agent) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// push sends the current snapshot to the platform. Every failure mode
// ends in a log line and nothing else.
func (a *Agent) push() {
	token := a.tokens.Token()
	if token == "" {
		return // anonymous session: nothing to sync against
	}

	items, cartID, gen := a.store.Snapshot()
	if len(items) == 0 {
		return // empty carts are never pushed
	}

	lines := make([]model.VariantLine, len(items))
	for i, it := range items {
		lines[i] = model.VariantLine{VariantID: it.VariantID, Quantity: it.Quantity}
	}

	a.mu.Lock()
	diff := reconcile.DiffLines(a.lastPushed, lines)
	a.mu.Unlock()
	if cartID != "" && diff.IsEmpty() {
		return // remote already matches
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	resp, err := a.commerce.SyncCart(ctx, &model.CartSyncRequest{CartID: cartID, Items: lines})
	if err != nil {
		a.logger.Warn("cart sync failed, local state unchanged",
			slog.String("error", err.Error()),
			slog.Int("items", len(lines)),
		)
		return
	}

	if !a.store.SetSyncedCartID(resp.CartID, gen) {
		// The cart was cleared while this push was in flight. The
		// response names a remote cart this session no longer owns, and
		// the baseline was already reset by the clear event.
		a.logger.Debug("discarding sync result for cleared cart",
			slog.String("cart_id", resp.CartID),
		)
		return
	}
	a.mu.Lock()
	a.lastPushed = lines
	a.mu.Unlock()

	a.logger.Debug("cart synced",
		slog.String("cart_id", resp.CartID),
		slog.Int("added", len(diff.ToAdd)),
		slog.Int("removed", len(diff.ToRemove)),
		slog.Int("updated", len(diff.ToUpdate)),
	)
}
