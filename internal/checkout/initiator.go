// Package checkout converts the current cart into an external checkout
// session. The one hard rule here: the user is never left stranded.
// Whatever fails after validation, the caller always gets a URL back.
package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"deliwer-commerce/internal/cart"
	"deliwer-commerce/internal/model"
	"deliwer-commerce/internal/platform"
)

// DefaultTimeout bounds checkout-session creation. This is the one
// user-visible wait in the session layer, so it is tighter than the
// platform client's own ceiling.
const DefaultTimeout = 10 * time.Second

// State tracks the checkout flow. One attempt, no retry state: a failed
// submission moves straight to the fallback redirect.
type State string

const (
	StateIdle                State = "idle"
	StateSubmitting          State = "submitting"
	StateRedirecting         State = "redirecting"
	StateFallbackRedirecting State = "fallback_redirecting"
)

// Handoff is the outcome of a checkout attempt. URL is always non-empty
// for a nil error.
type Handoff struct {
	URL      string `json:"url"`
	Fallback bool   `json:"fallback"` // true when URL is the generic product page
}

// Config holds checkout behavior.
type Config struct {
	// FallbackURL is the always-available product page used when session
	// creation fails. Required.
	FallbackURL string

	// SourceTag is attached to every checkout as the trade-in source
	// attribute (e.g. "deliwer-tradein").
	SourceTag string

	// ExtraAttributes are appended after the source tag.
	ExtraAttributes []model.Attribute

	// Timeout for session creation; <= 0 takes DefaultTimeout.
	Timeout time.Duration
}

// Initiator performs the cart-to-checkout handoff.
type Initiator struct {
	store    *cart.Store
	commerce platform.Commerce
	logger   *slog.Logger
	cfg      Config

	mu    sync.Mutex
	state State
}

// New creates an Initiator.
func New(store *cart.Store, commerce platform.Commerce, logger *slog.Logger, cfg Config) *Initiator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Initiator{
		store:    store,
		commerce: commerce,
		logger:   logger,
		cfg:      cfg,
		state:    StateIdle,
	}
}

// State returns the current flow state.
func (i *Initiator) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Begin validates the cart, creates a checkout session, and returns the
// redirect. An empty cart is the only error: it is surfaced before any
// remote call. After that point every failure resolves to the fallback
// URL with a nil error, then the flow returns to idle.
//
// On a successful handoff the cart is cleared and the remote cart ID
// detached: the session now lives on the platform.
func (i *Initiator) Begin(ctx context.Context) (*Handoff, error) {
	items := i.store.Items()
	if len(items) == 0 {
		return nil, model.NewValidationError("cart", "cart is empty")
	}

	i.setState(StateSubmitting)

	lines := make([]model.VariantLine, len(items))
	for idx, it := range items {
		lines[idx] = model.VariantLine{VariantID: it.VariantID, Quantity: it.Quantity}
	}

	attrs := make([]model.Attribute, 0, 1+len(i.cfg.ExtraAttributes))
	if i.cfg.SourceTag != "" {
		attrs = append(attrs, model.Attribute{Key: "source", Value: i.cfg.SourceTag})
	}
	attrs = append(attrs, i.cfg.ExtraAttributes...)

	ctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	resp, err := i.commerce.CreateCheckout(ctx, &model.CheckoutRequest{
		LineItems:        lines,
		CustomAttributes: attrs,
	})
	if err != nil {
		i.logger.Warn("checkout session creation failed, redirecting to fallback",
			slog.String("error", err.Error()),
			slog.Int("items", len(lines)),
		)
		i.setState(StateFallbackRedirecting)
		defer i.setState(StateIdle)
		return &Handoff{URL: i.cfg.FallbackURL, Fallback: true}, nil
	}

	// Handoff succeeded: the local session ends here.
	i.store.Clear()

	i.setState(StateRedirecting)
	defer i.setState(StateIdle)
	return &Handoff{URL: resp.CheckoutURL, Fallback: false}, nil
}

func (i *Initiator) setState(s State) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}
