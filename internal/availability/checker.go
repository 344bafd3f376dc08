// Package availability refreshes per-item purchasability from the
// platform. The annotation is advisory: it informs the UI, it never
// blocks a mutation or a checkout attempt.
package availability

import (
	"context"
	"log/slog"
	"time"

	"deliwer-commerce/internal/cart"
	"deliwer-commerce/internal/platform"
)

// DefaultTimeout bounds one availability query.
const DefaultTimeout = 8 * time.Second

// Checker runs batched availability queries for the current cart.
type Checker struct {
	store    *cart.Store
	commerce platform.Commerce
	logger   *slog.Logger
	timeout  time.Duration
}

// New creates a Checker. timeout <= 0 takes the default.
func New(store *cart.Store, commerce platform.Commerce, logger *slog.Logger, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{store: store, commerce: commerce, logger: logger, timeout: timeout}
}

// Refresh issues one batched query for every variant in the cart and
// updates the available flags.
//
// The failure asymmetry is deliberate and must stay:
//   - Transport or platform failure: flags are left untouched (fail-open
//     relative to the last known state). A flaky network must not flip a
//     cart to unavailable and block checkout.
//   - Successful response that omits a variant: that item becomes
//     unavailable (fail-closed). The platform answered and chose not to
//     list it, which means it is no longer sellable.
func (c *Checker) Refresh(ctx context.Context) error {
	items := c.store.Items()
	if len(items) == 0 {
		return nil
	}

	variantIDs := make([]string, len(items))
	for i, it := range items {
		variantIDs[i] = it.VariantID
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.commerce.VariantAvailability(ctx, variantIDs)
	if err != nil {
		c.logger.Warn("availability refresh failed, keeping known flags",
			slog.String("error", err.Error()),
			slog.Int("variants", len(variantIDs)),
		)
		return err
	}

	c.store.ApplyAvailability(resp.Variants)
	return nil
}
