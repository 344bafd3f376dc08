package handler

import (
	"log/slog"
	"net/http"

	"deliwer-commerce/internal/checkout"
)

// checkoutView is the handoff returned to the storefront. Fallback true
// means the URL points at the always-available product page rather than a
// real checkout session.
type checkoutView struct {
	CheckoutURL string         `json:"checkout_url"`
	Fallback    bool           `json:"fallback"`
	State       checkout.State `json:"state"`
}

// handleBeginCheckout converts the cart into a platform checkout session
// and returns the redirect URL. Pending cart syncs are flushed first so
// the platform sees the latest lines. The only error a client can receive
// is an empty cart; every platform failure degrades to the fallback URL.
// POST /checkout
func (h *Handler) handleBeginCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.agent != nil {
		h.agent.Flush()
	}

	h.logger.InfoContext(ctx, "beginning checkout",
		slog.Int("line_items", len(h.store.Items())),
	)

	handoff, err := h.checkout.Begin(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, checkoutView{
		CheckoutURL: handoff.URL,
		Fallback:    handoff.Fallback,
		State:       h.checkout.State(),
	})
}
