package handler

import (
	"log/slog"
	"net/http"

	"deliwer-commerce/internal/model"
)

// cartView is the JSON shape of the cart returned to the storefront.
// Subtotal is display-only; the platform recomputes charged amounts at
// checkout.
type cartView struct {
	Items           []model.LineItem `json:"items"`
	Count           int              `json:"count"`
	Subtotal        int64            `json:"subtotal"`
	SubtotalDisplay string           `json:"subtotal_display"`
	CartID          string           `json:"cart_id,omitempty"`
}

func (h *Handler) cartView() cartView {
	items, cartID, _ := h.store.Snapshot()
	count := 0
	var subtotal int64
	for _, it := range items {
		count += it.Quantity
		subtotal += it.Price * int64(it.Quantity)
	}
	if items == nil {
		items = []model.LineItem{}
	}
	return cartView{
		Items:           items,
		Count:           count,
		Subtotal:        subtotal,
		SubtotalDisplay: model.FormatAED(subtotal),
		CartID:          cartID,
	}
}

// handleGetCart returns the current cart state.
// GET /cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cartView())
}

// addItemRequest is the body of POST /cart/items. Price arrives as a
// decimal AED string ("99.00") and is stored in fils for display math.
type addItemRequest struct {
	VariantID    string `json:"variant_id"`
	Quantity     int    `json:"quantity"`
	ProductID    string `json:"product_id,omitempty"`
	Title        string `json:"title,omitempty"`
	VariantLabel string `json:"variant_label,omitempty"`
	Price        string `json:"price,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
}

// handleAddItem adds a variant to the cart, merging into an existing line
// when the variant is already present.
// POST /cart/items
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	line, err := h.store.AddItem(req.VariantID, req.Quantity, model.ItemMetadata{
		ProductID:    req.ProductID,
		Title:        req.Title,
		VariantLabel: req.VariantLabel,
		Price:        model.ParseFils(req.Price),
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "item added",
		slog.String("variant_id", line.VariantID),
		slog.Int("quantity", line.Quantity),
	)

	h.writeJSON(w, http.StatusCreated, struct {
		Item model.LineItem `json:"item"`
		Cart cartView       `json:"cart"`
	}{Item: line, Cart: h.cartView()})
}

// updateQuantityRequest is the body of PATCH /cart/items/{id}.
type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// handleUpdateQuantity sets the quantity of a cart line. A quantity below
// one removes the line.
// PATCH /cart/items/{id}
func (h *Handler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")
	if itemID == "" {
		h.writeError(w, model.NewValidationError("id", "item ID required"))
		return
	}

	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.store.UpdateQuantity(itemID, req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, h.cartView())
}

// handleRemoveItem deletes a cart line by its local ID.
// DELETE /cart/items/{id}
func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")
	if itemID == "" {
		h.writeError(w, model.NewValidationError("id", "item ID required"))
		return
	}

	if err := h.store.RemoveItem(itemID); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, h.cartView())
}

// handleClearCart empties the cart and detaches the remote cart ID.
// DELETE /cart
func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// availabilityView reports whether the refresh reached the platform.
// Refreshed false means the flags below are the last known values.
type availabilityView struct {
	Refreshed bool             `json:"refreshed"`
	Items     []model.LineItem `json:"items"`
}

// handleRefreshAvailability re-checks purchasability of every cart line
// against the platform. A platform failure is not an error for the client:
// the cart keeps its last known flags and the response says so.
// POST /cart/availability
func (h *Handler) handleRefreshAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshed := true
	if err := h.availability.Refresh(ctx); err != nil {
		refreshed = false
	}

	items := h.store.Items()
	if items == nil {
		items = []model.LineItem{}
	}
	h.writeJSON(w, http.StatusOK, availabilityView{
		Refreshed: refreshed,
		Items:     items,
	})
}
