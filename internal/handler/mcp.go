// MCP transport handler for the commerce gateway using the official MCP
// Go SDK. Exposes cart and checkout operations as tools so agents can
// drive the trade-in storefront.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"deliwer-commerce/internal/model"
)

// === MCP Tool Input Types ===

// AddToCartInput is the input schema for the add_to_cart tool.
type AddToCartInput struct {
	VariantID    string `json:"variant_id" jsonschema:"variant to add,required"`
	Quantity     int    `json:"quantity,omitempty" jsonschema:"quantity, defaults to 1"`
	ProductID    string `json:"product_id,omitempty" jsonschema:"parent product ID"`
	Title        string `json:"title,omitempty" jsonschema:"product title for display"`
	VariantLabel string `json:"variant_label,omitempty" jsonschema:"variant label for display"`
	Price        string `json:"price,omitempty" jsonschema:"unit price in AED, e.g. 99.00"`
	ImageURL     string `json:"image_url,omitempty" jsonschema:"product image URL"`
}

// UpdateQuantityInput is the input schema for the update_quantity tool.
type UpdateQuantityInput struct {
	ItemID   string `json:"item_id" jsonschema:"cart item ID,required"`
	Quantity int    `json:"quantity" jsonschema:"new quantity, below 1 removes the item,required"`
}

// RemoveItemInput is the input schema for the remove_item tool.
type RemoveItemInput struct {
	ItemID string `json:"item_id" jsonschema:"cart item ID,required"`
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// NewMCPServer creates an MCP server with cart and checkout tools
// registered. The server exposes the same operations as the REST API but
// via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "deliwer-commerce",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "DeliWer commerce gateway. Use these tools to manage the " +
				"trade-in cart and hand off to checkout.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "view_cart",
		Description: "View the current cart: line items, quantities, and display subtotal.",
	}, h.mcpViewCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product variant to the cart. Adding a variant already in the cart merges quantities into its existing line.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_quantity",
		Description: "Set the quantity of a cart item. A quantity below 1 removes the item.",
	}, h.mcpUpdateQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_item",
		Description: "Remove an item from the cart by its item ID.",
	}, h.mcpRemoveItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cart",
		Description: "Empty the cart completely.",
	}, h.mcpClearCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "begin_checkout",
		Description: "Convert the cart into a checkout session and return the redirect URL. Returns a fallback product URL if the platform is unavailable.",
	}, h.mcpBeginCheckout)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpViewCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, cartView, error) {
	return nil, h.cartView(), nil
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, cartView, error) {
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}

	_, err := h.store.AddItem(input.VariantID, quantity, model.ItemMetadata{
		ProductID:    input.ProductID,
		Title:        input.Title,
		VariantLabel: input.VariantLabel,
		Price:        model.ParseFils(input.Price),
		ImageURL:     input.ImageURL,
	})
	if err != nil {
		return nil, cartView{}, h.mcpError(err)
	}

	return nil, h.cartView(), nil
}

func (h *Handler) mcpUpdateQuantity(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateQuantityInput,
) (*mcp.CallToolResult, cartView, error) {
	if input.ItemID == "" {
		return nil, cartView{}, fmt.Errorf("item_id is required")
	}

	if err := h.store.UpdateQuantity(input.ItemID, input.Quantity); err != nil {
		return nil, cartView{}, h.mcpError(err)
	}

	return nil, h.cartView(), nil
}

func (h *Handler) mcpRemoveItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveItemInput,
) (*mcp.CallToolResult, cartView, error) {
	if input.ItemID == "" {
		return nil, cartView{}, fmt.Errorf("item_id is required")
	}

	if err := h.store.RemoveItem(input.ItemID); err != nil {
		return nil, cartView{}, h.mcpError(err)
	}

	return nil, h.cartView(), nil
}

func (h *Handler) mcpClearCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, cartView, error) {
	h.store.Clear()
	return nil, h.cartView(), nil
}

func (h *Handler) mcpBeginCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input EmptyInput,
) (*mcp.CallToolResult, checkoutView, error) {
	if h.agent != nil {
		h.agent.Flush()
	}

	handoff, err := h.checkout.Begin(ctx)
	if err != nil {
		return nil, checkoutView{}, h.mcpError(err)
	}

	return nil, checkoutView{
		CheckoutURL: handoff.URL,
		Fallback:    handoff.Fallback,
		State:       h.checkout.State(),
	}, nil
}

// mcpError converts service errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := err.(*model.APIError); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
