// Package platform defines the collaborator contracts for the remote
// commerce backend. The session layer holds no authority: every contract
// here is advisory or best-effort from the client's point of view, and the
// platform remains the source of truth for prices, availability, and
// orders.
package platform

import (
	"context"

	"deliwer-commerce/internal/model"
)

// Commerce abstracts the cart-facing platform operations.
// Implementations encapsulate their own transport and error mapping; all
// methods return model types ready for the session layer.
type Commerce interface {
	// SyncCart pushes the full local item list plus the known remote cart
	// ID (empty for none) and returns the cart ID to reuse on the next
	// push.
	SyncCart(ctx context.Context, req *model.CartSyncRequest) (*model.CartSyncResponse, error)

	// VariantAvailability answers one batched purchasability query for the
	// given variant IDs. Variants omitted from the response are treated as
	// unsellable by the caller.
	VariantAvailability(ctx context.Context, variantIDs []string) (*model.AvailabilityResponse, error)

	// CreateCheckout converts line items into an external checkout session
	// and returns its redirect URL.
	CreateCheckout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)
}

// Identity abstracts the credential-exchange endpoints.
type Identity interface {
	Login(ctx context.Context, creds *model.Credentials) (*model.AuthResponse, error)
	Signup(ctx context.Context, req *model.SignupRequest) (*model.AuthResponse, error)

	// Me validates a bearer token and returns the current profile.
	// An invalid or expired token surfaces as model.ErrUnauthorized.
	Me(ctx context.Context, token string) (*model.User, error)

	// Logout invalidates the token server-side. Best effort: local session
	// teardown proceeds regardless of the result.
	Logout(ctx context.Context, token string) error
}
