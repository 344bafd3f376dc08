package platform

import (
	"context"

	"deliwer-commerce/internal/model"
)

// Mock implements Commerce and Identity for testing.
// Each method can be configured via function fields.
type Mock struct {
	SyncCartFunc            func(ctx context.Context, req *model.CartSyncRequest) (*model.CartSyncResponse, error)
	VariantAvailabilityFunc func(ctx context.Context, variantIDs []string) (*model.AvailabilityResponse, error)
	CreateCheckoutFunc      func(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)
	LoginFunc               func(ctx context.Context, creds *model.Credentials) (*model.AuthResponse, error)
	SignupFunc              func(ctx context.Context, req *model.SignupRequest) (*model.AuthResponse, error)
	MeFunc                  func(ctx context.Context, token string) (*model.User, error)
	LogoutFunc              func(ctx context.Context, token string) error
}

// SyncCart calls the configured SyncCartFunc or echoes back a static cart ID.
func (m *Mock) SyncCart(ctx context.Context, req *model.CartSyncRequest) (*model.CartSyncResponse, error) {
	if m.SyncCartFunc != nil {
		return m.SyncCartFunc(ctx, req)
	}
	id := req.CartID
	if id == "" {
		id = "mock-cart"
	}
	return &model.CartSyncResponse{CartID: id}, nil
}

// VariantAvailability calls the configured func or reports everything available.
func (m *Mock) VariantAvailability(ctx context.Context, variantIDs []string) (*model.AvailabilityResponse, error) {
	if m.VariantAvailabilityFunc != nil {
		return m.VariantAvailabilityFunc(ctx, variantIDs)
	}
	variants := make(map[string]model.VariantAvailability, len(variantIDs))
	for _, id := range variantIDs {
		variants[id] = model.VariantAvailability{Available: true, Quantity: 99}
	}
	return &model.AvailabilityResponse{Variants: variants}, nil
}

// CreateCheckout calls the configured CreateCheckoutFunc or returns an error.
func (m *Mock) CreateCheckout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, req)
	}
	return nil, model.NewInternalError(nil)
}

// Login calls the configured LoginFunc or returns an auth failure.
func (m *Mock) Login(ctx context.Context, creds *model.Credentials) (*model.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return nil, model.NewUnauthorizedError("invalid credentials")
}

// Signup calls the configured SignupFunc or returns an error.
func (m *Mock) Signup(ctx context.Context, req *model.SignupRequest) (*model.AuthResponse, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, req)
	}
	return nil, model.NewInternalError(nil)
}

// Me calls the configured MeFunc or rejects the token.
func (m *Mock) Me(ctx context.Context, token string) (*model.User, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx, token)
	}
	return nil, model.NewUnauthorizedError("invalid token")
}

// Logout calls the configured LogoutFunc or succeeds silently.
func (m *Mock) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

// Verify Mock implements both contracts at compile time.
var (
	_ Commerce = (*Mock)(nil)
	_ Identity = (*Mock)(nil)
)
