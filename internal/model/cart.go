// Package model defines data structures for the DeliWer commerce session
// layer and the remote platform wire contracts.
package model

import "time"

// === Cart ===

// LineItem is one entry in the cart, uniquely keyed by variant.
// The local ID is generated at creation time and never leaves this process;
// VariantID is the authoritative identity for merging and for every remote
// exchange.
type LineItem struct {
	ID           string `json:"id"`
	VariantID    string `json:"variant_id"`
	ProductID    string `json:"product_id,omitempty"`
	Title        string `json:"title,omitempty"`
	VariantLabel string `json:"variant_label,omitempty"`
	Price        int64  `json:"price"` // minor units (fils), unit price at time of add
	Quantity     int    `json:"quantity"`
	ImageURL     string `json:"image_url,omitempty"`
	Available    bool   `json:"available"`
}

// CartRecord is the persisted cart snapshot: the full item list plus the
// remote cart identifier, serialized as a single blob. CartID stays empty
// until the first successful sync and is reset on Clear.
type CartRecord struct {
	Items     []LineItem `json:"items"`
	CartID    string     `json:"cart_id,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ItemMetadata carries the descriptive, non-authoritative fields supplied
// when a variant is first added to the cart.
type ItemMetadata struct {
	ProductID    string
	Title        string
	VariantLabel string
	Price        int64 // minor units
	ImageURL     string
}

// === Remote wire contracts ===

// VariantLine is the {variantId, quantity} pair used by both cart sync and
// checkout creation. Prices never travel with it: the platform is the sole
// source of charged amounts.
type VariantLine struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// CartSyncRequest is the body of POST /cart/sync.
type CartSyncRequest struct {
	CartID string        `json:"cart_id,omitempty"`
	Items  []VariantLine `json:"items"`
}

// CartSyncResponse returns the remote cart identifier to reuse on the next
// push.
type CartSyncResponse struct {
	CartID string `json:"cart_id"`
}

// AvailabilityRequest is the body of POST /variants/availability.
type AvailabilityRequest struct {
	VariantIDs []string `json:"variant_ids"`
}

// VariantAvailability reports purchasability for one variant.
type VariantAvailability struct {
	Available bool `json:"available"`
	Quantity  int  `json:"quantity"`
}

// AvailabilityResponse maps variant ID to availability. Variants the
// platform omits are treated as no longer sellable by the caller.
type AvailabilityResponse struct {
	Variants map[string]VariantAvailability `json:"variants"`
}

// Attribute is a contextual key/value attached to checkout creation, such
// as the trade-in source tag.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CheckoutRequest is the body of POST /checkout.
type CheckoutRequest struct {
	LineItems        []VariantLine `json:"line_items"`
	CustomAttributes []Attribute   `json:"custom_attributes,omitempty"`
}

// CheckoutResponse carries the external checkout URL and the platform's
// own suggested fallback destination.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	FallbackURL string `json:"fallback_url,omitempty"`
}

// === Auth ===

// User is the customer profile returned by the identity endpoints.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	AccountType string `json:"account_type,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
	CustomerRef string `json:"customer_ref,omitempty"` // external customer reference
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the signup request body.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
