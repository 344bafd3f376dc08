// Package shopify implements the platform contracts against the remote
// commerce endpoints fronting the DeliWer Shopify store.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deliwer-commerce/internal/model"
	"deliwer-commerce/internal/platform"
	"deliwer-commerce/internal/transport"
)

// defaultTimeout bounds every platform call. Sync and availability are
// fire-and-forget from the caller's perspective; checkout is the one
// user-visible wait and its caller layers a tighter context deadline on
// top.
const defaultTimeout = 30 * time.Second

// userAgent identifies this client to the platform.
// Required: the storefront CDN rate-limits requests without a User-Agent.
const userAgent = "DeliWer-Gateway/1.0"

// Config holds the platform client configuration.
type Config struct {
	// StoreURL is the base URL of the commerce endpoints.
	StoreURL string

	// StorefrontToken authenticates this gateway to the platform.
	StorefrontToken string

	// HTTPClient overrides the default browser-fingerprint client.
	// Tests point it at local servers; production leaves it nil.
	HTTPClient *http.Client
}

// Client talks to the commerce platform. It holds no cart state of its
// own: every call carries the full context it needs.
type Client struct {
	httpClient      *http.Client
	storeURL        string
	storefrontToken string
}

// New creates a platform client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("store URL is required")
	}
	if cfg.StorefrontToken == "" {
		return nil, fmt.Errorf("storefront token is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Browser TLS fingerprint transport avoids JA3-based throttling.
		// See internal/transport for rationale.
		httpClient = &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport.NewBrowserTransport(defaultTimeout),
		}
	}

	return &Client{
		httpClient:      httpClient,
		storeURL:        strings.TrimSuffix(cfg.StoreURL, "/"),
		storefrontToken: cfg.StorefrontToken,
	}, nil
}

// SyncCart pushes the full item list and returns the remote cart ID.
func (c *Client) SyncCart(ctx context.Context, req *model.CartSyncRequest) (*model.CartSyncResponse, error) {
	var resp model.CartSyncResponse
	if err := c.post(ctx, "/cart/sync", "", req, &resp); err != nil {
		return nil, err
	}
	if resp.CartID == "" {
		return nil, model.NewUpstreamError("platform", fmt.Errorf("sync returned no cart id"))
	}
	return &resp, nil
}

// VariantAvailability issues one batched purchasability query.
func (c *Client) VariantAvailability(ctx context.Context, variantIDs []string) (*model.AvailabilityResponse, error) {
	req := model.AvailabilityRequest{VariantIDs: variantIDs}
	var resp model.AvailabilityResponse
	if err := c.post(ctx, "/variants/availability", "", req, &resp); err != nil {
		return nil, err
	}
	if resp.Variants == nil {
		resp.Variants = map[string]model.VariantAvailability{}
	}
	return &resp, nil
}

// CreateCheckout converts line items into an external checkout session.
func (c *Client) CreateCheckout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if len(req.LineItems) == 0 {
		return nil, model.NewValidationError("line_items", "at least one item required")
	}
	var resp model.CheckoutResponse
	if err := c.post(ctx, "/checkout", "", req, &resp); err != nil {
		return nil, err
	}
	if resp.CheckoutURL == "" {
		return nil, model.NewUpstreamError("platform", fmt.Errorf("checkout returned no URL"))
	}
	return &resp, nil
}

// Login exchanges credentials for a profile and bearer token.
func (c *Client) Login(ctx context.Context, creds *model.Credentials) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.post(ctx, "/auth/login", "", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup registers a new customer and returns profile plus token.
func (c *Client) Signup(ctx context.Context, req *model.SignupRequest) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.post(ctx, "/auth/signup", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me validates the bearer token and returns the current profile.
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	if err := c.post(ctx, "/auth/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the token server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.post(ctx, "/auth/logout", token, nil, nil)
}

// post executes a JSON POST against the platform. bearer is the customer
// token for the /auth/* endpoints; empty means the gateway's storefront
// token is used alone.
func (c *Client) post(ctx context.Context, path, bearer string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.storeURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("platform", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.parseErrorResponse(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// setHeaders sets the standard headers for platform requests.
func (c *Client) setHeaders(req *http.Request, bearer string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Storefront-Token", c.storefrontToken)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
}

// platformError is the platform's error body shape. Parsed best effort.
type platformError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// parseErrorResponse converts a platform error to an APIError.
func (c *Client) parseErrorResponse(statusCode int, body []byte) error {
	var perr platformError
	json.Unmarshal(body, &perr) // Best effort parse

	switch statusCode {
	case 404:
		return model.NewNotFoundError("resource")
	case 401, 403:
		msg := perr.Message
		if msg == "" {
			msg = "platform authentication failed"
		}
		return model.NewUnauthorizedError(msg)
	case 400:
		msg := perr.Message
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewValidationError("request", msg)
	case 429:
		return model.NewRateLimitError("platform")
	default:
		return model.NewUpstreamError("platform",
			fmt.Errorf("status %d: %s - %s", statusCode, perr.Code, perr.Message))
	}
}

// Verify Client implements both contracts at compile time.
var (
	_ platform.Commerce = (*Client)(nil)
	_ platform.Identity = (*Client)(nil)
)
