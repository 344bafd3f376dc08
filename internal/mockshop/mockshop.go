// Package mockshop is an in-memory stand-in for the commerce platform.
// It serves the same endpoints the shopify client calls, so handler tests
// and local development run without store credentials.
package mockshop

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"deliwer-commerce/internal/model"
)

// account is a registered customer in the mock credential table.
type account struct {
	user     model.User
	password string
}

// Server holds the mock platform state: a cart registry, a variant
// availability table, and a credential table. All state is in memory and
// lost on restart.
type Server struct {
	mu          sync.Mutex
	logger      *slog.Logger
	checkoutURL string

	carts       map[string][]model.VariantLine
	unavailable map[string]bool
	accounts    map[string]*account // keyed by email
	sessions    map[string]string   // token -> email
}

// New creates a mock platform server. checkoutURL is the base under which
// fabricated checkout URLs are issued.
func New(checkoutURL string, logger *slog.Logger) *Server {
	return &Server{
		logger:      logger,
		checkoutURL: strings.TrimSuffix(checkoutURL, "/"),
		carts:       make(map[string][]model.VariantLine),
		unavailable: make(map[string]bool),
		accounts:    make(map[string]*account),
		sessions:    make(map[string]string),
	}
}

// SetUnavailable marks variants as not purchasable in availability
// responses. Passing a variant again with available=true clears the mark.
func (s *Server) SetUnavailable(variantID string, unavailable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if unavailable {
		s.unavailable[variantID] = true
	} else {
		delete(s.unavailable, variantID)
	}
}

// SeedAccount registers a customer in the credential table.
func (s *Server) SeedAccount(email, password, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &account{
		user: model.User{
			ID:    uuid.NewString(),
			Email: email,
			Name:  name,
		},
		password: password,
	}
}

// Handler returns the HTTP handler serving the platform contract.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /cart/sync", s.handleCartSync)
	mux.HandleFunc("POST /variants/availability", s.handleAvailability)
	mux.HandleFunc("POST /checkout", s.handleCheckout)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/me", s.handleMe)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	return mux
}

func (s *Server) handleCartSync(w http.ResponseWriter, r *http.Request) {
	var req model.CartSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	s.mu.Lock()
	cartID := req.CartID
	if _, ok := s.carts[cartID]; cartID == "" || !ok {
		cartID = "mock-cart-" + uuid.NewString()
	}
	s.carts[cartID] = req.Items
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("cart synced",
			slog.String("cart_id", cartID),
			slog.Int("items", len(req.Items)),
		)
	}
	s.writeJSON(w, http.StatusOK, model.CartSyncResponse{CartID: cartID})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	var req model.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	s.mu.Lock()
	variants := make(map[string]model.VariantAvailability, len(req.VariantIDs))
	for _, id := range req.VariantIDs {
		if s.unavailable[id] {
			variants[id] = model.VariantAvailability{Available: false, Quantity: 0}
			continue
		}
		variants[id] = model.VariantAvailability{Available: true, Quantity: 10}
	}
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, model.AvailabilityResponse{Variants: variants})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	if len(req.LineItems) == 0 {
		s.writeError(w, http.StatusBadRequest, "empty_checkout", "line_items must not be empty")
		return
	}
	for _, li := range req.LineItems {
		s.mu.Lock()
		gone := s.unavailable[li.VariantID]
		s.mu.Unlock()
		if gone {
			s.writeError(w, http.StatusBadRequest, "variant_unavailable",
				fmt.Sprintf("variant %s is not available", li.VariantID))
			return
		}
	}

	token := uuid.NewString()
	s.writeJSON(w, http.StatusOK, model.CheckoutResponse{
		CheckoutURL: s.checkoutURL + "/checkouts/" + token,
		FallbackURL: s.checkoutURL + "/products/trade-in",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[creds.Email]
	if !ok || acct.password != creds.Password {
		s.mu.Unlock()
		s.writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password incorrect")
		return
	}
	token := uuid.NewString()
	s.sessions[token] = creds.Email
	user := acct.user
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, model.AuthResponse{User: user, Token: token})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "missing_fields", "email and password required")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		s.writeError(w, http.StatusBadRequest, "email_taken", "account already exists")
		return
	}
	acct := &account{
		user: model.User{
			ID:    uuid.NewString(),
			Email: req.Email,
			Name:  req.Name,
		},
		password: req.Password,
	}
	s.accounts[req.Email] = acct
	token := uuid.NewString()
	s.sessions[token] = req.Email
	user := acct.user
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, model.AuthResponse{User: user, Token: token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userForToken(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "invalid_token", "session expired or unknown")
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// userForToken resolves the bearer token to the account it belongs to.
func (s *Server) userForToken(r *http.Request) (model.User, bool) {
	token := bearerToken(r)
	if token == "" {
		return model.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.sessions[token]
	if !ok {
		return model.User{}, false
	}
	acct, ok := s.accounts[email]
	if !ok {
		return model.User{}, false
	}
	return acct.user, true
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError emits the platform's flat error body shape.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
