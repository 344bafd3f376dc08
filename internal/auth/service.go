// Package auth manages the customer session: credential exchange, token
// persistence, and the whoami refresh. The auth session is independent of
// the cart; the only coupling is that sync reads the token through the
// TokenSource contract.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"deliwer-commerce/internal/model"
	"deliwer-commerce/internal/platform"
	"deliwer-commerce/internal/storage"
)

// Recorder is the slice of the record store the auth session needs.
// Profile and token are two independent records.
type Recorder interface {
	Save(name string, v any) error
	Load(name string, v any) error
	Delete(name string) error
}

// Service owns the auth session state.
type Service struct {
	identity platform.Identity
	rec      Recorder
	logger   *slog.Logger

	mu    sync.Mutex
	user  *model.User
	token string
}

// New creates a Service hydrated from the persisted profile and token
// records. Missing or corrupt records hydrate a logged-out session.
func New(identity platform.Identity, rec Recorder, logger *slog.Logger) *Service {
	s := &Service{identity: identity, rec: rec, logger: logger}

	var user model.User
	if err := rec.Load(storage.RecordProfile, &user); err == nil {
		s.user = &user
	}
	var token string
	if err := rec.Load(storage.RecordToken, &token); err == nil {
		s.token = token
	}
	return s
}

// Login exchanges credentials for a session.
func (s *Service) Login(ctx context.Context, creds *model.Credentials) (*model.User, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, model.NewValidationError("credentials", "email and password are required")
	}

	resp, err := s.identity.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	s.establish(resp)
	return &resp.User, nil
}

// Signup registers a new customer and establishes the session.
func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, model.NewValidationError("signup", "email and password are required")
	}

	resp, err := s.identity.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	s.establish(resp)
	return &resp.User, nil
}

// Refresh validates the token via whoami and updates the cached profile.
// An unauthorized answer destroys the session, forcing re-login; any
// other failure leaves the session as it was.
func (s *Service) Refresh(ctx context.Context) (*model.User, error) {
	token := s.Token()
	if token == "" {
		return nil, model.NewUnauthorizedError("not logged in")
	}

	user, err := s.identity.Me(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrUnauthorized) {
			s.clear()
		}
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.persistProfile(user)
	return user, nil
}

// Logout tears the session down. The platform call is best effort; the
// local session is cleared no matter what.
func (s *Service) Logout(ctx context.Context) {
	token := s.Token()
	if token != "" {
		if err := s.identity.Logout(ctx, token); err != nil {
			s.logger.Warn("platform logout failed, clearing local session anyway",
				slog.String("error", err.Error()))
		}
	}
	s.clear()
}

// User returns the cached profile, nil when logged out.
func (s *Service) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the bearer token, empty when logged out.
// Satisfies the sync agent's TokenSource.
func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// establish installs and persists a fresh session.
func (s *Service) establish(resp *model.AuthResponse) {
	s.mu.Lock()
	user := resp.User
	s.user = &user
	s.token = resp.Token
	s.mu.Unlock()

	s.persistProfile(&user)
	if err := s.rec.Save(storage.RecordToken, resp.Token); err != nil {
		s.logger.Warn("token persist failed, session is memory-only",
			slog.String("error", err.Error()))
	}
}

// clear destroys the session locally.
func (s *Service) clear() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if err := s.rec.Delete(storage.RecordProfile); err != nil {
		s.logger.Warn("profile record delete failed", slog.String("error", err.Error()))
	}
	if err := s.rec.Delete(storage.RecordToken); err != nil {
		s.logger.Warn("token record delete failed", slog.String("error", err.Error()))
	}
}

func (s *Service) persistProfile(user *model.User) {
	if err := s.rec.Save(storage.RecordProfile, user); err != nil {
		s.logger.Warn("profile persist failed, session is memory-only",
			slog.String("error", err.Error()))
	}
}
