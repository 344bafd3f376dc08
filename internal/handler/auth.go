package handler

import (
	"log/slog"
	"net/http"

	"deliwer-commerce/internal/model"
)

// userView wraps the profile returned by the identity endpoints.
type userView struct {
	User *model.User `json:"user"`
}

// handleLogin authenticates against the platform and establishes the
// local session.
// POST /auth/login
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var creds model.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.auth.Login(ctx, &creds)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login", slog.String("user_id", user.ID))
	h.writeJSON(w, http.StatusOK, userView{User: user})
}

// handleSignup registers a new account and establishes the local session.
// POST /auth/signup
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.auth.Signup(ctx, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "signup", slog.String("user_id", user.ID))
	h.writeJSON(w, http.StatusCreated, userView{User: user})
}

// handleMe revalidates the stored session against the platform and
// returns the current profile.
// GET /auth/me
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Refresh(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, userView{User: user})
}

// handleLogout drops the local session. The platform call is best-effort;
// the local session is gone either way, so this never fails.
// POST /auth/logout
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
