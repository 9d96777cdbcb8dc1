package handlers

import (
	"net/http"
	"time"

	"github.com/mguerin/materiguard/httpx"
	"github.com/mguerin/materiguard/internal/services"
	"github.com/mguerin/materiguard/session"
)

// AuthHandler exposes login, logout and the current-session endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login authenticates credentials and issues the session cookie. The response
// body is the session record, so clients see their role and permissions
// without a second round trip.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	rec, err := h.auth.Login(input.Username, input.Password)
	if err != nil {
		serviceError(w, err)
		return
	}
	if err := session.Issue(w, rec); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "session_issue_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

// Logout clears the session cookie. Safe to call without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	session.Clear(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the session record attached by the middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	rec, ok := session.FromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

// Refresh re-issues the session cookie with a fresh expiry window. The role
// and permissions stay those captured at login; only the expiry slides.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	rec, ok := session.FromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	renewed := session.New(rec.UserID, rec.Username, rec.Email, rec.Role, time.Now())
	renewed.LoginTime = rec.LoginTime
	if err := session.Issue(w, renewed); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "session_issue_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, renewed)
}

// ChangePassword lets the signed-in user rotate their own password after
// re-proving the current one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var input struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.auth.ChangePassword(userID, input.CurrentPassword, input.NewPassword); err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}
