package policy

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/mguerin/materiguard/gate"
	"github.com/mguerin/materiguard/httpx"
	"github.com/mguerin/materiguard/session"
)

// AuthGate is the central authorization point: a permission gate over the
// database-backed role resolver, with a short-lived cache in front.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate creates a fully configured authorization gate.
// cacheTTL bounds how long a role change can go unnoticed for an already
// cached user; user management handlers invalidate explicitly on change.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](NewDBRoleResolver(db), cacheTTL)
	return &AuthGate{
		Gate:          gate.New[uint](cached),
		CacheResolver: cached,
	}
}

// Authorize checks the signed-in user against a permission.
// Returns gate.ErrUnauthorized when no user is attached to the context.
func (ag *AuthGate) Authorize(ctx context.Context, perm gate.Permission) error {
	userID, ok := session.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, userID, perm)
}

// Can is a convenience wrapper returning bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, perm gate.Permission) bool {
	return ag.Authorize(ctx, perm) == nil
}

// HasRole reports whether the signed-in user ranks at or above required.
func (ag *AuthGate) HasRole(ctx context.Context, required gate.Role) bool {
	userID, ok := session.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.HasRole(ctx, userID, required)
}

// InvalidateUser clears the cached profile for one user. Call it whenever the
// user's role or active flag changes.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// InvalidateAll clears the entire profile cache.
func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// RequirePermission returns middleware that rejects requests whose user lacks
// the permission. Denials are 403s; missing sessions are handled upstream by
// session.RequireAuth.
func (ag *AuthGate) RequirePermission(perm gate.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.Can(r.Context(), perm) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns middleware that only lets through users whose role
// ranks at or above required.
func (ag *AuthGate) RequireRole(required gate.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.HasRole(r.Context(), required) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
