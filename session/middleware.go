package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type ctxKey string

const recordCtxKey = ctxKey("sessionRecord")

// UserVerifier is an optional callback to validate that a session's user still
// exists and is allowed in. Set it during app bootstrap via SetUserVerifier.
// If nil, no extra verification is performed.
type UserVerifier func(ctx context.Context, userID uint) bool

var verifier UserVerifier

// SetUserVerifier configures the global verifier used by RequireAuth.
func SetUserVerifier(v UserVerifier) { verifier = v }

// WithRecord stores the session record in the context.
func WithRecord(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, recordCtxKey, rec)
}

// FromContext extracts the session record attached by Middleware.
func FromContext(ctx context.Context) (*Record, bool) {
	rec, ok := ctx.Value(recordCtxKey).(*Record)
	return rec, ok && rec != nil
}

// UserIDFromContext extracts the signed-in user's id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	rec, ok := FromContext(ctx)
	if !ok {
		return 0, false
	}
	return rec.UserID, true
}

// Middleware attaches the session record to the request context if present.
// A cookie that fails validation (tampered or expired) is cleared here as a
// side effect, so the client does not keep resending a dead session.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec, ok := FromRequest(r); ok {
			r = r.WithContext(WithRecord(r.Context(), rec))
		} else if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			Clear(w)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without a valid session: JSON clients get a
// 401, browsers get redirected to /login. Authorization failures are denials,
// never fatal errors.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := FromContext(r.Context())
		if !ok {
			deny(w, r)
			return
		}
		if verifier != nil && !verifier(r.Context(), rec.UserID) {
			// Session refers to a deleted or deactivated user: clear it.
			Clear(w)
			deny(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"unauthorized"}`)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
