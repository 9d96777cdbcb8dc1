// Package session persists a signed-in user's identity, role and permission
// set in an HMAC-signed cookie. Lifetime is absolute: a record is valid until
// explicit logout or until its expiry elapses, whichever comes first. Expiry
// is lazy — there is no background timer; an expired cookie is detected on the
// next read and treated exactly like "never logged in".
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mguerin/materiguard/gate"
)

const (
	cookieName = "mg_session"

	// TTL is how long an issued session stays valid.
	TTL = 8 * time.Hour
)

// Record is the persisted session payload. Field names match the stored JSON
// object consumed by clients.
type Record struct {
	UserID      uint              `json:"id"`
	Username    string            `json:"username"`
	Email       string            `json:"email"`
	Role        gate.Role         `json:"role"`
	Permissions []gate.Permission `json:"permissions"`
	LoginTime   time.Time         `json:"loginTime"`
	ExpiresAt   time.Time         `json:"expiresAt"`
}

// New builds a record for a freshly authenticated user, deriving the
// permission set from the role and stamping loginTime/expiresAt.
// The role is fixed for the lifetime of the session once issued.
func New(userID uint, username, email string, role gate.Role, now time.Time) *Record {
	return &Record{
		UserID:      userID,
		Username:    username,
		Email:       email,
		Role:        role,
		Permissions: gate.PermissionsFor(role),
		LoginTime:   now,
		ExpiresAt:   now.Add(TTL),
	}
}

// Expired reports whether the record's expiry has elapsed at now.
func (rec *Record) Expired(now time.Time) bool {
	return now.After(rec.ExpiresAt)
}

// HasRole reports whether the session's role ranks at or above required.
func (rec *Record) HasRole(required gate.Role) bool {
	return rec.Role.AtLeast(required)
}

// HasPermission checks membership in the session's permission set.
func (rec *Record) HasPermission(p gate.Permission) bool {
	for _, held := range rec.Permissions {
		if held == p {
			return true
		}
	}
	return false
}

// Secret returns SESSION_SECRET or a default dev value.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

// Issue signs the record and sets the session cookie.
func Issue(w http.ResponseWriter, rec *Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded + "." + sign(encoded),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  rec.ExpiresAt,
	})
	return nil
}

// Clear deletes the session cookie unconditionally. Idempotent.
func Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
}

// FromRequest validates the session cookie and returns its record.
// A missing, tampered or expired cookie all yield (nil, false): callers must
// not be able to tell an expired session apart from no session.
func FromRequest(r *http.Request) (*Record, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return nil, false
	}
	encoded, sig := parts[0], parts[1]
	if !hmac.Equal([]byte(sig), []byte(sign(encoded))) {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, false
	}
	if rec.Expired(time.Now()) {
		return nil, false
	}
	return &rec, true
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
