package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/mguerin/materiguard/gate"
)

// User represents an account that can sign in.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"` // bcrypt hash, never exposed in JSON
	Role      gate.Role      `gorm:"size:50;not null;default:'User'" json:"role"`
	// Active blocks future logins when false. Existing sessions are caught by
	// the session verifier on their next request. No column default: GORM
	// would omit a false value on insert and let the default win, so callers
	// set it explicitly.
	Active    bool       `gorm:"not null" json:"active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}
