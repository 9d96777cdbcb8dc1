package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mguerin/materiguard/internal/models"
	"github.com/mguerin/materiguard/session"
	"github.com/mguerin/materiguard/validation"
)

// AuthService establishes who the caller is. Authorization itself lives in
// the gate; this service only authenticates credentials and builds the
// session record.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Login matches the username case-insensitively and compares the bcrypt
// hash. Unknown user and wrong password both yield ErrInvalidCredentials so
// callers cannot probe which usernames exist; a matched but deactivated
// account yields ErrAccountDisabled. On success the permission set is derived
// from the role and the session is stamped with issue and expiry times.
func (s *AuthService) Login(username, password string) (*session.Record, error) {
	var user models.User
	err := s.db.Where("lower(username) = ?", strings.ToLower(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		return nil, err
	}
	return session.New(user.ID, user.Username, user.Email, user.Role, now), nil
}

// VerifyUser reports whether the user behind a session still exists and is
// active. Wired into session.RequireAuth at bootstrap.
func (s *AuthService) VerifyUser(userID uint) bool {
	var count int64
	s.db.Model(&models.User{}).Where("id = ? AND active = ?", userID, true).Count(&count)
	return count > 0
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(userID uint, current, next string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	if len(next) < minPasswordLen {
		return &ValidationError{Violations: validation.Violations{"password": "too_short"}}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(&user).Update("password", string(hash)).Error
}
