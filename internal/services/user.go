package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mguerin/materiguard/gate"
	"github.com/mguerin/materiguard/internal/models"
	"github.com/mguerin/materiguard/validation"
)

// minPasswordLen matches the policy enforced at signup and password change.
const minPasswordLen = 6

// UserService manages accounts. Password hashes never leave this package:
// the model hides them from JSON and the service never returns them in
// plain form.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetAll() ([]models.User, error) {
	var users []models.User
	err := s.db.Order("username asc").Find(&users).Error
	return users, err
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UserInput is what creating an account needs from the caller.
type UserInput struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     gate.Role `json:"role"`
	Active   *bool     `json:"active,omitempty"`
}

// Create validates, checks username/email uniqueness case-insensitively,
// hashes the password and stores the account. Role defaults to User.
func (s *UserService) Create(in UserInput) (*models.User, error) {
	v := validation.Violations{}
	validation.Required("username", in.Username, v)
	validation.Required("email", in.Email, v)
	validation.EmailLike("email", in.Email, v)
	validation.MinLen("password", in.Password, minPasswordLen, v)
	if in.Role == "" {
		in.Role = gate.RoleUser
	}
	if !in.Role.Valid() {
		v["role"] = "unknown_role"
	}
	if err := invalid(v); err != nil {
		return nil, err
	}

	if taken, err := s.usernameTaken(in.Username, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := s.emailTaken(in.Email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Role:     in.Role,
		Active:   in.Active == nil || *in.Active,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Username *string    `json:"username,omitempty"`
	Email    *string    `json:"email,omitempty"`
	Password *string    `json:"password,omitempty"`
	Role     *gate.Role `json:"role,omitempty"`
	Active   *bool      `json:"active,omitempty"`
}

func (s *UserService) Update(id uint, upd UserUpdate) (*models.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil && !strings.EqualFold(*upd.Username, user.Username) {
		if taken, err := s.usernameTaken(*upd.Username, id); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrUsernameTaken
		}
		user.Username = *upd.Username
	}
	if upd.Email != nil && !strings.EqualFold(*upd.Email, user.Email) {
		v := validation.Violations{}
		validation.EmailLike("email", *upd.Email, v)
		if err := invalid(v); err != nil {
			return nil, err
		}
		if taken, err := s.emailTaken(*upd.Email, id); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrEmailTaken
		}
		user.Email = *upd.Email
	}
	if upd.Password != nil {
		if len(*upd.Password) < minPasswordLen {
			return nil, &ValidationError{Violations: validation.Violations{"password": "too_short"}}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hash)
	}
	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, &ValidationError{Violations: validation.Violations{"role": "unknown_role"}}
		}
		user.Role = *upd.Role
	}
	if upd.Active != nil {
		user.Active = *upd.Active
	}
	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(id uint) error {
	res := s.db.Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserService) usernameTaken(username string, excludeID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("lower(username) = ? AND id <> ?", strings.ToLower(username), excludeID).
		Count(&count).Error
	return count > 0, err
}

func (s *UserService) emailTaken(email string, excludeID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("lower(email) = ? AND id <> ?", strings.ToLower(email), excludeID).
		Count(&count).Error
	return count > 0, err
}
