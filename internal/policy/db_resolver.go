package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mguerin/materiguard/gate"
	"github.com/mguerin/materiguard/internal/models"
)

// DBRoleResolver fetches a user's role from the database and turns it into a
// gate profile. It implements gate.ProfileResolver for uint user IDs.
type DBRoleResolver struct {
	DB *gorm.DB
}

func NewDBRoleResolver(db *gorm.DB) *DBRoleResolver {
	return &DBRoleResolver{DB: db}
}

// Resolve returns nil without error for unknown or deactivated users, so the
// cache layer remembers the denial instead of re-querying every request.
func (r *DBRoleResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Select("id", "role", "active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.Active || !user.Role.Valid() {
		return nil, nil
	}
	return gate.NewStaticProfile(user.Role), nil
}
