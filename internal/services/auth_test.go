package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mguerin/materiguard/gate"
	"github.com/mguerin/materiguard/internal/models"
)

func seedUser(t *testing.T, svc *UserService, username, password string, role gate.Role, active bool) *models.User {
	t.Helper()
	u, err := svc.Create(UserInput{
		Username: username,
		Email:    username + "@example.org",
		Password: password,
		Role:     role,
		Active:   &active,
	})
	require.NoError(t, err)
	return u
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserService(db)
	auth := NewAuthService(db)
	seedUser(t, users, "admin", "admin123", gate.RoleAdministrator, true)

	_, err := auth.Login("admin", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login("nobody", "admin123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	rec, err := auth.Login("admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, gate.RoleAdministrator, rec.Role)
	assert.True(t, rec.HasPermission(gate.PermManageUsers))
	assert.True(t, rec.HasRole(gate.RoleManager), "Administrator session passes a Manager gate")
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), rec.ExpiresAt, 5*time.Second)
}

func TestLoginIsCaseInsensitiveOnUsername(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserService(db)
	auth := NewAuthService(db)
	seedUser(t, users, "MDupont", "secret99", gate.RoleManager, true)

	rec, err := auth.Login("mdupont", "secret99")
	require.NoError(t, err)
	assert.Equal(t, "MDupont", rec.Username)

	// The password itself stays case-sensitive.
	_, err = auth.Login("mdupont", "SECRET99")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserService(db)
	auth := NewAuthService(db)
	seedUser(t, users, "parti", "secret99", gate.RoleUser, false)

	_, err := auth.Login("parti", "secret99")
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLoginStampsLastLogin(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserService(db)
	auth := NewAuthService(db)
	u := seedUser(t, users, "admin", "admin123", gate.RoleAdministrator, true)
	require.Nil(t, u.LastLogin)

	_, err := auth.Login("admin", "admin123")
	require.NoError(t, err)

	got, err := users.GetByID(u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
}

func TestVerifyUser(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserService(db)
	auth := NewAuthService(db)
	u := seedUser(t, users, "admin", "admin123", gate.RoleAdministrator, true)

	assert.True(t, auth.VerifyUser(u.ID))

	inactive := false
	_, err := users.Update(u.ID, UserUpdate{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, auth.VerifyUser(u.ID), "deactivated account fails verification")
	assert.False(t, auth.VerifyUser(9999))
}

func TestChangePassword(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserService(db)
	auth := NewAuthService(db)
	u := seedUser(t, users, "admin", "admin123", gate.RoleAdministrator, true)

	require.ErrorIs(t, auth.ChangePassword(u.ID, "wrong", "newpass66"), ErrInvalidCredentials)
	require.ErrorIs(t, auth.ChangePassword(u.ID, "admin123", "tiny"), ErrValidation)
	require.NoError(t, auth.ChangePassword(u.ID, "admin123", "newpass66"))

	_, err := auth.Login("admin", "admin123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login("admin", "newpass66")
	require.NoError(t, err)
}
