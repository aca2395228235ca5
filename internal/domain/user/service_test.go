// internal/domain/user/service_test.go
package user

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	cfg := &config.Config{
		Security: config.SecurityConfig{BcryptCost: 4}, // keep tests fast
	}
	return NewService(db, cfg)
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		FirstName: "Ada",
		LastName:  "Obi",
		Email:     "Ada@Example.com",
		Username:  "ada",
		Password:  "s3cret-password",
		Address:   "12 Marina Road, Lagos",
		Phone:     "08012345678",
	}
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)

	usr, err := svc.Register(registerRequest())
	require.NoError(t, err)
	assert.NotZero(t, usr.ID)
	// Emails are stored lowercase
	assert.Equal(t, "ada@example.com", usr.Email)
	// The stored password is a hash, never the plaintext
	assert.NotEqual(t, "s3cret-password", usr.Password)
	assert.False(t, usr.IsAdmin)
}

func TestRegister_DuplicateAccount(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(registerRequest())
	require.NoError(t, err)

	// Same email, different username
	dup := registerRequest()
	dup.Username = "ada2"
	_, err = svc.Register(dup)
	assert.ErrorIs(t, err, ErrAccountExists)

	// Same username, different email
	dup = registerRequest()
	dup.Email = "other@example.com"
	_, err = svc.Register(dup)
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Register(registerRequest())
	require.NoError(t, err)

	usr, err := svc.Authenticate("ada", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, "ada", usr.Username)

	_, err = svc.Authenticate("ada", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate("nobody", "s3cret-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestService(t)
	usr, err := svc.Register(registerRequest())
	require.NoError(t, err)

	newAddress := "45 Allen Avenue, Ikeja"
	newPassword := "an0ther-password"
	updated, err := svc.UpdateProfile(usr.ID, &UpdateProfileRequest{
		Address:  &newAddress,
		Password: &newPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, newAddress, updated.Address)
	// Untouched fields survive
	assert.Equal(t, "ada", updated.Username)

	// The new password takes effect immediately
	_, err = svc.Authenticate("ada", newPassword)
	require.NoError(t, err)
	_, err = svc.Authenticate("ada", "s3cret-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetByID(t *testing.T) {
	svc := newTestService(t)
	usr, err := svc.Register(registerRequest())
	require.NoError(t, err)

	fetched, err := svc.GetByID(usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", fetched.GetFullName())

	_, err = svc.GetByID(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
