// internal/domain/user/service.go
package user

import (
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Account errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountExists      = errors.New("email or username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service handles user account business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// RegisterRequest represents account creation data
type RegisterRequest struct {
	FirstName string `json:"firstname" binding:"required"`
	LastName  string `json:"lastname" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	Address   string `json:"address" binding:"required"`
	Phone     string `json:"phone"`
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// Register creates a new account with a hashed password
func (s *Service) Register(req *RegisterRequest) (*User, error) {
	var count int64
	err := s.db.Model(&User{}).
		Where("email = ? OR username = ?", strings.ToLower(req.Email), req.Username).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing accounts: %w", err)
	}
	if count > 0 {
		return nil, ErrAccountExists
	}

	hash, err := auth.HashPassword(req.Password, s.config.Security.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usr := User{
		Email:     req.Email,
		Username:  req.Username,
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	}
	if err := s.db.Create(&usr).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &usr, nil
}

// Authenticate verifies a username/password pair
func (s *Service) Authenticate(username, password string) (*User, error) {
	var usr User
	if err := s.db.Where("username = ?", username).First(&usr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPassword(usr.Password, password) {
		return nil, ErrInvalidCredentials
	}

	return &usr, nil
}

// GetByID retrieves a user by ID
func (s *Service) GetByID(id uint) (*User, error) {
	var usr User
	if err := s.db.First(&usr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &usr, nil
}

// UpdateProfile applies a partial update to the user's own profile
func (s *Service) UpdateProfile(id uint, req *UpdateProfileRequest) (*User, error) {
	usr, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		usr.Username = *req.Username
	}
	if req.Email != nil {
		usr.Email = strings.ToLower(*req.Email)
	}
	if req.Address != nil {
		usr.Address = *req.Address
	}
	if req.Phone != nil {
		usr.Phone = *req.Phone
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password, s.config.Security.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		usr.Password = hash
	}

	if err := s.db.Save(usr).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return usr, nil
}
