package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Refresh(ctx context.Context, userID string) (*AuthResult, error)
	GetByID(ctx context.Context, userID string) (*UserView, error)
}

type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	HardwareID string `json:"hardware_id"`
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	HardwareID string `json:"hardware_id"`
}

type UserView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type AuthResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

var (
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrUserExists         = errors.New("user_exists")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrInvalidID          = errors.New("invalid_id")
)
