package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Roles assignable to an account. Admin unlocks the administration surface.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User owns zero or more licenses.
type User struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Email        string       `json:"email" gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string       `json:"-" gorm:"type:text;not null"`
	HardwareID   string       `json:"hardware_id" gorm:"type:text"`
	Role         string       `json:"role" gorm:"type:text;not null;default:'user'"`
	Active       bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	LastLoginAt  *time.Time   `json:"last_login_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// IsAdmin reports whether the account may call administration endpoints.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
