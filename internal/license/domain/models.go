// Package domain defines the license entitlement records and the contracts
// guarding how their usage is consumed.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/veilcrypt/licensed/internal/auth/domain"
)

// UnboundedUsage disables the cap check for a license.
const UnboundedUsage = -1

// License binds a usage cap and validity window to a user.
//
// Invariant: UsedUsage never exceeds MaxUsage while MaxUsage >= 0, and only
// Repository.ConsumeUsage may advance it.
type License struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID `json:"user_id" gorm:"not null;index"`
	Key       string       `json:"key" gorm:"type:text;not null;uniqueIndex"`
	Plan      string       `json:"plan" gorm:"type:text;not null"`
	MaxUsage  int          `json:"max_usage" gorm:"not null"`
	UsedUsage int          `json:"used_usage" gorm:"not null;default:0"`
	ExpiresAt *time.Time   `json:"expires_at"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	PaymentID *string      `json:"payment_id,omitempty" gorm:"type:text"`
	Amount    *float64     `json:"amount,omitempty" gorm:"type:decimal(10,2)"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Owner *authdomain.User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName sets the database table name.
func (License) TableName() string { return "licenses" }

// Bounded reports whether the cap check applies.
func (l *License) Bounded() bool { return l.MaxUsage >= 0 }

// Remaining returns the unconsumed units, or UnboundedUsage for uncapped licenses.
func (l *License) Remaining() int {
	if !l.Bounded() {
		return UnboundedUsage
	}
	return l.MaxUsage - l.UsedUsage
}
