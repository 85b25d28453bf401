// Package domain defines the read-mostly administration view over users,
// licenses and the usage ledger.
package domain

import (
	"context"
	"time"
)

type Service interface {
	ListUsers(ctx context.Context) ([]UserSummary, error)
	ListLicenses(ctx context.Context) ([]LicenseSummary, error)
	// Revoke deactivates a license. Idempotent: revoking an unknown or
	// already-revoked key reports false, never an error.
	Revoke(ctx context.Context, key string) (bool, error)
	Stats(ctx context.Context) (*Stats, error)
}

// UserSummary is one row of the account roster. The password hash never
// leaves the store.
type UserSummary struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LicenseSummary joins a license with its owner's email for display.
type LicenseSummary struct {
	ID        string     `json:"id"`
	Key       string     `json:"key"`
	Plan      string     `json:"plan"`
	MaxUsage  int        `json:"max_usage"`
	UsedUsage int        `json:"used_usage"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UserEmail string     `json:"user_email"`
	Amount    *float64   `json:"amount,omitempty"`
}

// Stats are plain counts over the store. They are eventually consistent with
// concurrent writers; no transactional snapshot is taken.
type Stats struct {
	TotalUsers            int64 `json:"total_users"`
	ActiveUsers           int64 `json:"active_users"`
	TotalLicenses         int64 `json:"total_licenses"`
	ActiveLicenses        int64 `json:"active_licenses"`
	TotalUsageEvents      int64 `json:"total_usage_events"`
	SuccessfulUsageEvents int64 `json:"successful_usage_events"`
}
