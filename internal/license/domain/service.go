package domain

import (
	"context"
	"errors"
	"time"

	usagedomain "github.com/veilcrypt/licensed/internal/usage/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*LicenseView, error)
	Validate(ctx context.Context, req ValidateRequest) (*ValidationResult, error)
	RecordUsage(ctx context.Context, req ProcessRequest) (*UsageResult, error)
	History(ctx context.Context, key string) ([]usagedomain.UsageRecord, error)
	ListByUser(ctx context.Context, userID string) ([]LicenseView, error)
}

type CreateRequest struct {
	UserID    string   `json:"user_id"`
	Plan      string   `json:"plan"`
	PaymentID *string  `json:"payment_id,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`
}

type ValidateRequest struct {
	Key        string `json:"license_key"`
	HardwareID string `json:"hardware_id"`
}

// ProcessRequest describes one metered crypt operation. The operation itself
// runs client-side; the server only accounts for it.
type ProcessRequest struct {
	Key           string `json:"license_key"`
	FileName      string `json:"file_name"`
	FileSize      int64  `json:"file_size"`
	Method        string `json:"encryption_method"`
	HardwareID    string `json:"hardware_id"`
	ClientVersion string `json:"client_version"`
}

// Rejection reasons reported on the structured results. These are expected
// outcomes, not errors.
const (
	ReasonInvalidKey    = "invalid_key"
	ReasonExpired       = "expired"
	ReasonUserInactive  = "user_inactive"
	ReasonLimitExceeded = "limit_exceeded"
)

// ValidationResult is a read-only snapshot for caller display. It is not a
// concurrency token: the usage numbers may be stale by the next request.
type ValidationResult struct {
	Valid     bool       `json:"valid"`
	Reason    string     `json:"reason,omitempty"`
	Message   string     `json:"message"`
	Plan      string     `json:"plan,omitempty"`
	MaxUsage  int        `json:"max_usage,omitempty"`
	UsedUsage int        `json:"used_usage,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type UsageResult struct {
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message"`
	Remaining int    `json:"remaining"`
}

type LicenseView struct {
	ID        string     `json:"id"`
	Key       string     `json:"key"`
	Plan      string     `json:"plan"`
	MaxUsage  int        `json:"max_usage"`
	UsedUsage int        `json:"used_usage"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

var (
	ErrInvalidInput  = errors.New("invalid_input")
	ErrNotFound      = errors.New("not_found")
	ErrOwnerNotFound = errors.New("owner_not_found")
	ErrInvalidID     = errors.New("invalid_id")
)
