package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the persistent license store.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, license *License) error
	KeyExists(ctx context.Context, db *gorm.DB, key string) (bool, error)
	// FindByKey loads a license and its owner regardless of active state.
	FindByKey(ctx context.Context, db *gorm.DB, key string) (*License, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*License, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]License, error)
	ListWithOwner(ctx context.Context, db *gorm.DB) ([]License, error)
	// ConsumeUsage advances the usage counter by one iff the license is still
	// active and below its cap, as a single conditional update. It reports
	// false when the cap (or a concurrent consumer) stopped the increment.
	ConsumeUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	// Revoke deactivates the license. Reports false when the key is unknown
	// or already revoked; never an error for those cases.
	Revoke(ctx context.Context, db *gorm.DB, key string, now time.Time) (bool, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	CountActive(ctx context.Context, db *gorm.DB) (int64, error)
}
