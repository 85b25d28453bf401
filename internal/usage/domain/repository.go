package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Append(ctx context.Context, db *gorm.DB, record *UsageRecord) error
	ListByLicense(ctx context.Context, db *gorm.DB, licenseID snowflake.ID) ([]UsageRecord, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	CountSuccessful(ctx context.Context, db *gorm.DB) (int64, error)
}
