package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/veilcrypt/licensed/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) Append(ctx context.Context, db *gorm.DB, record *usagedomain.UsageRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) ListByLicense(ctx context.Context, db *gorm.DB, licenseID snowflake.ID) ([]usagedomain.UsageRecord, error) {
	var records []usagedomain.UsageRecord
	err := db.WithContext(ctx).
		Where("license_id = ?", licenseID).
		Order("recorded_at DESC").
		Limit(usagedomain.HistoryLimit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&usagedomain.UsageRecord{}).Count(&count).Error
	return count, err
}

func (r *repo) CountSuccessful(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&usagedomain.UsageRecord{}).
		Where("success = ?", true).
		Count(&count).Error
	return count, err
}
