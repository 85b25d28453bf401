package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	licensedomain "github.com/veilcrypt/licensed/internal/license/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() licensedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, license *licensedomain.License) error {
	return db.WithContext(ctx).Create(license).Error
}

// "key" is a reserved word in MySQL, so every lookup on the column goes
// through the clause builder for dialect quoting instead of a raw string.
func (r *repo) KeyExists(ctx context.Context, db *gorm.DB, key string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&licensedomain.License{}).
		Where(map[string]any{"key": key}).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, key string) (*licensedomain.License, error) {
	var license licensedomain.License
	err := db.WithContext(ctx).
		Preload("Owner").
		Where(map[string]any{"key": key}).
		First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &license, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*licensedomain.License, error) {
	var license licensedomain.License
	err := db.WithContext(ctx).Where("id = ?", id).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &license, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]licensedomain.License, error) {
	var licenses []licensedomain.License
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&licenses).Error
	if err != nil {
		return nil, err
	}
	return licenses, nil
}

func (r *repo) ListWithOwner(ctx context.Context, db *gorm.DB) ([]licensedomain.License, error) {
	var licenses []licensedomain.License
	err := db.WithContext(ctx).
		Preload("Owner").
		Order("created_at DESC").
		Find(&licenses).Error
	if err != nil {
		return nil, err
	}
	return licenses, nil
}

// ConsumeUsage is the single serialization point for usage accounting: the
// cap comparison and the increment happen inside one UPDATE, so concurrent
// consumers cannot both pass the check from the same observed value.
func (r *repo) ConsumeUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE licenses
		 SET used_usage = used_usage + 1, updated_at = ?
		 WHERE id = ? AND active = ? AND (max_usage < 0 OR used_usage < max_usage)`,
		now,
		id,
		true,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Revoke(ctx context.Context, db *gorm.DB, key string, now time.Time) (bool, error) {
	result := db.WithContext(ctx).
		Model(&licensedomain.License{}).
		Where(map[string]any{"key": key, "active": true}).
		Updates(map[string]any{"active": false, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&licensedomain.License{}).Count(&count).Error
	return count, err
}

func (r *repo) CountActive(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&licensedomain.License{}).
		Where("active = ?", true).
		Count(&count).Error
	return count, err
}
