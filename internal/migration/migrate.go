// Package migration keeps the schema in sync with the gorm models.
package migration

import (
	authdomain "github.com/veilcrypt/licensed/internal/auth/domain"
	licensedomain "github.com/veilcrypt/licensed/internal/license/domain"
	stubdomain "github.com/veilcrypt/licensed/internal/stub/domain"
	usagedomain "github.com/veilcrypt/licensed/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the tables for every persisted model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&authdomain.User{},
		&licensedomain.License{},
		&usagedomain.UsageRecord{},
		&stubdomain.StubVersion{},
	)
}

// Module applies migrations at startup, before seeding.
var Module = fx.Module("migration",
	fx.Invoke(AutoMigrate),
)
