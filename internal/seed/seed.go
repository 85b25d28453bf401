// Package seed bootstraps the initial admin account.
package seed

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/veilcrypt/licensed/internal/auth/domain"
	"github.com/veilcrypt/licensed/internal/auth/password"
	"github.com/veilcrypt/licensed/internal/clock"
	"github.com/veilcrypt/licensed/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
	Repo  authdomain.Repository
}

// EnsureAdmin creates the configured admin account when it does not exist.
// Without ADMIN_PASSWORD set, seeding is skipped.
func EnsureAdmin(p Params) error {
	email := strings.ToLower(strings.TrimSpace(p.Cfg.AdminEmail))
	if email == "" || p.Cfg.AdminPassword == "" {
		p.Log.Info("admin seed skipped, no credentials configured")
		return nil
	}

	ctx := context.Background()
	existing, err := p.Repo.FindByEmail(ctx, p.DB, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := password.Hash(p.Cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := p.Clock.Now()
	admin := &authdomain.User{
		ID:           p.GenID.Generate(),
		Email:        email,
		PasswordHash: hash,
		Role:         authdomain.RoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.Repo.Insert(ctx, p.DB, admin); err != nil {
		return err
	}

	p.Log.Info("admin account created", zap.String("email", email))
	return nil
}

// Module runs the admin bootstrap at startup.
var Module = fx.Module("seed",
	fx.Invoke(EnsureAdmin),
)
