package service

import (
	"context"
	"strings"

	admindomain "github.com/veilcrypt/licensed/internal/admin/domain"
	authdomain "github.com/veilcrypt/licensed/internal/auth/domain"
	"github.com/veilcrypt/licensed/internal/clock"
	licensedomain "github.com/veilcrypt/licensed/internal/license/domain"
	usagedomain "github.com/veilcrypt/licensed/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Licenses licensedomain.Repository
	Ledger   usagedomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	licenses licensedomain.Repository
	ledger   usagedomain.Repository
}

func New(p Params) admindomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("admin.service"),
		clock:    p.Clock,
		licenses: p.Licenses,
		ledger:   p.Ledger,
	}
}

func (s *Service) ListUsers(ctx context.Context) ([]admindomain.UserSummary, error) {
	var users []authdomain.User
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]admindomain.UserSummary, 0, len(users))
	for i := range users {
		u := &users[i]
		summaries = append(summaries, admindomain.UserSummary{
			ID:          u.ID.String(),
			Email:       u.Email,
			Role:        u.Role,
			Active:      u.Active,
			CreatedAt:   u.CreatedAt,
			LastLoginAt: u.LastLoginAt,
		})
	}
	return summaries, nil
}

func (s *Service) ListLicenses(ctx context.Context) ([]admindomain.LicenseSummary, error) {
	licenses, err := s.licenses.ListWithOwner(ctx, s.db)
	if err != nil {
		return nil, err
	}

	summaries := make([]admindomain.LicenseSummary, 0, len(licenses))
	for i := range licenses {
		l := &licenses[i]
		summary := admindomain.LicenseSummary{
			ID:        l.ID.String(),
			Key:       l.Key,
			Plan:      l.Plan,
			MaxUsage:  l.MaxUsage,
			UsedUsage: l.UsedUsage,
			ExpiresAt: l.ExpiresAt,
			Active:    l.Active,
			CreatedAt: l.CreatedAt,
			Amount:    l.Amount,
		}
		if l.Owner != nil {
			summary.UserEmail = l.Owner.Email
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Service) Revoke(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, nil
	}

	revoked, err := s.licenses.Revoke(ctx, s.db, key, s.clock.Now())
	if err != nil {
		return false, err
	}
	if revoked {
		s.log.Info("license revoked", zap.String("key", key))
	}
	return revoked, nil
}

func (s *Service) Stats(ctx context.Context) (*admindomain.Stats, error) {
	stats := &admindomain.Stats{}

	if err := s.db.WithContext(ctx).Model(&authdomain.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&authdomain.User{}).Where("active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}

	var err error
	if stats.TotalLicenses, err = s.licenses.Count(ctx, s.db); err != nil {
		return nil, err
	}
	if stats.ActiveLicenses, err = s.licenses.CountActive(ctx, s.db); err != nil {
		return nil, err
	}
	if stats.TotalUsageEvents, err = s.ledger.Count(ctx, s.db); err != nil {
		return nil, err
	}
	if stats.SuccessfulUsageEvents, err = s.ledger.CountSuccessful(ctx, s.db); err != nil {
		return nil, err
	}

	return stats, nil
}
