package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/veilcrypt/licensed/internal/auth/domain"
	"github.com/veilcrypt/licensed/internal/clock"
	licensedomain "github.com/veilcrypt/licensed/internal/license/domain"
	"github.com/veilcrypt/licensed/internal/license/keygen"
	"github.com/veilcrypt/licensed/internal/license/plan"
	usagedomain "github.com/veilcrypt/licensed/internal/usage/domain"
	"github.com/veilcrypt/licensed/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxKeyAttempts bounds collision retries during key generation. With 36^16
// candidate keys a second attempt is already rare.
const maxKeyAttempts = 5

// errLimitReached aborts the accounting transaction when the conditional
// increment matched no row. It never leaves this package.
var errLimitReached = errors.New("usage limit reached")

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   licensedomain.Repository
	Users  authdomain.Repository
	Ledger usagedomain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   licensedomain.Repository
	users  authdomain.Repository
	ledger usagedomain.Repository
}

func New(p Params) licensedomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("license.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		users:  p.Users,
		ledger: p.Ledger,
	}
}

func (s *Service) Create(ctx context.Context, req licensedomain.CreateRequest) (*licensedomain.LicenseView, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, licensedomain.ErrInvalidID
	}

	owner, err := s.users.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if owner == nil || !owner.Active {
		return nil, licensedomain.ErrOwnerNotFound
	}

	planID := strings.ToLower(strings.TrimSpace(req.Plan))
	if planID == "" {
		return nil, licensedomain.ErrInvalidInput
	}

	now := s.clock.Now()
	entitlement := plan.Limits(planID)

	license := &licensedomain.License{
		UserID:    owner.ID,
		Plan:      planID,
		MaxUsage:  entitlement.MaxUsage,
		UsedUsage: 0,
		ExpiresAt: entitlement.ExpiryFrom(now),
		Active:    true,
		PaymentID: req.PaymentID,
		Amount:    req.Amount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.insertWithFreshKey(ctx, license); err != nil {
		return nil, err
	}

	s.log.Info("license created",
		zap.String("license_id", license.ID.String()),
		zap.String("user_id", owner.ID.String()),
		zap.String("plan", planID),
	)
	return s.toView(license), nil
}

// insertWithFreshKey generates a key, verifies it is unused and inserts the
// row, regenerating on collision. The unique index backstops the pre-check.
func (s *Service) insertWithFreshKey(ctx context.Context, license *licensedomain.License) error {
	var lastErr error
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key, err := keygen.Generate()
		if err != nil {
			return err
		}

		taken, err := s.repo.KeyExists(ctx, s.db, key)
		if err != nil {
			return err
		}
		if taken {
			continue
		}

		license.ID = s.genID.Generate()
		license.Key = key
		if err := s.repo.Insert(ctx, s.db, license); err != nil {
			if db.IsDuplicateKeyErr(err) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("key generation exhausted retries")
	}
	return lastErr
}

func (s *Service) Validate(ctx context.Context, req licensedomain.ValidateRequest) (*licensedomain.ValidationResult, error) {
	key := strings.TrimSpace(req.Key)
	hardwareID := strings.TrimSpace(req.HardwareID)
	if !keygen.Valid(key) || hardwareID == "" {
		return nil, licensedomain.ErrInvalidInput
	}

	license, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	return s.evaluate(license), nil
}

// evaluate runs the ordered check sequence. The order fixes which reason is
// reported when several would apply. The hardware id is deliberately not
// compared against the owner's bound id: binding is advisory telemetry.
func (s *Service) evaluate(license *licensedomain.License) *licensedomain.ValidationResult {
	if license == nil || !license.Active {
		return &licensedomain.ValidationResult{
			Valid:   false,
			Reason:  licensedomain.ReasonInvalidKey,
			Message: "Invalid license key",
		}
	}

	if license.ExpiresAt != nil && license.ExpiresAt.Before(s.clock.Now()) {
		return &licensedomain.ValidationResult{
			Valid:   false,
			Reason:  licensedomain.ReasonExpired,
			Message: "License has expired",
		}
	}

	if license.Owner == nil || !license.Owner.Active {
		return &licensedomain.ValidationResult{
			Valid:   false,
			Reason:  licensedomain.ReasonUserInactive,
			Message: "User account is inactive",
		}
	}

	if license.Bounded() && license.UsedUsage >= license.MaxUsage {
		return &licensedomain.ValidationResult{
			Valid:   false,
			Reason:  licensedomain.ReasonLimitExceeded,
			Message: "License usage limit exceeded",
		}
	}

	return &licensedomain.ValidationResult{
		Valid:     true,
		Message:   "License is valid",
		Plan:      license.Plan,
		MaxUsage:  license.MaxUsage,
		UsedUsage: license.UsedUsage,
		ExpiresAt: license.ExpiresAt,
	}
}

func (s *Service) RecordUsage(ctx context.Context, req licensedomain.ProcessRequest) (*licensedomain.UsageResult, error) {
	key := strings.TrimSpace(req.Key)
	hardwareID := strings.TrimSpace(req.HardwareID)
	if !keygen.Valid(key) || hardwareID == "" || strings.TrimSpace(req.FileName) == "" {
		return nil, licensedomain.ErrInvalidInput
	}

	license, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		return nil, err
	}

	if verdict := s.evaluate(license); !verdict.Valid {
		return &licensedomain.UsageResult{
			Success: false,
			Reason:  verdict.Reason,
			Message: verdict.Message,
		}, nil
	}

	now := s.clock.Now()
	remaining := licensedomain.UnboundedUsage
	limitHit := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed, err := s.repo.ConsumeUsage(ctx, tx, license.ID, now)
		if err != nil {
			return err
		}
		if !consumed {
			// Another request took the last unit between our snapshot and
			// the conditional update.
			limitHit = true
			return errLimitReached
		}

		record := &usagedomain.UsageRecord{
			ID:         s.genID.Generate(),
			LicenseID:  license.ID,
			FileName:   strings.TrimSpace(req.FileName),
			FileSize:   req.FileSize,
			Method:     strings.TrimSpace(req.Method),
			HardwareID: hardwareID,
			ClientVer:  strings.TrimSpace(req.ClientVersion),
			Success:    true,
			RecordedAt: now,
		}
		if err := s.ledger.Append(ctx, tx, record); err != nil {
			return err
		}

		current, err := s.repo.FindByID(ctx, tx, license.ID)
		if err != nil {
			return err
		}
		if current != nil {
			remaining = current.Remaining()
		}
		return nil
	})

	if limitHit {
		return &licensedomain.UsageResult{
			Success:   false,
			Reason:    licensedomain.ReasonLimitExceeded,
			Message:   "License usage limit exceeded",
			Remaining: 0,
		}, nil
	}
	if err != nil {
		s.log.Error("usage accounting failed",
			zap.String("license_id", license.ID.String()),
			zap.Error(err),
		)
		s.recordFailure(ctx, license.ID, req, err, now)
		return &licensedomain.UsageResult{
			Success: false,
			Message: "Processing failed",
		}, nil
	}

	return &licensedomain.UsageResult{
		Success:   true,
		Message:   "File processed successfully",
		Remaining: remaining,
	}, nil
}

// recordFailure appends a failed ledger entry outside the aborted unit of
// work. Best effort: its own failure is logged and swallowed.
func (s *Service) recordFailure(ctx context.Context, licenseID snowflake.ID, req licensedomain.ProcessRequest, cause error, now time.Time) {
	record := &usagedomain.UsageRecord{
		ID:         s.genID.Generate(),
		LicenseID:  licenseID,
		FileName:   strings.TrimSpace(req.FileName),
		FileSize:   req.FileSize,
		Method:     strings.TrimSpace(req.Method),
		HardwareID: strings.TrimSpace(req.HardwareID),
		ClientVer:  strings.TrimSpace(req.ClientVersion),
		Success:    false,
		Error:      cause.Error(),
		RecordedAt: now,
	}
	if err := s.ledger.Append(ctx, s.db, record); err != nil {
		s.log.Warn("failed to record usage failure",
			zap.String("license_id", licenseID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) History(ctx context.Context, key string) ([]usagedomain.UsageRecord, error) {
	key = strings.TrimSpace(key)
	if !keygen.Valid(key) {
		return nil, licensedomain.ErrInvalidInput
	}

	license, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if license == nil {
		return nil, licensedomain.ErrNotFound
	}

	return s.ledger.ListByLicense(ctx, s.db, license.ID)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]licensedomain.LicenseView, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return nil, licensedomain.ErrInvalidID
	}

	licenses, err := s.repo.ListByUser(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	views := make([]licensedomain.LicenseView, 0, len(licenses))
	for i := range licenses {
		views = append(views, *s.toView(&licenses[i]))
	}
	return views, nil
}

func (s *Service) toView(license *licensedomain.License) *licensedomain.LicenseView {
	return &licensedomain.LicenseView{
		ID:        license.ID.String(),
		Key:       license.Key,
		Plan:      license.Plan,
		MaxUsage:  license.MaxUsage,
		UsedUsage: license.UsedUsage,
		ExpiresAt: license.ExpiresAt,
		Active:    license.Active,
		CreatedAt: license.CreatedAt,
	}
}
