package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/veilcrypt/licensed/internal/auth/domain"
	"github.com/veilcrypt/licensed/internal/auth/password"
	"github.com/veilcrypt/licensed/internal/auth/token"
	"github.com/veilcrypt/licensed/internal/clock"
	"github.com/veilcrypt/licensed/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Tokens *token.Manager
	Repo   authdomain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	tokens *token.Manager
	repo   authdomain.Repository
}

func New(p Params) authdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("auth.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		tokens: p.Tokens,
		repo:   p.Repo,
	}
}

func (s *Service) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, authdomain.ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return nil, authdomain.ErrInvalidPassword
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, authdomain.ErrUserExists
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &authdomain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: hash,
		HardwareID:   strings.TrimSpace(req.HardwareID),
		Role:         authdomain.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, authdomain.ErrUserExists
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return s.authResult(user, now)
}

func (s *Service) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}

	// A missing, inactive, or mismatched account all answer the same way so
	// credential probing learns nothing.
	if user == nil || !user.Active || !password.Verify(req.Password, user.PasswordHash) {
		return nil, authdomain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if hwid := strings.TrimSpace(req.HardwareID); hwid != "" {
		user.HardwareID = hwid
	}
	if err := s.repo.Update(ctx, s.db, user); err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID.String()))
	return s.authResult(user, now)
}

func (s *Service) Refresh(ctx context.Context, userID string) (*authdomain.AuthResult, error) {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.authResult(user, s.clock.Now())
}

func (s *Service) GetByID(ctx context.Context, userID string) (*authdomain.UserView, error) {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := s.toView(user)
	return &view, nil
}

func (s *Service) activeUser(ctx context.Context, userID string) (*authdomain.User, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return nil, authdomain.ErrInvalidID
	}
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, authdomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) authResult(user *authdomain.User, now time.Time) (*authdomain.AuthResult, error) {
	signed, err := s.tokens.Issue(user, now)
	if err != nil {
		return nil, err
	}
	return &authdomain.AuthResult{
		Token: signed,
		User:  s.toView(user),
	}, nil
}

func (s *Service) toView(user *authdomain.User) authdomain.UserView {
	return authdomain.UserView{
		ID:          user.ID.String(),
		Email:       user.Email,
		Role:        user.Role,
		Active:      user.Active,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}
