package service

import (
	"context"
	"errors"

	stubdomain "github.com/veilcrypt/licensed/internal/stub/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(p Params) stubdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("stub.service"),
	}
}

func (s *Service) Latest(ctx context.Context) (*stubdomain.StubInfo, error) {
	var stub stubdomain.StubVersion
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("release_date DESC").
		First(&stub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &stubdomain.StubInfo{
		Version:     stub.Version,
		ReleaseDate: stub.ReleaseDate,
		Description: stub.Description,
		DownloadURL: stub.DownloadURL,
		FileSize:    stub.FileSize,
		Checksum:    stub.Checksum,
	}, nil
}
