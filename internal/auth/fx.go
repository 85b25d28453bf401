package auth

import (
	"github.com/veilcrypt/licensed/internal/auth/repository"
	"github.com/veilcrypt/licensed/internal/auth/service"
	"github.com/veilcrypt/licensed/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(token.NewManager),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
