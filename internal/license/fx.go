package license

import (
	"github.com/veilcrypt/licensed/internal/license/repository"
	"github.com/veilcrypt/licensed/internal/license/service"
	"go.uber.org/fx"
)

var Module = fx.Module("license.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
