package stub

import (
	"github.com/veilcrypt/licensed/internal/stub/service"
	"go.uber.org/fx"
)

var Module = fx.Module("stub.service",
	fx.Provide(service.New),
)
