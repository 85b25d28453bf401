package usage

import (
	"github.com/veilcrypt/licensed/internal/usage/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.ledger",
	fx.Provide(repository.Provide),
)
