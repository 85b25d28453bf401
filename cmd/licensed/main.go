package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/veilcrypt/licensed/internal/admin"
	"github.com/veilcrypt/licensed/internal/auth"
	"github.com/veilcrypt/licensed/internal/clock"
	"github.com/veilcrypt/licensed/internal/config"
	"github.com/veilcrypt/licensed/internal/license"
	"github.com/veilcrypt/licensed/internal/logger"
	"github.com/veilcrypt/licensed/internal/migration"
	obsmetrics "github.com/veilcrypt/licensed/internal/observability/metrics"
	"github.com/veilcrypt/licensed/internal/seed"
	"github.com/veilcrypt/licensed/internal/server"
	"github.com/veilcrypt/licensed/internal/stub"
	"github.com/veilcrypt/licensed/internal/usage"
	"github.com/veilcrypt/licensed/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		obsmetrics.Module,

		auth.Module,
		usage.Module,
		license.Module,
		admin.Module,
		stub.Module,
		seed.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
