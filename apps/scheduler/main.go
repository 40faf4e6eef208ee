package main

import (
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/clock"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/config"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/migration"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/observability/metrics"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/scheduler"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/tenant"
	"github.com/atshybrid/kaburlu-media-backend-sub003/pkg/db"
	"github.com/atshybrid/kaburlu-media-backend-sub003/pkg/log"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services required by the sweep
		catalog.Module,
		tenant.Module,
		subscription.Module,

		// No server module!
		scheduler.Module,
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
