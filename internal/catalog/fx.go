package catalog

import (
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(service.NewService),
)
