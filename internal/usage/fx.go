package usage

import (
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(service.NewService),
)
