package tenant

import (
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(service.NewService),
)
