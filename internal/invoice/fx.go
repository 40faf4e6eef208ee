package invoice

import (
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(service.NewService),
)
