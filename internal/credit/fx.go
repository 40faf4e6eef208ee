package credit

import (
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/credit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("credit.service",
	fx.Provide(service.NewService),
)
