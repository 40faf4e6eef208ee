package payment

import (
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/gateway"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(gateway.NewClient),
	fx.Provide(service.NewResolver),
	fx.Provide(service.NewService),
)
