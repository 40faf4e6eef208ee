package subscription

import (
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/repository"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
