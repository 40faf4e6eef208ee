package service

import (
	"context"
	"errors"

	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/config"
	paymentdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type ResolverParam struct {
	fx.In

	DB  *gorm.DB
	Cfg config.Config
}

type Resolver struct {
	db       *gorm.DB
	fallback paymentdomain.Credentials
}

func NewResolver(p ResolverParam) paymentdomain.CredentialResolver {
	return &Resolver{
		db: p.DB,
		fallback: paymentdomain.Credentials{
			KeyID:         p.Cfg.Gateway.KeyID,
			KeySecret:     p.Cfg.Gateway.KeySecret,
			WebhookSecret: p.Cfg.Gateway.WebhookSecret,
		},
	}
}

// Resolve returns the tenant's credential row when present, the global
// configuration otherwise.
func (r *Resolver) Resolve(ctx context.Context, tenantID snowflake.ID) (paymentdomain.Credentials, error) {
	var row paymentdomain.GatewayCredential
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return paymentdomain.Credentials{}, err
		}
		if r.fallback.KeyID == "" && r.fallback.WebhookSecret == "" {
			return paymentdomain.Credentials{}, paymentdomain.ErrMissingCredentials
		}
		return r.fallback, nil
	}

	return paymentdomain.Credentials{
		KeyID:         row.KeyID,
		KeySecret:     row.KeySecret,
		WebhookSecret: row.WebhookSecret,
	}, nil
}
