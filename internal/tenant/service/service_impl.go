package service

import (
	"context"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	tenantdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/tenant/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p ServiceParam) tenantdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("tenant.service"),
	}
}

func (s *Service) Lookup(ctx context.Context, tenantID snowflake.ID) (tenantdomain.Tenant, error) {
	if tenantID == 0 {
		return tenantdomain.Tenant{}, tenantdomain.ErrInvalidTenant
	}

	var tenant tenantdomain.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return tenantdomain.Tenant{}, tenantdomain.ErrTenantNotFound
		}
		return tenantdomain.Tenant{}, err
	}
	return tenant, nil
}

func (s *Service) ActiveResourceCount(ctx context.Context, tenantID snowflake.ID, kind catalogdomain.ComponentKind) (int64, error) {
	if tenantID == 0 {
		return 0, tenantdomain.ErrInvalidTenant
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&tenantdomain.CapacityResource{}).
		Where("tenant_id = ? AND kind = ? AND status = ?", tenantID, kind, "ACTIVE").
		Count(&count).Error
	return count, err
}
