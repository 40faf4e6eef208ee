package service

import (
	"context"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	usagedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/usage/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),

		genID: p.GenID,
	}
}

func (s *Service) Record(ctx context.Context, req usagedomain.RecordRequest) (usagedomain.UsageEvent, error) {
	return s.RecordTx(ctx, s.db, req)
}

func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, req usagedomain.RecordRequest) (usagedomain.UsageEvent, error) {
	if req.TenantID == 0 {
		return usagedomain.UsageEvent{}, usagedomain.ErrInvalidTenant
	}
	if !req.Component.Valid() {
		return usagedomain.UsageEvent{}, usagedomain.ErrInvalidComponent
	}
	if req.Quantity <= 0 {
		return usagedomain.UsageEvent{}, usagedomain.ErrInvalidQuantity
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	event := usagedomain.UsageEvent{
		ID:             s.genID.Generate(),
		TenantID:       req.TenantID,
		SubscriptionID: req.SubscriptionID,
		Component:      req.Component,
		Quantity:       req.Quantity,
		OccurredAt:     occurredAt.UTC(),
		Metadata:       datatypes.JSONMap(req.Metadata),
	}
	if err := tx.WithContext(ctx).Create(&event).Error; err != nil {
		return usagedomain.UsageEvent{}, err
	}
	return event, nil
}

// UsedInPeriod sums quantities over the half-open window [start, end).
func (s *Service) UsedInPeriod(ctx context.Context, tenantID snowflake.ID, component catalogdomain.ComponentKind, start, end time.Time) (int64, error) {
	if tenantID == 0 {
		return 0, usagedomain.ErrInvalidTenant
	}
	if !end.After(start) {
		return 0, usagedomain.ErrInvalidPeriod
	}

	var total int64
	err := s.db.WithContext(ctx).
		Model(&usagedomain.UsageEvent{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("tenant_id = ? AND component = ? AND occurred_at >= ? AND occurred_at < ?",
			tenantID, component, start.UTC(), end.UTC()).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
