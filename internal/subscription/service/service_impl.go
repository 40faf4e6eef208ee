package service

import (
	"context"
	"strings"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/clock"
	subscriptiondomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/domain"
	tenantdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/tenant/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  subscriptiondomain.Repository

	CatalogSvc catalogdomain.Service
	TenantSvc  tenantdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	repo  subscriptiondomain.Repository

	catalogsvc catalogdomain.Service
	tenantsvc  tenantdomain.Service
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("subscription.service"),

		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,

		catalogsvc: p.CatalogSvc,
		tenantsvc:  p.TenantSvc,
	}
}

// Replace appends a new subscription history row for the tenant. The previous
// row is left untouched; Current resolves the latest billing row.
func (s *Service) Replace(ctx context.Context, req subscriptiondomain.ReplaceRequest) (subscriptiondomain.TenantSubscription, error) {
	tenantID, err := s.parseID(req.TenantID, subscriptiondomain.ErrInvalidTenant)
	if err != nil {
		return subscriptiondomain.TenantSubscription{}, err
	}
	if _, err := s.tenantsvc.Lookup(ctx, tenantID); err != nil {
		return subscriptiondomain.TenantSubscription{}, err
	}

	plan, err := s.catalogsvc.ResolvePlan(ctx, req.PlanID)
	if err != nil {
		return subscriptiondomain.TenantSubscription{}, err
	}

	if req.Start.IsZero() {
		return subscriptiondomain.TenantSubscription{}, subscriptiondomain.ErrInvalidStart
	}
	start := req.Start.UTC()

	end := plan.Cycle.PeriodEnd(start)
	if req.End != nil {
		end = req.End.UTC()
	}
	if !end.After(start) {
		return subscriptiondomain.TenantSubscription{}, subscriptiondomain.ErrInvalidPeriod
	}

	status := req.Status
	if status == "" {
		status = subscriptiondomain.StatusActive
	}
	if !status.Valid() {
		return subscriptiondomain.TenantSubscription{}, subscriptiondomain.ErrInvalidStatus
	}

	now := s.clock.Now()
	// Future starts are clamped to SCHEDULED regardless of the requested
	// status; the activation sweep promotes the row once the start passes.
	if start.After(now) && status != subscriptiondomain.StatusCanceled {
		status = subscriptiondomain.StatusScheduled
	}

	sub := subscriptiondomain.TenantSubscription{
		ID:                 s.genID.Generate(),
		TenantID:           tenantID,
		PlanID:             plan.ID,
		Status:             status,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		CancelAtPeriodEnd:  req.CancelAtPeriodEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if status == subscriptiondomain.StatusCanceled {
		canceledAt := now
		sub.CanceledAt = &canceledAt
	}

	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return subscriptiondomain.TenantSubscription{}, err
	}

	s.log.Info("subscription replaced",
		zap.String("tenant_id", tenantID.String()),
		zap.String("subscription_id", sub.ID.String()),
		zap.String("status", string(sub.Status)),
	)
	return sub, nil
}

// Current implements domain.Service.
func (s *Service) Current(ctx context.Context, tenantID snowflake.ID) (subscriptiondomain.TenantSubscription, error) {
	if tenantID == 0 {
		return subscriptiondomain.TenantSubscription{}, subscriptiondomain.ErrInvalidTenant
	}

	sub, err := s.repo.FindCurrent(ctx, s.db, tenantID)
	if err != nil {
		return subscriptiondomain.TenantSubscription{}, err
	}
	if sub == nil {
		return subscriptiondomain.TenantSubscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *sub, nil
}

// ActivateScheduled sweeps due SCHEDULED rows. Each row is attempted in its
// own transaction; failures are counted and logged, never propagated, so one
// bad row cannot starve the rest.
func (s *Service) ActivateScheduled(ctx context.Context) (subscriptiondomain.ActivationReport, error) {
	now := s.clock.Now()

	due, err := s.repo.FindDueScheduled(ctx, s.db, now)
	if err != nil {
		return subscriptiondomain.ActivationReport{}, err
	}

	report := subscriptiondomain.ActivationReport{Due: len(due)}
	for _, row := range due {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			activated, err := s.repo.ActivateRow(ctx, tx, row.ID, now)
			if err != nil {
				return err
			}
			if activated {
				report.Activated++
			} else {
				report.Skipped++
			}
			return nil
		})
		if err != nil {
			report.Failed++
			s.log.Warn("subscription activation failed",
				zap.String("subscription_id", row.ID.String()),
				zap.Error(err),
			)
		}
	}

	if report.Activated > 0 {
		s.log.Info("scheduled subscriptions activated",
			zap.Int("due", report.Due),
			zap.Int("activated", report.Activated),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
		)
	}
	return report, nil
}

func (s *Service) parseID(raw string, sentinel error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, sentinel
	}
	return id, nil
}
