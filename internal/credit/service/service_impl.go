package service

import (
	"context"
	"errors"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	creditdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/credit/domain"
	subscriptiondomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/domain"
	usagedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/usage/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node

	SubSvc     subscriptiondomain.Service
	CatalogSvc catalogdomain.Service
	UsageSvc   usagedomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node

	subsvc     subscriptiondomain.Service
	catalogsvc catalogdomain.Service
	usagesvc   usagedomain.Service
}

func NewService(p ServiceParam) creditdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("credit.service"),

		genID: p.GenID,

		subsvc:     p.SubSvc,
		catalogsvc: p.CatalogSvc,
		usagesvc:   p.UsageSvc,
	}
}

// CheckAndConsume admits a metered request only when the free allotment plus
// prepaid credits cover it in full. Admission beyond the allotment records the
// usage event and debits the covering credits in one transaction; oversized
// requests are rejected wholesale with nothing mutated.
func (s *Service) CheckAndConsume(ctx context.Context, req creditdomain.ConsumeRequest) (creditdomain.ConsumeResult, error) {
	if req.TenantID == 0 {
		return creditdomain.ConsumeResult{}, creditdomain.ErrInvalidTenant
	}
	if !req.Component.Valid() {
		return creditdomain.ConsumeResult{}, creditdomain.ErrInvalidComponent
	}
	if req.Quantity <= 0 {
		return creditdomain.ConsumeResult{}, creditdomain.ErrInvalidQuantity
	}

	sub, err := s.subsvc.Current(ctx, req.TenantID)
	if err != nil {
		return creditdomain.ConsumeResult{}, err
	}
	comp, err := s.planComponent(ctx, sub, req.Component)
	if err != nil {
		return creditdomain.ConsumeResult{}, err
	}

	used, err := s.usagesvc.UsedInPeriod(ctx, req.TenantID, req.Component, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		return creditdomain.ConsumeResult{}, err
	}

	includedRemaining := comp.IncludedUnits - used
	if includedRemaining < 0 {
		includedRemaining = 0
	}
	requiredFromCredits := req.Quantity - includedRemaining
	if requiredFromCredits < 0 {
		requiredFromCredits = 0
	}

	record := usagedomain.RecordRequest{
		TenantID:       req.TenantID,
		SubscriptionID: sub.ID,
		Component:      req.Component,
		Quantity:       req.Quantity,
		OccurredAt:     req.OccurredAt,
		Metadata:       req.Metadata,
	}

	if requiredFromCredits == 0 {
		event, err := s.usagesvc.Record(ctx, record)
		if err != nil {
			return creditdomain.ConsumeResult{}, err
		}
		balance, err := s.balance(ctx, s.db, req.TenantID, req.Component)
		if err != nil {
			return creditdomain.ConsumeResult{}, err
		}
		return creditdomain.ConsumeResult{
			Event:               event,
			IncludedRemaining:   includedRemaining - req.Quantity,
			RequiredFromCredits: 0,
			Balance:             balance,
		}, nil
	}

	var result creditdomain.ConsumeResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The guard in the WHERE clause makes the read-then-decrement a single
		// linearizable step: of two concurrent consumers whose combined need
		// exceeds the balance, at most one row update succeeds.
		res := tx.WithContext(ctx).Exec(
			`UPDATE credit_balances
			 SET balance = balance - ?, updated_at = ?
			 WHERE tenant_id = ? AND component = ? AND balance >= ?`,
			requiredFromCredits,
			time.Now().UTC(),
			req.TenantID,
			req.Component,
			requiredFromCredits,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			balance, err := s.balance(ctx, tx, req.TenantID, req.Component)
			if err != nil {
				return err
			}
			shortage := requiredFromCredits - balance
			return &creditdomain.InsufficientCreditsError{
				IncludedRemaining:   includedRemaining,
				RequestedQuantity:   req.Quantity,
				Balance:             balance,
				ShortagePages:       shortage,
				ShortageAmountMinor: shortage * comp.UnitAmountMinor,
			}
		}

		event, err := s.usagesvc.RecordTx(ctx, tx, record)
		if err != nil {
			return err
		}
		balance, err := s.balance(ctx, tx, req.TenantID, req.Component)
		if err != nil {
			return err
		}
		result = creditdomain.ConsumeResult{
			Event:               event,
			IncludedRemaining:   0,
			RequiredFromCredits: requiredFromCredits,
			Balance:             balance,
		}
		return nil
	})
	if err != nil {
		return creditdomain.ConsumeResult{}, err
	}

	s.log.Info("credits consumed",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("component", string(req.Component)),
		zap.Int64("quantity", req.Quantity),
		zap.Int64("from_credits", requiredFromCredits),
	)
	return result, nil
}

func (s *Service) TopUp(ctx context.Context, tenantID snowflake.ID, component catalogdomain.ComponentKind, units int64) error {
	return s.TopUpTx(ctx, s.db, tenantID, component, units)
}

// TopUpTx increments the balance, creating the row lazily on first credit.
func (s *Service) TopUpTx(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, component catalogdomain.ComponentKind, units int64) error {
	if tenantID == 0 {
		return creditdomain.ErrInvalidTenant
	}
	if !component.Valid() {
		return creditdomain.ErrInvalidComponent
	}
	if units <= 0 {
		return creditdomain.ErrInvalidUnits
	}

	now := time.Now().UTC()
	row := creditdomain.CreditBalance{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		Component: component,
		Balance:   units,
		UpdatedAt: now,
	}
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "component"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("credit_balances.balance + ?", units),
			"updated_at": now,
		}),
	}).Create(&row).Error
	if err != nil {
		return err
	}

	s.log.Info("credits topped up",
		zap.String("tenant_id", tenantID.String()),
		zap.String("component", string(component)),
		zap.Int64("units", units),
	)
	return nil
}

// Balances reports allotment and prepaid state for every prepaid component of
// the tenant's current plan.
func (s *Service) Balances(ctx context.Context, tenantID snowflake.ID) ([]creditdomain.BalanceSnapshot, error) {
	if tenantID == 0 {
		return nil, creditdomain.ErrInvalidTenant
	}

	sub, err := s.subsvc.Current(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	plan, err := s.catalogsvc.ResolvePlan(ctx, sub.PlanID.String())
	if err != nil {
		return nil, err
	}

	snapshots := make([]creditdomain.BalanceSnapshot, 0, len(plan.Components))
	for _, comp := range plan.Components {
		if comp.Kind.Mode() != catalogdomain.BillingModePrepaid {
			continue
		}
		used, err := s.usagesvc.UsedInPeriod(ctx, tenantID, comp.Kind, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
		if err != nil {
			return nil, err
		}
		balance, err := s.balance(ctx, s.db, tenantID, comp.Kind)
		if err != nil {
			return nil, err
		}
		remaining := comp.IncludedUnits - used
		if remaining < 0 {
			remaining = 0
		}
		snapshots = append(snapshots, creditdomain.BalanceSnapshot{
			Component:         comp.Kind,
			IncludedUnits:     comp.IncludedUnits,
			UsedInPeriod:      used,
			IncludedRemaining: remaining,
			Balance:           balance,
		})
	}
	return snapshots, nil
}

func (s *Service) planComponent(ctx context.Context, sub subscriptiondomain.TenantSubscription, kind catalogdomain.ComponentKind) (catalogdomain.PlanComponent, error) {
	plan, err := s.catalogsvc.ResolvePlan(ctx, sub.PlanID.String())
	if err != nil {
		return catalogdomain.PlanComponent{}, err
	}
	comp, ok := plan.Component(kind)
	if !ok {
		return catalogdomain.PlanComponent{}, creditdomain.ErrComponentNotOnPlan
	}
	return comp, nil
}

func (s *Service) balance(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, component catalogdomain.ComponentKind) (int64, error) {
	var row creditdomain.CreditBalance
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND component = ?", tenantID, component).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Balance, nil
}
