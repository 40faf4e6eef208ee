package service

import (
	"context"
	"strings"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/atshybrid/kaburlu-media-backend-sub003/pkg/db/option"
	"github.com/atshybrid/kaburlu-media-backend-sub003/pkg/repository"
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
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	planrepo repository.Repository[catalogdomain.BillingPlan]
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("catalog.service"),

		genID:    p.GenID,
		planrepo: repository.ProvideStore[catalogdomain.BillingPlan](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req catalogdomain.CreatePlanRequest) (catalogdomain.BillingPlan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return catalogdomain.BillingPlan{}, catalogdomain.ErrInvalidPlanName
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !catalogdomain.SupportedCurrencies[currency] {
		return catalogdomain.BillingPlan{}, catalogdomain.ErrInvalidCurrency
	}
	if !req.Cycle.Valid() {
		return catalogdomain.BillingPlan{}, catalogdomain.ErrInvalidCycle
	}
	if req.BaseAmountMinor < 0 {
		return catalogdomain.BillingPlan{}, catalogdomain.ErrInvalidBaseAmount
	}

	seen := make(map[catalogdomain.ComponentKind]bool, len(req.Components))
	for _, c := range req.Components {
		if !c.Kind.Valid() {
			return catalogdomain.BillingPlan{}, catalogdomain.ErrInvalidComponentKind
		}
		if seen[c.Kind] {
			return catalogdomain.BillingPlan{}, catalogdomain.ErrDuplicateComponent
		}
		seen[c.Kind] = true
		if c.IncludedUnits < 0 {
			return catalogdomain.BillingPlan{}, catalogdomain.ErrInvalidIncludedUnits
		}
		if c.UnitAmountMinor < 0 {
			return catalogdomain.BillingPlan{}, catalogdomain.ErrInvalidUnitAmount
		}
	}

	plan := catalogdomain.BillingPlan{
		ID:              s.genID.Generate(),
		Name:            name,
		Currency:        currency,
		Cycle:           req.Cycle,
		BaseAmountMinor: req.BaseAmountMinor,
		IsActive:        true,
	}
	for _, c := range req.Components {
		plan.Components = append(plan.Components, catalogdomain.PlanComponent{
			ID:              s.genID.Generate(),
			PlanID:          plan.ID,
			Kind:            c.Kind,
			IncludedUnits:   c.IncludedUnits,
			UnitAmountMinor: c.UnitAmountMinor,
		})
	}

	if err := s.planrepo.Create(ctx, &plan); err != nil {
		return catalogdomain.BillingPlan{}, err
	}

	s.log.Info("plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("cycle", string(plan.Cycle)),
	)
	return plan, nil
}

// Deactivate retires a plan. Plans are never deleted so historical invoices
// stay traceable.
func (s *Service) Deactivate(ctx context.Context, planID string) error {
	id, err := s.parseID(planID)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(&catalogdomain.BillingPlan{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalogdomain.ErrPlanNotFound
	}
	return nil
}

func (s *Service) ResolvePlan(ctx context.Context, planID string) (catalogdomain.BillingPlan, error) {
	id, err := s.parseID(planID)
	if err != nil {
		return catalogdomain.BillingPlan{}, err
	}

	plan, err := s.planrepo.FindOne(ctx, &catalogdomain.BillingPlan{ID: id}, option.WithPreload("Components"))
	if err != nil {
		return catalogdomain.BillingPlan{}, err
	}
	if plan == nil {
		return catalogdomain.BillingPlan{}, catalogdomain.ErrPlanNotFound
	}
	return *plan, nil
}

func (s *Service) List(ctx context.Context, req catalogdomain.ListPlanRequest) ([]catalogdomain.BillingPlan, error) {
	filter := &catalogdomain.BillingPlan{}
	if !req.IncludeInactive {
		filter.IsActive = true
	}

	rows, err := s.planrepo.Find(ctx, filter,
		option.WithPreload("Components"),
		option.WithSortBy("created_at", "desc"),
	)
	if err != nil {
		return nil, err
	}

	plans := make([]catalogdomain.BillingPlan, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, *row)
	}
	return plans, nil
}

func (s *Service) parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, catalogdomain.ErrInvalidPlanID
	}
	return id, nil
}
