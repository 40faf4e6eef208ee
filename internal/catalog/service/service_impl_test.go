package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogService(t *testing.T, node *snowflake.Node) (catalogdomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if err := db.AutoMigrate(&catalogdomain.BillingPlan{}, &catalogdomain.PlanComponent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	service := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
	return service, db
}

func validPlanRequest() catalogdomain.CreatePlanRequest {
	return catalogdomain.CreatePlanRequest{
		Name:            "district-weekly",
		Currency:        "INR",
		Cycle:           catalogdomain.CycleMonthly,
		BaseAmountMinor: 99900,
		Components: []catalogdomain.CreateComponentRequest{
			{Kind: catalogdomain.ComponentNewsDomain, IncludedUnits: 1, UnitAmountMinor: 50000},
			{Kind: catalogdomain.ComponentDesignPage, IncludedUnits: 240, UnitAmountMinor: 500},
		},
	}
}

func TestCreatePlanPersistsComponents(t *testing.T) {
	node := mustNode(t)
	service, _ := setupCatalogService(t, node)

	plan, err := service.Create(context.Background(), validPlanRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resolved, err := service.ResolvePlan(context.Background(), plan.ID.String())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(resolved.Components))
	}
	if !resolved.IsActive {
		t.Fatal("expected new plan to be active")
	}
	comp, ok := resolved.Component(catalogdomain.ComponentDesignPage)
	if !ok {
		t.Fatal("expected DESIGN_PAGE component")
	}
	if comp.IncludedUnits != 240 || comp.UnitAmountMinor != 500 {
		t.Fatalf("unexpected component pricing: %+v", comp)
	}
}

func TestCreatePlanValidation(t *testing.T) {
	node := mustNode(t)
	service, _ := setupCatalogService(t, node)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*catalogdomain.CreatePlanRequest)
		want   error
	}{
		{
			name:   "blank name",
			mutate: func(r *catalogdomain.CreatePlanRequest) { r.Name = "  " },
			want:   catalogdomain.ErrInvalidPlanName,
		},
		{
			name:   "unsupported currency",
			mutate: func(r *catalogdomain.CreatePlanRequest) { r.Currency = "EUR" },
			want:   catalogdomain.ErrInvalidCurrency,
		},
		{
			name:   "unknown cycle",
			mutate: func(r *catalogdomain.CreatePlanRequest) { r.Cycle = "WEEKLY" },
			want:   catalogdomain.ErrInvalidCycle,
		},
		{
			name:   "negative base amount",
			mutate: func(r *catalogdomain.CreatePlanRequest) { r.BaseAmountMinor = -1 },
			want:   catalogdomain.ErrInvalidBaseAmount,
		},
		{
			name: "duplicate component kind",
			mutate: func(r *catalogdomain.CreatePlanRequest) {
				r.Components = append(r.Components, r.Components[0])
			},
			want: catalogdomain.ErrDuplicateComponent,
		},
		{
			name: "negative included units",
			mutate: func(r *catalogdomain.CreatePlanRequest) {
				r.Components[0].IncludedUnits = -1
			},
			want: catalogdomain.ErrInvalidIncludedUnits,
		},
		{
			name: "negative unit amount",
			mutate: func(r *catalogdomain.CreatePlanRequest) {
				r.Components[1].UnitAmountMinor = -500
			},
			want: catalogdomain.ErrInvalidUnitAmount,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validPlanRequest()
			tc.mutate(&req)
			_, err := service.Create(ctx, req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreatePlanNormalizesCurrency(t *testing.T) {
	node := mustNode(t)
	service, _ := setupCatalogService(t, node)

	req := validPlanRequest()
	req.Currency = " inr "
	plan, err := service.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if plan.Currency != "INR" {
		t.Fatalf("expected INR, got %s", plan.Currency)
	}
}

func TestDeactivateKeepsRowResolvable(t *testing.T) {
	node := mustNode(t)
	service, _ := setupCatalogService(t, node)
	ctx := context.Background()

	plan, err := service.Create(ctx, validPlanRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := service.Deactivate(ctx, plan.ID.String()); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// Existing subscriptions must keep resolving the retired plan.
	resolved, err := service.ResolvePlan(ctx, plan.ID.String())
	if err != nil {
		t.Fatalf("resolve after deactivate: %v", err)
	}
	if resolved.IsActive {
		t.Fatal("expected plan inactive")
	}

	active, err := service.List(ctx, catalogdomain.ListPlanRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected retired plan hidden from sale, got %d plans", len(active))
	}

	all, err := service.List(ctx, catalogdomain.ListPlanRequest{IncludeInactive: true})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 plan including inactive, got %d", len(all))
	}
}

func TestDeactivateUnknownPlan(t *testing.T) {
	node := mustNode(t)
	service, _ := setupCatalogService(t, node)

	err := service.Deactivate(context.Background(), node.Generate().String())
	if !errors.Is(err, catalogdomain.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestResolvePlanRejectsMalformedID(t *testing.T) {
	node := mustNode(t)
	service, _ := setupCatalogService(t, node)

	_, err := service.ResolvePlan(context.Background(), "not-a-snowflake")
	if !errors.Is(err, catalogdomain.ErrInvalidPlanID) {
		t.Fatalf("expected ErrInvalidPlanID, got %v", err)
	}
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}
