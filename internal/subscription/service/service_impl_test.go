package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/clock"
	subscriptiondomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/domain"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/repository"
	tenantdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/tenant/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type catalogStub struct {
	plan catalogdomain.BillingPlan
}

func (s *catalogStub) Create(context.Context, catalogdomain.CreatePlanRequest) (catalogdomain.BillingPlan, error) {
	return catalogdomain.BillingPlan{}, nil
}

func (s *catalogStub) Deactivate(context.Context, string) error { return nil }

func (s *catalogStub) ResolvePlan(context.Context, string) (catalogdomain.BillingPlan, error) {
	return s.plan, nil
}

func (s *catalogStub) List(context.Context, catalogdomain.ListPlanRequest) ([]catalogdomain.BillingPlan, error) {
	return nil, nil
}

type tenantStub struct{}

func (tenantStub) Lookup(ctx context.Context, tenantID snowflake.ID) (tenantdomain.Tenant, error) {
	return tenantdomain.Tenant{ID: tenantID, Name: "kaburlu", Status: "ACTIVE"}, nil
}

func (tenantStub) ActiveResourceCount(context.Context, snowflake.ID, catalogdomain.ComponentKind) (int64, error) {
	return 0, nil
}

func setupSubscriptionService(t *testing.T, node *snowflake.Node, fake *clock.FakeClock) (subscriptiondomain.Service, *gorm.DB, snowflake.ID) {
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
	if err := db.AutoMigrate(&subscriptiondomain.TenantSubscription{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	planID := node.Generate()
	plan := catalogdomain.BillingPlan{
		ID:       planID,
		Name:     "district",
		Currency: "INR",
		Cycle:    catalogdomain.CycleMonthly,
		IsActive: true,
	}

	service := NewService(ServiceParam{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fake,
		Repo:       repository.Provide(),
		CatalogSvc: &catalogStub{plan: plan},
		TenantSvc:  tenantStub{},
	})
	return service, db, planID
}

func TestReplacePastStartIsActive(t *testing.T) {
	node := mustNode(t)
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	service, _, planID := setupSubscriptionService(t, node, fake)

	tenantID := node.Generate()
	sub, err := service.Replace(context.Background(), subscriptiondomain.ReplaceRequest{
		TenantID: tenantID.String(),
		PlanID:   planID.String(),
		Start:    now.AddDate(0, 0, -1),
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if sub.Status != subscriptiondomain.StatusActive {
		t.Fatalf("expected ACTIVE, got %s", sub.Status)
	}
	if !sub.CurrentPeriodEnd.Equal(sub.CurrentPeriodStart.AddDate(0, 1, 0)) {
		t.Fatalf("expected monthly period end, got %s", sub.CurrentPeriodEnd)
	}
}

func TestReplaceFutureStartIsClamped(t *testing.T) {
	node := mustNode(t)
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	service, _, planID := setupSubscriptionService(t, node, fake)

	tenantID := node.Generate()
	sub, err := service.Replace(context.Background(), subscriptiondomain.ReplaceRequest{
		TenantID: tenantID.String(),
		PlanID:   planID.String(),
		Start:    now.AddDate(0, 0, 3),
		Status:   subscriptiondomain.StatusActive,
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if sub.Status != subscriptiondomain.StatusScheduled {
		t.Fatalf("expected future start clamped to SCHEDULED, got %s", sub.Status)
	}

	// A SCHEDULED row is not the billing subscription yet.
	_, err = service.Current(context.Background(), tenantID)
	if !errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
		t.Fatalf("expected no current subscription, got %v", err)
	}
}

func TestReplaceKeepsHistoryRows(t *testing.T) {
	node := mustNode(t)
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	service, db, planID := setupSubscriptionService(t, node, fake)

	tenantID := node.Generate()
	first, err := service.Replace(context.Background(), subscriptiondomain.ReplaceRequest{
		TenantID: tenantID.String(),
		PlanID:   planID.String(),
		Start:    now.AddDate(0, -1, 0),
	})
	if err != nil {
		t.Fatalf("first replace: %v", err)
	}

	fake.Advance(time.Hour)
	second, err := service.Replace(context.Background(), subscriptiondomain.ReplaceRequest{
		TenantID: tenantID.String(),
		PlanID:   planID.String(),
		Start:    now,
	})
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}

	var count int64
	if err := db.Model(&subscriptiondomain.TenantSubscription{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 history rows, got %d", count)
	}

	current, err := service.Current(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.ID != second.ID {
		t.Fatalf("expected latest row %s to be current, got %s", second.ID, current.ID)
	}
	if current.ID == first.ID {
		t.Fatal("stale row returned as current")
	}
}

func TestActivateScheduledPromotesDueRowsOnce(t *testing.T) {
	node := mustNode(t)
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	service, _, planID := setupSubscriptionService(t, node, fake)
	ctx := context.Background()

	dueTenant := node.Generate()
	futureTenant := node.Generate()

	if _, err := service.Replace(ctx, subscriptiondomain.ReplaceRequest{
		TenantID: dueTenant.String(),
		PlanID:   planID.String(),
		Start:    now.AddDate(0, 0, 1),
	}); err != nil {
		t.Fatalf("replace due: %v", err)
	}
	if _, err := service.Replace(ctx, subscriptiondomain.ReplaceRequest{
		TenantID: futureTenant.String(),
		PlanID:   planID.String(),
		Start:    now.AddDate(0, 0, 30),
	}); err != nil {
		t.Fatalf("replace future: %v", err)
	}

	// Nothing is due yet.
	report, err := service.ActivateScheduled(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Due != 0 || report.Activated != 0 {
		t.Fatalf("expected empty sweep, got %+v", report)
	}

	fake.Advance(25 * time.Hour)
	report, err = service.ActivateScheduled(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Due != 1 || report.Activated != 1 || report.Failed != 0 {
		t.Fatalf("expected one activation, got %+v", report)
	}

	current, err := service.Current(ctx, dueTenant)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.Status != subscriptiondomain.StatusActive {
		t.Fatalf("expected ACTIVE, got %s", current.Status)
	}

	// A repeated sweep finds nothing left to do.
	report, err = service.ActivateScheduled(ctx)
	if err != nil {
		t.Fatalf("repeat sweep: %v", err)
	}
	if report.Due != 0 || report.Activated != 0 {
		t.Fatalf("expected idempotent sweep, got %+v", report)
	}
}

func TestReplaceCanceledIsNotClamped(t *testing.T) {
	node := mustNode(t)
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	service, _, planID := setupSubscriptionService(t, node, fake)

	sub, err := service.Replace(context.Background(), subscriptiondomain.ReplaceRequest{
		TenantID: node.Generate().String(),
		PlanID:   planID.String(),
		Start:    now.AddDate(0, 0, 3),
		Status:   subscriptiondomain.StatusCanceled,
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if sub.Status != subscriptiondomain.StatusCanceled {
		t.Fatalf("expected CANCELED preserved, got %s", sub.Status)
	}
	if sub.CanceledAt == nil {
		t.Fatal("expected canceled_at set")
	}
}

func TestReplaceRejectsMalformedIDs(t *testing.T) {
	node := mustNode(t)
	fake := clock.NewFakeClock(time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC))
	service, _, planID := setupSubscriptionService(t, node, fake)

	_, err := service.Replace(context.Background(), subscriptiondomain.ReplaceRequest{
		TenantID: "garbage",
		PlanID:   planID.String(),
		Start:    fake.Now(),
	})
	if !errors.Is(err, subscriptiondomain.ErrInvalidTenant) {
		t.Fatalf("expected ErrInvalidTenant, got %v", err)
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
