package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/config"
	creditdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/credit/domain"
	invoicedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/invoice/domain"
	paymentdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

type creditRecorder struct {
	credits map[catalogdomain.ComponentKind]int64
}

func newCreditRecorder() *creditRecorder {
	return &creditRecorder{credits: make(map[catalogdomain.ComponentKind]int64)}
}

func (c *creditRecorder) CheckAndConsume(context.Context, creditdomain.ConsumeRequest) (creditdomain.ConsumeResult, error) {
	return creditdomain.ConsumeResult{}, nil
}

func (c *creditRecorder) TopUp(ctx context.Context, tenantID snowflake.ID, component catalogdomain.ComponentKind, units int64) error {
	return c.TopUpTx(ctx, nil, tenantID, component, units)
}

func (c *creditRecorder) TopUpTx(_ context.Context, _ *gorm.DB, _ snowflake.ID, component catalogdomain.ComponentKind, units int64) error {
	c.credits[component] += units
	return nil
}

func (c *creditRecorder) Balances(context.Context, snowflake.ID) ([]creditdomain.BalanceSnapshot, error) {
	return nil, nil
}

func setupPaymentService(t *testing.T, node *snowflake.Node) (paymentdomain.Service, *gorm.DB, *creditRecorder) {
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
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error
	if err := db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLineItem{},
		&paymentdomain.GatewayCredential{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	credits := newCreditRecorder()
	resolver := NewResolver(ResolverParam{
		DB: db,
		Cfg: config.Config{
			Gateway: config.GatewayConfig{
				KeyID:         "rzp_test",
				KeySecret:     "secret",
				WebhookSecret: testWebhookSecret,
			},
		},
	})
	service := NewService(ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		Credentials: resolver,
		CreditSvc:   credits,
	})
	return service, db, credits
}

func seedTopUpInvoice(t *testing.T, db *gorm.DB, node *snowflake.Node, orderID string, units int64) invoicedomain.Invoice {
	t.Helper()

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	kind := catalogdomain.ComponentDesignPage
	inv := invoicedomain.Invoice{
		ID:               node.Generate(),
		TenantID:         node.Generate(),
		Kind:             invoicedomain.KindTopUp,
		Status:           invoicedomain.StatusOpen,
		Currency:         "INR",
		PeriodStart:      now,
		PeriodEnd:        now,
		TotalAmountMinor: units * 500,
		GatewayOrderID:   &orderID,
	}
	inv.LineItems = []invoicedomain.InvoiceLineItem{{
		ID:              node.Generate(),
		InvoiceID:       inv.ID,
		Component:       &kind,
		Quantity:        units,
		UnitAmountMinor: 500,
		AmountMinor:     units * 500,
	}}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return inv
}

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedEvent(orderID, paymentID, secret string) paymentdomain.CapturedEvent {
	payload := []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"%s","order_id":"%s","status":"captured"}}}}`,
		paymentID, orderID,
	))
	return paymentdomain.CapturedEvent{
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		RawPayload:       payload,
		Signature:        sign(payload, secret),
	}
}

func TestHandleCapturedSettlesTopUp(t *testing.T) {
	node := mustNode(t)
	service, db, credits := setupPaymentService(t, node)
	inv := seedTopUpInvoice(t, db, node, "order_abc", 25)

	result, err := service.HandleCaptured(context.Background(), capturedEvent("order_abc", "pay_001", testWebhookSecret))
	if err != nil {
		t.Fatalf("handle captured: %v", err)
	}
	if !result.Applied || result.InvoiceID != inv.ID {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := credits.credits[catalogdomain.ComponentDesignPage]; got != 25 {
		t.Fatalf("expected 25 units credited, got %d", got)
	}

	var settled invoicedomain.Invoice
	if err := db.First(&settled, "id = ?", inv.ID).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	if settled.Status != invoicedomain.StatusPaid {
		t.Fatalf("expected PAID, got %s", settled.Status)
	}
	if settled.GatewayPaymentID == nil || *settled.GatewayPaymentID != "pay_001" {
		t.Fatalf("expected payment id recorded, got %v", settled.GatewayPaymentID)
	}
}

func TestHandleCapturedReplayIsAcknowledgedWithoutRecredit(t *testing.T) {
	node := mustNode(t)
	service, db, credits := setupPaymentService(t, node)
	seedTopUpInvoice(t, db, node, "order_replay", 10)
	ctx := context.Background()

	event := capturedEvent("order_replay", "pay_002", testWebhookSecret)
	first, err := service.HandleCaptured(ctx, event)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if !first.Applied {
		t.Fatal("expected first delivery applied")
	}

	second, err := service.HandleCaptured(ctx, event)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.Applied {
		t.Fatal("expected replay acknowledged without applying")
	}
	if got := credits.credits[catalogdomain.ComponentDesignPage]; got != 10 {
		t.Fatalf("expected credits unchanged at 10, got %d", got)
	}
}

func TestHandleCapturedRejectsBadSignature(t *testing.T) {
	node := mustNode(t)
	service, db, credits := setupPaymentService(t, node)
	seedTopUpInvoice(t, db, node, "order_sig", 10)

	event := capturedEvent("order_sig", "pay_003", "wrong_secret")
	_, err := service.HandleCaptured(context.Background(), event)
	if !errors.Is(err, paymentdomain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if got := credits.credits[catalogdomain.ComponentDesignPage]; got != 0 {
		t.Fatalf("expected no credits, got %d", got)
	}

	var inv invoicedomain.Invoice
	if err := db.First(&inv, "gateway_order_id = ?", "order_sig").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if inv.Status != invoicedomain.StatusOpen {
		t.Fatalf("expected invoice still OPEN, got %s", inv.Status)
	}
}

func TestHandleCapturedUnknownOrder(t *testing.T) {
	node := mustNode(t)
	service, _, _ := setupPaymentService(t, node)

	_, err := service.HandleCaptured(context.Background(), capturedEvent("order_missing", "pay_004", testWebhookSecret))
	if !errors.Is(err, paymentdomain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestHandleCapturedVoidInvoice(t *testing.T) {
	node := mustNode(t)
	service, db, _ := setupPaymentService(t, node)
	inv := seedTopUpInvoice(t, db, node, "order_void", 10)

	if err := db.Model(&invoicedomain.Invoice{}).Where("id = ?", inv.ID).Update("status", invoicedomain.StatusVoid).Error; err != nil {
		t.Fatalf("void: %v", err)
	}

	_, err := service.HandleCaptured(context.Background(), capturedEvent("order_void", "pay_005", testWebhookSecret))
	if !errors.Is(err, paymentdomain.ErrInvoiceVoid) {
		t.Fatalf("expected ErrInvoiceVoid, got %v", err)
	}
}

func TestResolverPrefersTenantCredentials(t *testing.T) {
	node := mustNode(t)
	_, db, _ := setupPaymentService(t, node)

	resolver := NewResolver(ResolverParam{
		DB: db,
		Cfg: config.Config{
			Gateway: config.GatewayConfig{KeyID: "global", KeySecret: "gs", WebhookSecret: "gw"},
		},
	})

	tenantID := node.Generate()
	row := paymentdomain.GatewayCredential{
		ID:            node.Generate(),
		TenantID:      tenantID,
		KeyID:         "tenant_key",
		KeySecret:     "tenant_secret",
		WebhookSecret: "tenant_webhook",
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed credential: %v", err)
	}

	creds, err := resolver.Resolve(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if creds.KeyID != "tenant_key" || creds.WebhookSecret != "tenant_webhook" {
		t.Fatalf("expected tenant credentials, got %+v", creds)
	}

	fallback, err := resolver.Resolve(context.Background(), node.Generate())
	if err != nil {
		t.Fatalf("resolve fallback: %v", err)
	}
	if fallback.KeyID != "global" {
		t.Fatalf("expected global fallback, got %+v", fallback)
	}
}

func TestResolverWithoutAnyCredentials(t *testing.T) {
	node := mustNode(t)
	_, db, _ := setupPaymentService(t, node)

	resolver := NewResolver(ResolverParam{DB: db, Cfg: config.Config{}})
	_, err := resolver.Resolve(context.Background(), node.Generate())
	if !errors.Is(err, paymentdomain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
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
