package domain

import (
	"context"
	"errors"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
)

type PreviewLine struct {
	Component       *catalogdomain.ComponentKind `json:"component,omitempty"`
	Quantity        int64                        `json:"quantity"`
	UnitAmountMinor int64                        `json:"unit_amount_minor"`
	AmountMinor     int64                        `json:"amount_minor"`
}

type Preview struct {
	TenantID         snowflake.ID  `json:"tenant_id"`
	PlanID           snowflake.ID  `json:"plan_id"`
	Currency         string        `json:"currency"`
	PeriodStart      time.Time     `json:"period_start"`
	PeriodEnd        time.Time     `json:"period_end"`
	Lines            []PreviewLine `json:"lines"`
	TotalAmountMinor int64         `json:"total_amount_minor"`
}

type GenerateRequest struct {
	TenantID    snowflake.ID
	PeriodStart time.Time
	PeriodEnd   time.Time
}

type MarkPaidRequest struct {
	InvoiceID snowflake.ID
	Method    string
	Reference string
	PaidAt    time.Time
}

type CreateTopUpOrderRequest struct {
	TenantID  snowflake.ID
	Component catalogdomain.ComponentKind
	Units     int64
}

// TopUpOrder hands the caller everything needed to complete payment at the
// gateway.
type TopUpOrder struct {
	Invoice        Invoice `json:"invoice"`
	GatewayOrderID string  `json:"gateway_order_id"`
	AmountMinor    int64   `json:"amount_minor"`
	Currency       string  `json:"currency"`
}

type ListRequest struct {
	TenantID snowflake.ID
	Status   *Status
	Kind     *Kind
}

type Service interface {
	ComputePreview(ctx context.Context, tenantID snowflake.ID, periodStart, periodEnd *time.Time) (Preview, error)
	Generate(context.Context, GenerateRequest) (Invoice, error)
	MarkPaid(context.Context, MarkPaidRequest) (Invoice, error)
	Void(ctx context.Context, invoiceID snowflake.ID, reason string) (Invoice, error)
	CreateTopUpOrder(context.Context, CreateTopUpOrderRequest) (TopUpOrder, error)
	List(context.Context, ListRequest) ([]Invoice, error)
	Get(ctx context.Context, invoiceID snowflake.ID) (Invoice, error)
}

var (
	ErrInvalidTenant       = errors.New("invalid_tenant")
	ErrInvalidPeriod       = errors.New("invalid_period")
	ErrInvalidInvoice      = errors.New("invalid_invoice")
	ErrInvalidUnits        = errors.New("invalid_units")
	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrAlreadyPaid         = errors.New("invoice_already_paid")
	ErrAlreadyVoid         = errors.New("invoice_already_void")
	ErrComponentNotOnPlan  = errors.New("component_not_on_plan")
	ErrComponentNotPrepaid = errors.New("component_not_prepaid")
)
