package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	creditdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/credit/domain"
	invoicedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/invoice/domain"
	paymentdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/domain"
	subscriptiondomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/domain"
	tenantdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/tenant/domain"
	usagedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/usage/domain"
	"github.com/atshybrid/kaburlu-media-backend-sub003/pkg/db"
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

	SubSvc      subscriptiondomain.Service
	CatalogSvc  catalogdomain.Service
	TenantSvc   tenantdomain.Service
	UsageSvc    usagedomain.Service
	CreditSvc   creditdomain.Service
	Gateway     paymentdomain.Gateway
	Credentials paymentdomain.CredentialResolver
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node

	subsvc      subscriptiondomain.Service
	catalogsvc  catalogdomain.Service
	tenantsvc   tenantdomain.Service
	usagesvc    usagedomain.Service
	creditsvc   creditdomain.Service
	gateway     paymentdomain.Gateway
	credentials paymentdomain.CredentialResolver
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("invoice.service"),

		genID: p.GenID,

		subsvc:      p.SubSvc,
		catalogsvc:  p.CatalogSvc,
		tenantsvc:   p.TenantSvc,
		usagesvc:    p.UsageSvc,
		creditsvc:   p.CreditSvc,
		gateway:     p.Gateway,
		credentials: p.Credentials,
	}
}

// ComputePreview composes the subscription invoice for the period without
// persisting anything. Capacity components bill point-in-time overage;
// prepaid components never appear here because they are settled exclusively
// through top-up invoices.
func (s *Service) ComputePreview(ctx context.Context, tenantID snowflake.ID, periodStart, periodEnd *time.Time) (invoicedomain.Preview, error) {
	if tenantID == 0 {
		return invoicedomain.Preview{}, invoicedomain.ErrInvalidTenant
	}

	sub, err := s.subsvc.Current(ctx, tenantID)
	if err != nil {
		return invoicedomain.Preview{}, err
	}
	plan, err := s.catalogsvc.ResolvePlan(ctx, sub.PlanID.String())
	if err != nil {
		return invoicedomain.Preview{}, err
	}

	start := sub.CurrentPeriodStart
	end := sub.CurrentPeriodEnd
	if periodStart != nil {
		start = periodStart.UTC()
	}
	if periodEnd != nil {
		end = periodEnd.UTC()
	}
	if !end.After(start) {
		return invoicedomain.Preview{}, invoicedomain.ErrInvalidPeriod
	}

	preview := invoicedomain.Preview{
		TenantID:    tenantID,
		PlanID:      plan.ID,
		Currency:    plan.Currency,
		PeriodStart: start,
		PeriodEnd:   end,
	}

	if plan.BaseAmountMinor > 0 {
		preview.Lines = append(preview.Lines, invoicedomain.PreviewLine{
			Quantity:        1,
			UnitAmountMinor: plan.BaseAmountMinor,
			AmountMinor:     plan.BaseAmountMinor,
		})
	}

	for _, comp := range plan.Components {
		switch comp.Kind.Mode() {
		case catalogdomain.BillingModeCapacity:
			count, err := s.tenantsvc.ActiveResourceCount(ctx, tenantID, comp.Kind)
			if err != nil {
				return invoicedomain.Preview{}, err
			}
			overage := count - comp.IncludedUnits
			if overage <= 0 {
				continue
			}
			kind := comp.Kind
			preview.Lines = append(preview.Lines, invoicedomain.PreviewLine{
				Component:       &kind,
				Quantity:        overage,
				UnitAmountMinor: comp.UnitAmountMinor,
				AmountMinor:     overage * comp.UnitAmountMinor,
			})
		case catalogdomain.BillingModePrepaid:
			// Settled through top-up invoices; never billed twice.
		}
	}

	for _, line := range preview.Lines {
		preview.TotalAmountMinor += line.AmountMinor
	}
	return preview, nil
}

// Generate is an idempotent find-or-create: the partial unique index on
// (tenant, period) among non-VOID SUBSCRIPTION invoices resolves concurrent
// duplicate calls, and the loser re-fetches the winner's row.
func (s *Service) Generate(ctx context.Context, req invoicedomain.GenerateRequest) (invoicedomain.Invoice, error) {
	if req.TenantID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidTenant
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidPeriod
	}
	start := req.PeriodStart.UTC()
	end := req.PeriodEnd.UTC()

	existing, err := s.findPeriodInvoice(ctx, req.TenantID, start, end)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	preview, err := s.ComputePreview(ctx, req.TenantID, &start, &end)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	inv := invoicedomain.Invoice{
		ID:               s.genID.Generate(),
		TenantID:         req.TenantID,
		Kind:             invoicedomain.KindSubscription,
		Status:           invoicedomain.StatusOpen,
		Currency:         preview.Currency,
		PeriodStart:      start,
		PeriodEnd:        end,
		TotalAmountMinor: preview.TotalAmountMinor,
	}
	for _, line := range preview.Lines {
		inv.LineItems = append(inv.LineItems, invoicedomain.InvoiceLineItem{
			ID:              s.genID.Generate(),
			InvoiceID:       inv.ID,
			Component:       line.Component,
			Quantity:        line.Quantity,
			UnitAmountMinor: line.UnitAmountMinor,
			AmountMinor:     line.AmountMinor,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.WithContext(ctx).Create(&inv).Error
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			winner, findErr := s.findPeriodInvoice(ctx, req.TenantID, start, end)
			if findErr != nil {
				return invoicedomain.Invoice{}, findErr
			}
			if winner != nil {
				return *winner, nil
			}
		}
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice generated",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.Int64("total_minor", inv.TotalAmountMinor),
	)
	return inv, nil
}

// MarkPaid settles an invoice manually. TOPUP invoices credit their units
// here with the same exactly-once guarantee as the webhook path: the credit
// rides on the single OPEN->PAID transition.
func (s *Service) MarkPaid(ctx context.Context, req invoicedomain.MarkPaidRequest) (invoicedomain.Invoice, error) {
	inv, err := s.Get(ctx, req.InvoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	paidAt = paidAt.UTC()
	reference := strings.TrimSpace(req.Reference)
	method := strings.TrimSpace(req.Method)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.WithContext(ctx).Exec(
			`UPDATE invoices
			 SET status = ?, external_ref = ?, payment_method = ?, paid_at = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			invoicedomain.StatusPaid,
			reference,
			method,
			paidAt,
			time.Now().UTC(),
			inv.ID,
			invoicedomain.StatusOpen,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			switch inv.Status {
			case invoicedomain.StatusPaid:
				return invoicedomain.ErrAlreadyPaid
			case invoicedomain.StatusVoid:
				return invoicedomain.ErrAlreadyVoid
			}
			return invoicedomain.ErrAlreadyPaid
		}

		if inv.Kind == invoicedomain.KindTopUp {
			for _, line := range inv.LineItems {
				if line.Component == nil {
					continue
				}
				if err := s.creditsvc.TopUpTx(ctx, tx, inv.TenantID, *line.Component, line.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	return s.Get(ctx, req.InvoiceID)
}

func (s *Service) Void(ctx context.Context, invoiceID snowflake.ID, reason string) (invoicedomain.Invoice, error) {
	inv, err := s.Get(ctx, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	result := s.db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, void_reason = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		invoicedomain.StatusVoid,
		strings.TrimSpace(reason),
		time.Now().UTC(),
		invoiceID,
		invoicedomain.StatusOpen,
	)
	if result.Error != nil {
		return invoicedomain.Invoice{}, result.Error
	}
	if result.RowsAffected == 0 {
		if inv.Status == invoicedomain.StatusPaid {
			return invoicedomain.Invoice{}, invoicedomain.ErrAlreadyPaid
		}
		return invoicedomain.Invoice{}, invoicedomain.ErrAlreadyVoid
	}

	return s.Get(ctx, invoiceID)
}

// CreateTopUpOrder prices units off the current plan, persists an OPEN TOPUP
// invoice, then asks the gateway for an order. Invoice creation always
// precedes the gateway call: a gateway failure leaves the invoice OPEN with no
// order id, and a retry reuses that invoice instead of minting another.
func (s *Service) CreateTopUpOrder(ctx context.Context, req invoicedomain.CreateTopUpOrderRequest) (invoicedomain.TopUpOrder, error) {
	if req.TenantID == 0 {
		return invoicedomain.TopUpOrder{}, invoicedomain.ErrInvalidTenant
	}
	if req.Units <= 0 {
		return invoicedomain.TopUpOrder{}, invoicedomain.ErrInvalidUnits
	}

	sub, err := s.subsvc.Current(ctx, req.TenantID)
	if err != nil {
		return invoicedomain.TopUpOrder{}, err
	}
	plan, err := s.catalogsvc.ResolvePlan(ctx, sub.PlanID.String())
	if err != nil {
		return invoicedomain.TopUpOrder{}, err
	}
	comp, ok := plan.Component(req.Component)
	if !ok {
		return invoicedomain.TopUpOrder{}, invoicedomain.ErrComponentNotOnPlan
	}
	if comp.Kind.Mode() != catalogdomain.BillingModePrepaid {
		return invoicedomain.TopUpOrder{}, invoicedomain.ErrComponentNotPrepaid
	}

	amount := req.Units * comp.UnitAmountMinor

	inv, err := s.findOrCreateTopUpInvoice(ctx, req, plan.Currency, comp.UnitAmountMinor, amount)
	if err != nil {
		return invoicedomain.TopUpOrder{}, err
	}

	creds, err := s.credentials.Resolve(ctx, req.TenantID)
	if err != nil {
		return invoicedomain.TopUpOrder{}, err
	}
	order, err := s.gateway.CreateOrder(ctx, creds, paymentdomain.CreateOrderRequest{
		AmountMinor: amount,
		Currency:    plan.Currency,
		Receipt:     fmt.Sprintf("inv_%s", inv.ID.String()),
	})
	if err != nil {
		// Invoice stays OPEN without an order id; the call is retryable.
		return invoicedomain.TopUpOrder{}, err
	}

	err = s.db.WithContext(ctx).Exec(
		`UPDATE invoices SET gateway_order_id = ?, updated_at = ? WHERE id = ?`,
		order.ID,
		time.Now().UTC(),
		inv.ID,
	).Error
	if err != nil {
		return invoicedomain.TopUpOrder{}, err
	}
	inv.GatewayOrderID = &order.ID

	s.log.Info("top-up order created",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("gateway_order_id", order.ID),
		zap.Int64("units", req.Units),
	)
	return invoicedomain.TopUpOrder{
		Invoice:        inv,
		GatewayOrderID: order.ID,
		AmountMinor:    amount,
		Currency:       plan.Currency,
	}, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListRequest) ([]invoicedomain.Invoice, error) {
	if req.TenantID == 0 {
		return nil, invoicedomain.ErrInvalidTenant
	}

	stmt := s.db.WithContext(ctx).
		Preload("LineItems").
		Where("tenant_id = ?", req.TenantID).
		Order("created_at desc")
	if req.Status != nil {
		stmt = stmt.Where("status = ?", *req.Status)
	}
	if req.Kind != nil {
		stmt = stmt.Where("kind = ?", *req.Kind)
	}

	var invoices []invoicedomain.Invoice
	if err := stmt.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *Service) Get(ctx context.Context, invoiceID snowflake.ID) (invoicedomain.Invoice, error) {
	if invoiceID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoice
	}

	var inv invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Preload("LineItems").
		First(&inv, "id = ?", invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
		}
		return invoicedomain.Invoice{}, err
	}
	return inv, nil
}

func (s *Service) findPeriodInvoice(ctx context.Context, tenantID snowflake.ID, start, end time.Time) (*invoicedomain.Invoice, error) {
	var inv invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Preload("LineItems").
		Where("tenant_id = ? AND kind = ? AND period_start = ? AND period_end = ? AND status <> ?",
			tenantID, invoicedomain.KindSubscription, start, end, invoicedomain.StatusVoid).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

// findOrCreateTopUpInvoice reuses an OPEN top-up invoice that never reached
// the gateway before creating a fresh one, so retries after a gateway outage
// do not pile up invoices.
func (s *Service) findOrCreateTopUpInvoice(ctx context.Context, req invoicedomain.CreateTopUpOrderRequest, currency string, unitAmount, total int64) (invoicedomain.Invoice, error) {
	var existing invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Preload("LineItems").
		Joins("JOIN invoice_line_items ON invoice_line_items.invoice_id = invoices.id").
		Where(`invoices.tenant_id = ? AND invoices.kind = ? AND invoices.status = ?
			AND invoices.gateway_order_id IS NULL
			AND invoice_line_items.component = ? AND invoice_line_items.quantity = ?`,
			req.TenantID, invoicedomain.KindTopUp, invoicedomain.StatusOpen,
			req.Component, req.Units).
		First(&existing).Error
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return invoicedomain.Invoice{}, err
	}

	now := time.Now().UTC()
	kind := req.Component
	inv := invoicedomain.Invoice{
		ID:               s.genID.Generate(),
		TenantID:         req.TenantID,
		Kind:             invoicedomain.KindTopUp,
		Status:           invoicedomain.StatusOpen,
		Currency:         currency,
		PeriodStart:      now,
		PeriodEnd:        now,
		TotalAmountMinor: total,
		LineItems: []invoicedomain.InvoiceLineItem{{
			ID:              s.genID.Generate(),
			Component:       &kind,
			Quantity:        req.Units,
			UnitAmountMinor: unitAmount,
			AmountMinor:     total,
		}},
	}
	inv.LineItems[0].InvoiceID = inv.ID

	if err := s.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return invoicedomain.Invoice{}, err
	}
	return inv, nil
}
