package service

import (
	"context"
	"errors"
	"strings"
	"time"

	creditdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/credit/domain"
	invoicedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/invoice/domain"
	paymentdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/domain"
	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/gateway"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger

	Credentials paymentdomain.CredentialResolver
	CreditSvc   creditdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	credentials paymentdomain.CredentialResolver
	creditsvc   creditdomain.Service
}

func NewService(p ServiceParam) paymentdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("payment.service"),

		credentials: p.Credentials,
		creditsvc:   p.CreditSvc,
	}
}

// HandleCaptured settles one captured-payment delivery. Gateway delivery is
// at-least-once; the OPEN->PAID compare-and-swap makes the handler
// self-idempotent, so replays acknowledge without re-crediting.
func (s *Service) HandleCaptured(ctx context.Context, event paymentdomain.CapturedEvent) (paymentdomain.SettlementResult, error) {
	orderID := strings.TrimSpace(event.GatewayOrderID)
	if orderID == "" || len(event.RawPayload) == 0 {
		return paymentdomain.SettlementResult{}, paymentdomain.ErrInvalidPayload
	}

	var inv invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Preload("LineItems").
		Where("gateway_order_id = ?", orderID).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return paymentdomain.SettlementResult{}, paymentdomain.ErrOrderNotFound
		}
		return paymentdomain.SettlementResult{}, err
	}

	creds, err := s.credentials.Resolve(ctx, inv.TenantID)
	if err != nil {
		return paymentdomain.SettlementResult{}, err
	}
	if err := gateway.VerifySignature(event.RawPayload, event.Signature, creds.WebhookSecret); err != nil {
		s.log.Warn("webhook signature rejected",
			zap.String("gateway_order_id", orderID),
		)
		return paymentdomain.SettlementResult{}, err
	}

	result := paymentdomain.SettlementResult{InvoiceID: inv.ID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.WithContext(ctx).Exec(
			`UPDATE invoices
			 SET status = ?, gateway_payment_id = ?, paid_at = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			invoicedomain.StatusPaid,
			event.GatewayPaymentID,
			now,
			now,
			inv.ID,
			invoicedomain.StatusOpen,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Replayed or raced delivery; read the terminal status.
			var current invoicedomain.Invoice
			if err := tx.WithContext(ctx).Select("status").First(&current, "id = ?", inv.ID).Error; err != nil {
				return err
			}
			if current.Status == invoicedomain.StatusVoid {
				return paymentdomain.ErrInvoiceVoid
			}
			return nil
		}
		result.Applied = true

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
		return paymentdomain.SettlementResult{}, err
	}

	if result.Applied {
		s.log.Info("payment settled",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("gateway_order_id", orderID),
			zap.String("gateway_payment_id", event.GatewayPaymentID),
		)
	}
	return result, nil
}
