package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

type CreateOrderRequest struct {
	AmountMinor int64
	Currency    string
	// Receipt is derived from the invoice id so retried creations are
	// recognizable as duplicates by the gateway.
	Receipt string
}

type Order struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

// Gateway creates orders at the external payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, creds Credentials, req CreateOrderRequest) (Order, error)
}

// Credentials is the resolved key set for one order or webhook: a tenant row
// when present, the global configuration otherwise.
type Credentials struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

// CredentialResolver yields gateway credentials per tenant with global
// fallback.
type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID snowflake.ID) (Credentials, error)
}

// CapturedEvent is one at-least-once webhook delivery of a captured payment.
type CapturedEvent struct {
	GatewayOrderID   string
	GatewayPaymentID string
	RawPayload       []byte
	Signature        string
}

// SettlementResult reports what a delivery did. Replayed deliveries are
// acknowledged with Applied=false.
type SettlementResult struct {
	InvoiceID snowflake.ID `json:"invoice_id"`
	Applied   bool         `json:"applied"`
}

type Service interface {
	HandleCaptured(context.Context, CapturedEvent) (SettlementResult, error)
}

// GatewayError wraps a transport or provider failure; the invoice stays OPEN
// and the order creation is retryable.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("gateway: %v", e.Err) }
func (e *GatewayError) Unwrap() error { return e.Err }

var (
	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrInvalidPayload     = errors.New("invalid_payload")
	ErrOrderNotFound      = errors.New("order_not_found")
	ErrInvoiceVoid        = errors.New("invoice_void")
	ErrMissingCredentials = errors.New("missing_gateway_credentials")
)
