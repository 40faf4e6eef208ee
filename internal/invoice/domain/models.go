// Package domain contains persistence models for invoices.
package domain

import (
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
)

type Kind string

const (
	KindSubscription Kind = "SUBSCRIPTION"
	KindTopUp        Kind = "TOPUP"
)

type Status string

const (
	StatusOpen Status = "OPEN"
	StatusPaid Status = "PAID"
	StatusVoid Status = "VOID"
)

// Invoice is settled either manually (external ref) or online through the
// gateway (order id attached after order creation, payment id after capture).
// Among non-VOID rows there is at most one SUBSCRIPTION invoice per
// (tenant, period); the partial unique index in the migrations enforces it.
type Invoice struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID         snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Kind             Kind         `gorm:"type:text;not null" json:"kind"`
	Status           Status       `gorm:"type:text;not null;default:OPEN" json:"status"`
	Currency         string       `gorm:"type:text;not null" json:"currency"`
	PeriodStart      time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd        time.Time    `gorm:"not null" json:"period_end"`
	TotalAmountMinor int64        `gorm:"not null" json:"total_amount_minor"`
	ExternalRef      *string      `gorm:"type:text" json:"external_ref,omitempty"`
	PaymentMethod    *string      `gorm:"type:text" json:"payment_method,omitempty"`
	GatewayOrderID   *string      `gorm:"type:text;uniqueIndex" json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string      `gorm:"type:text" json:"gateway_payment_id,omitempty"`
	PaidAt           *time.Time   `gorm:"" json:"paid_at,omitempty"`
	VoidReason       *string      `gorm:"type:text" json:"void_reason,omitempty"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"line_items,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceLineItem prices one dimension of an invoice. A nil Component marks
// the base fee.
type InvoiceLineItem struct {
	ID              snowflake.ID                 `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID                 `gorm:"not null;index" json:"invoice_id"`
	Component       *catalogdomain.ComponentKind `gorm:"type:text" json:"component,omitempty"`
	Quantity        int64                        `gorm:"not null" json:"quantity"`
	UnitAmountMinor int64                        `gorm:"not null" json:"unit_amount_minor"`
	AmountMinor     int64                        `gorm:"not null" json:"amount_minor"`
	CreatedAt       time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceLineItem) TableName() string { return "invoice_line_items" }
