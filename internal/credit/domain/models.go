// Package domain contains the prepaid credit balance model.
package domain

import (
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
)

// CreditBalance banks prepaid units per (tenant, component). The balance is
// mutated only by a guarded decrement or an atomic increment; it can never go
// negative.
type CreditBalance struct {
	ID        snowflake.ID                `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID                `gorm:"not null;uniqueIndex:ux_credit_balances_tenant_component,priority:1" json:"tenant_id"`
	Component catalogdomain.ComponentKind `gorm:"type:text;not null;uniqueIndex:ux_credit_balances_tenant_component,priority:2" json:"component"`
	Balance   int64                       `gorm:"not null;default:0;check:balance >= 0" json:"balance"`
	UpdatedAt time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CreditBalance) TableName() string { return "credit_balances" }
