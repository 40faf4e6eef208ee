// Package domain defines the payment gateway contract and webhook settlement
// types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// GatewayCredential overrides the global gateway configuration for one tenant.
type GatewayCredential struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID      snowflake.ID `gorm:"not null;uniqueIndex" json:"tenant_id"`
	KeyID         string       `gorm:"type:text;not null" json:"key_id"`
	KeySecret     string       `gorm:"type:text;not null" json:"-"`
	WebhookSecret string       `gorm:"type:text;not null" json:"-"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (GatewayCredential) TableName() string { return "gateway_credentials" }
