// Package domain contains the collaborator-owned tenant tables the billing
// engine reads from.
package domain

import (
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
)

// Tenant rows are owned by the platform's tenant service. The engine only
// checks existence.
type Tenant struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Status    string       `gorm:"type:text;not null;default:ACTIVE" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// CapacityResource is a point-in-time billable capacity row (an active news
// domain or e-paper subdomain). Owned by content workflows; the engine only
// counts ACTIVE rows by kind.
type CapacityResource struct {
	ID        snowflake.ID                `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID                `gorm:"not null;index:ix_capacity_resources_tenant_kind,priority:1" json:"tenant_id"`
	Kind      catalogdomain.ComponentKind `gorm:"type:text;not null;index:ix_capacity_resources_tenant_kind,priority:2" json:"kind"`
	Status    string                      `gorm:"type:text;not null;default:ACTIVE" json:"status"`
	CreatedAt time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CapacityResource) TableName() string { return "capacity_resources" }
