// Package domain contains the immutable usage-event log.
package domain

import (
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageEvent is append-only. Rows are never updated or deleted; period totals
// are always recomputed from the log.
type UsageEvent struct {
	ID             snowflake.ID                `gorm:"primaryKey" json:"id"`
	TenantID       snowflake.ID                `gorm:"not null;index:ix_usage_events_tenant_component_occurred,priority:1" json:"tenant_id"`
	SubscriptionID snowflake.ID                `gorm:"not null;index" json:"subscription_id"`
	Component      catalogdomain.ComponentKind `gorm:"type:text;not null;index:ix_usage_events_tenant_component_occurred,priority:2" json:"component"`
	Quantity       int64                       `gorm:"not null" json:"quantity"`
	OccurredAt     time.Time                   `gorm:"not null;index:ix_usage_events_tenant_component_occurred,priority:3" json:"occurred_at"`
	Metadata       datatypes.JSONMap           `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (UsageEvent) TableName() string { return "usage_events" }
