// Package domain contains persistence models for tenant subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status represents lifecycle states for a subscription.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusActive    Status = "ACTIVE"
	StatusTrialing  Status = "TRIALING"
	StatusPastDue   Status = "PAST_DUE"
	StatusCanceled  Status = "CANCELED"
)

// Valid reports whether the status is a known enum value.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusActive, StatusTrialing, StatusPastDue, StatusCanceled:
		return true
	}
	return false
}

// Billing reports whether the status puts billing in effect.
func (s Status) Billing() bool {
	return s == StatusActive || s == StatusTrialing
}

// TenantSubscription is one row of a tenant's immutable subscription history.
// Replacing a subscription appends a new row; the current subscription is the
// most recently created billing row.
type TenantSubscription struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID           snowflake.ID `gorm:"not null;index:ix_tenant_subscriptions_tenant_created,priority:1" json:"tenant_id"`
	PlanID             snowflake.ID `gorm:"not null;index" json:"plan_id"`
	Status             Status       `gorm:"type:text;not null;index" json:"status"`
	CurrentPeriodStart time.Time    `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time    `gorm:"not null" json:"current_period_end"`
	CancelAtPeriodEnd  bool         `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt         *time.Time   `gorm:"" json:"canceled_at,omitempty"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index:ix_tenant_subscriptions_tenant_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (TenantSubscription) TableName() string { return "tenant_subscriptions" }

// InPeriod reports whether t falls inside the half-open current period.
func (s TenantSubscription) InPeriod(t time.Time) bool {
	return !t.Before(s.CurrentPeriodStart) && t.Before(s.CurrentPeriodEnd)
}
