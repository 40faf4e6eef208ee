// Package domain contains persistence models for the pricing catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingCycle enumerates supported billing cycle lengths.
type BillingCycle string

const (
	CycleMonthly    BillingCycle = "MONTHLY"
	CycleQuarterly  BillingCycle = "QUARTERLY"
	CycleHalfYearly BillingCycle = "HALF_YEARLY"
	CycleYearly     BillingCycle = "YEARLY"
)

// Valid reports whether the cycle is a known enum value.
func (c BillingCycle) Valid() bool {
	switch c {
	case CycleMonthly, CycleQuarterly, CycleHalfYearly, CycleYearly:
		return true
	}
	return false
}

// PeriodEnd computes the exclusive end of a period starting at start.
func (c BillingCycle) PeriodEnd(start time.Time) time.Time {
	switch c {
	case CycleMonthly:
		return start.AddDate(0, 1, 0)
	case CycleQuarterly:
		return start.AddDate(0, 3, 0)
	case CycleHalfYearly:
		return start.AddDate(0, 6, 0)
	case CycleYearly:
		return start.AddDate(1, 0, 0)
	}
	return start
}

// ComponentKind identifies a billable resource dimension.
type ComponentKind string

const (
	ComponentNewsDomain      ComponentKind = "NEWS_DOMAIN"
	ComponentEpaperSubdomain ComponentKind = "EPAPER_SUBDOMAIN"
	ComponentDesignPage      ComponentKind = "DESIGN_PAGE"
)

// BillingMode describes how a component is charged.
type BillingMode string

const (
	// BillingModeCapacity bills max(0, active count - included) on the
	// subscription invoice.
	BillingModeCapacity BillingMode = "CAPACITY"
	// BillingModePrepaid is metered against prepaid credits and billed
	// exclusively through top-up invoices.
	BillingModePrepaid BillingMode = "PREPAID"
)

// Valid reports whether the kind is a known enum value.
func (k ComponentKind) Valid() bool {
	switch k {
	case ComponentNewsDomain, ComponentEpaperSubdomain, ComponentDesignPage:
		return true
	}
	return false
}

// Mode returns the billing mode for the kind. Callers must have validated the
// kind first; unknown kinds map to capacity so they surface on invoices rather
// than silently vanish.
func (k ComponentKind) Mode() BillingMode {
	if k == ComponentDesignPage {
		return BillingModePrepaid
	}
	return BillingModeCapacity
}

// SupportedCurrencies is the closed set of plan currencies.
var SupportedCurrencies = map[string]bool{
	"INR": true,
	"USD": true,
}

// BillingPlan is an immutable pricing definition. Price changes require a new
// plan so historical invoices stay traceable to the plan that produced them.
type BillingPlan struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Name            string       `gorm:"type:text;not null" json:"name"`
	Currency        string       `gorm:"type:text;not null" json:"currency"`
	Cycle           BillingCycle `gorm:"type:text;not null" json:"cycle"`
	BaseAmountMinor int64        `gorm:"not null" json:"base_amount_minor"`
	IsActive        bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Components []PlanComponent `gorm:"foreignKey:PlanID" json:"components,omitempty"`
}

// TableName sets the database table name.
func (BillingPlan) TableName() string { return "billing_plans" }

// PlanComponent prices one component kind within a plan.
type PlanComponent struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	PlanID          snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_plan_components_plan_kind,priority:1" json:"plan_id"`
	Kind            ComponentKind `gorm:"type:text;not null;uniqueIndex:ux_plan_components_plan_kind,priority:2" json:"kind"`
	IncludedUnits   int64         `gorm:"not null" json:"included_units"`
	UnitAmountMinor int64         `gorm:"not null" json:"unit_amount_minor"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PlanComponent) TableName() string { return "plan_components" }

// Component returns the plan component for kind, if priced.
func (p BillingPlan) Component(kind ComponentKind) (PlanComponent, bool) {
	for _, c := range p.Components {
		if c.Kind == kind {
			return c, true
		}
	}
	return PlanComponent{}, false
}
