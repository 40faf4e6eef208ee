package domain

import (
	"context"
	"errors"
)

type CreateComponentRequest struct {
	Kind            ComponentKind `json:"kind"`
	IncludedUnits   int64         `json:"included_units"`
	UnitAmountMinor int64         `json:"unit_amount_minor"`
}

type CreatePlanRequest struct {
	Name            string                   `json:"name"`
	Currency        string                   `json:"currency"`
	Cycle           BillingCycle             `json:"cycle"`
	BaseAmountMinor int64                    `json:"base_amount_minor"`
	Components      []CreateComponentRequest `json:"components"`
}

type ListPlanRequest struct {
	IncludeInactive bool
}

type Service interface {
	Create(context.Context, CreatePlanRequest) (BillingPlan, error)
	Deactivate(ctx context.Context, planID string) error
	ResolvePlan(ctx context.Context, planID string) (BillingPlan, error)
	List(context.Context, ListPlanRequest) ([]BillingPlan, error)
}

var (
	ErrInvalidPlanName      = errors.New("invalid_plan_name")
	ErrInvalidCurrency      = errors.New("invalid_currency")
	ErrInvalidCycle         = errors.New("invalid_cycle")
	ErrInvalidBaseAmount    = errors.New("invalid_base_amount")
	ErrInvalidComponentKind = errors.New("invalid_component_kind")
	ErrDuplicateComponent   = errors.New("duplicate_component_kind")
	ErrInvalidIncludedUnits = errors.New("invalid_included_units")
	ErrInvalidUnitAmount    = errors.New("invalid_unit_amount")
	ErrInvalidPlanID        = errors.New("invalid_plan_id")
	ErrPlanNotFound         = errors.New("plan_not_found")
)
