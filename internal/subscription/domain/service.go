package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ReplaceRequest struct {
	TenantID          string     `json:"tenant_id"`
	PlanID            string     `json:"plan_id"`
	Start             time.Time  `json:"start"`
	End               *time.Time `json:"end,omitempty"`
	Status            Status     `json:"status"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}

// ActivationReport aggregates one sweep over due SCHEDULED rows. Rows are
// attempted independently; a failure never aborts the batch.
type ActivationReport struct {
	Due       int `json:"due"`
	Activated int `json:"activated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type Service interface {
	Replace(context.Context, ReplaceRequest) (TenantSubscription, error)
	Current(ctx context.Context, tenantID snowflake.ID) (TenantSubscription, error)
	ActivateScheduled(ctx context.Context) (ActivationReport, error)
}

type Repository interface {
	FindCurrent(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (*TenantSubscription, error)
	FindDueScheduled(ctx context.Context, db *gorm.DB, now time.Time) ([]TenantSubscription, error)
	ActivateRow(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
}

var (
	ErrInvalidTenant        = errors.New("invalid_tenant")
	ErrInvalidPlan          = errors.New("invalid_plan")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidStart         = errors.New("invalid_start")
	ErrInvalidPeriod        = errors.New("invalid_period")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
)
