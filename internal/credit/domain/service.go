package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	usagedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/usage/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ConsumeRequest struct {
	TenantID   snowflake.ID
	Component  catalogdomain.ComponentKind
	Quantity   int64
	OccurredAt time.Time
	Metadata   map[string]any
}

// ConsumeResult reports an admitted request: the recorded event plus the
// balance picture after admission.
type ConsumeResult struct {
	Event               usagedomain.UsageEvent `json:"event"`
	IncludedRemaining   int64                  `json:"included_remaining"`
	RequiredFromCredits int64                  `json:"required_from_credits"`
	Balance             int64                  `json:"balance"`
}

// BalanceSnapshot is the per-component view served to tenants: free allotment
// state for the current period plus the banked prepaid balance.
type BalanceSnapshot struct {
	Component         catalogdomain.ComponentKind `json:"component"`
	IncludedUnits     int64                       `json:"included_units"`
	UsedInPeriod      int64                       `json:"used_in_period"`
	IncludedRemaining int64                       `json:"included_remaining"`
	Balance           int64                       `json:"balance"`
}

// InsufficientCreditsError carries enough detail for the caller to size a
// top-up without another round trip. It is an expected outcome, not a fault.
type InsufficientCreditsError struct {
	IncludedRemaining   int64 `json:"included_remaining"`
	RequestedQuantity   int64 `json:"requested_quantity"`
	Balance             int64 `json:"balance"`
	ShortagePages       int64 `json:"shortage_pages"`
	ShortageAmountMinor int64 `json:"shortage_amount_minor"`
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient_credits: short %d units (%d minor)", e.ShortagePages, e.ShortageAmountMinor)
}

type Service interface {
	CheckAndConsume(context.Context, ConsumeRequest) (ConsumeResult, error)
	TopUp(ctx context.Context, tenantID snowflake.ID, component catalogdomain.ComponentKind, units int64) error
	// TopUpTx credits inside the caller's transaction; the settlement path uses
	// it so the invoice transition and the credit commit together.
	TopUpTx(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, component catalogdomain.ComponentKind, units int64) error
	Balances(ctx context.Context, tenantID snowflake.ID) ([]BalanceSnapshot, error)
}

var (
	ErrInvalidTenant       = errors.New("invalid_tenant")
	ErrInvalidComponent    = errors.New("invalid_component")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidUnits        = errors.New("invalid_units")
	ErrComponentNotOnPlan  = errors.New("component_not_on_plan")
	ErrComponentNotPrepaid = errors.New("component_not_prepaid")
)
