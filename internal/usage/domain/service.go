package domain

import (
	"context"
	"errors"
	"time"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type RecordRequest struct {
	TenantID       snowflake.ID
	SubscriptionID snowflake.ID
	Component      catalogdomain.ComponentKind
	Quantity       int64
	OccurredAt     time.Time
	Metadata       map[string]any
}

type Service interface {
	Record(context.Context, RecordRequest) (UsageEvent, error)
	// RecordTx appends the event inside the caller's transaction so a credit
	// debit and the usage it covers commit together.
	RecordTx(ctx context.Context, tx *gorm.DB, req RecordRequest) (UsageEvent, error)
	UsedInPeriod(ctx context.Context, tenantID snowflake.ID, component catalogdomain.ComponentKind, start, end time.Time) (int64, error)
}

var (
	ErrInvalidTenant    = errors.New("invalid_tenant")
	ErrInvalidComponent = errors.New("invalid_component")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidPeriod    = errors.New("invalid_period")
)
