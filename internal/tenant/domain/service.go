package domain

import (
	"context"
	"errors"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Lookup(ctx context.Context, tenantID snowflake.ID) (Tenant, error)
	ActiveResourceCount(ctx context.Context, tenantID snowflake.ID, kind catalogdomain.ComponentKind) (int64, error)
}

var (
	ErrInvalidTenant  = errors.New("invalid_tenant")
	ErrTenantNotFound = errors.New("tenant_not_found")
)
