package repository

import (
	"context"
	"time"

	subscriptiondomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

// FindCurrent returns the most recently created billing row for the tenant.
func (r *repo) FindCurrent(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (*subscriptiondomain.TenantSubscription, error) {
	var sub subscriptiondomain.TenantSubscription
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID, []subscriptiondomain.Status{
			subscriptiondomain.StatusActive,
			subscriptiondomain.StatusTrialing,
		}).
		Order("created_at desc").
		First(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// FindDueScheduled snapshots SCHEDULED rows whose period has begun.
func (r *repo) FindDueScheduled(ctx context.Context, db *gorm.DB, now time.Time) ([]subscriptiondomain.TenantSubscription, error) {
	var rows []subscriptiondomain.TenantSubscription
	err := db.WithContext(ctx).
		Where("status = ? AND current_period_start <= ?", subscriptiondomain.StatusScheduled, now).
		Order("current_period_start asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ActivateRow flips one row SCHEDULED -> ACTIVE. The status guard makes
// concurrent and repeated sweeps converge on a single transition: a row that
// is no longer SCHEDULED reports false with no error.
func (r *repo) ActivateRow(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE tenant_subscriptions
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		subscriptiondomain.StatusActive,
		now,
		id,
		subscriptiondomain.StatusScheduled,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
