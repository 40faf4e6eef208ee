// Package option provides composable gorm query modifiers used by the generic
// repository.
package option

import "gorm.io/gorm"

type Operator string

const (
	GTE Operator = ">="
	GT  Operator = ">"
	LTE Operator = "<="
	LT  Operator = "<"
	NEQ Operator = "<>"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a comparison predicate on a single column.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(cond.Field+" "+string(cond.Operator)+" ?", cond.Value)
	})
}

// WithPreload eagerly loads the named association.
func WithPreload(association string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Preload(association)
	})
}

// WithSortBy orders results by a whitelisted column.
func WithSortBy(column, direction string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if direction != "asc" && direction != "desc" {
			direction = "desc"
		}
		return db.Order(column + " " + direction)
	})
}

// WithLimit caps the number of returned rows.
func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}
