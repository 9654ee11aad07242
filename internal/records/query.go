package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrFetch       = errors.New("remote fetch failed")
	ErrInvalidOp   = errors.New("unsupported filter operator")
	ErrEmptyUpdate = errors.New("update has no fields")
)

// Filter is a single column predicate. Columns always come from code, never
// from request input.
type Filter struct {
	Column string
	Op     string
	Value  any
}

func Eq(column string, value any) Filter  { return Filter{Column: column, Op: "=", Value: value} }
func Gte(column string, value any) Filter { return Filter{Column: column, Op: ">=", Value: value} }

// Query is the list(filter, orderBy, limit) request shape of the data service.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

var allowedOps = map[string]bool{"=": true, ">=": true, "<=": true, ">": true, "<": true}

func (q Query) scope(db *gorm.DB) (*gorm.DB, error) {
	for _, f := range q.Filters {
		if !allowedOps[f.Op] {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOp, f.Op)
		}
		db = db.Where(f.Column+" "+f.Op+" ?", f.Value)
	}
	if q.OrderBy != "" {
		order := q.OrderBy
		if q.Desc {
			order += " DESC"
		}
		db = db.Order(order)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	return db, nil
}

// List returns every T matching q.
func List[T any](ctx context.Context, db *gorm.DB, q Query) ([]T, error) {
	scoped, err := q.scope(db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	var out []T
	if err := scoped.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// First returns the first T matching q, or nil when nothing matches.
func First[T any](ctx context.Context, db *gorm.DB, q Query) (*T, error) {
	q.Limit = 1
	rows, err := List[T](ctx, db, q)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func Get[T any](ctx context.Context, db *gorm.DB, id uuid.UUID) (*T, error) {
	var out T
	if err := db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// Update applies partial fields to the T with the given id and returns the
// stored result.
func Update[T any](ctx context.Context, db *gorm.DB, id uuid.UUID, fields map[string]any) (*T, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyUpdate
	}
	var model T
	res := db.WithContext(ctx).Model(&model).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return Get[T](ctx, db, id)
}
