package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/newrestaurant/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope narrows a query, e.g. func(db *gorm.DB) *gorm.DB { return db.Where("user_id = ?", id) }.
type Scope func(*gorm.DB) *gorm.DB

// Repository is the CRUD shared by every entity. name is used in error messages.
type Repository[T any] struct {
	db   *gorm.DB
	name string
}

func New[T any](db *gorm.DB, name string) *Repository[T] {
	return &Repository[T]{db: db, name: name}
}

// WithTx returns a copy bound to tx.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx, name: r.name}
}

func (r *Repository[T]) DB() *gorm.DB {
	return r.db
}

func (r *Repository[T]) session(ctx context.Context, scopes []Scope) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, s := range scopes {
		q = s(q)
	}
	return q
}

func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return r.translate("create", err)
	}
	return nil
}

// Save updates every column of entity.
func (r *Repository[T]) Save(ctx context.Context, entity *T) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return r.translate("save", err)
	}
	return nil
}

func (r *Repository[T]) FindByID(ctx context.Context, id uint, scopes ...Scope) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	var entity T
	if err := r.session(ctx, scopes).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("%s %d not found", r.name, id)
		}
		return nil, r.translate("find", err)
	}
	return &entity, nil
}

// LockByID loads the row with SELECT ... FOR UPDATE. Must run inside a transaction.
func (r *Repository[T]) LockByID(ctx context.Context, id uint) (*T, error) {
	return r.FindByID(ctx, id, func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	})
}

func (r *Repository[T]) First(ctx context.Context, scopes ...Scope) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	var entity T
	if err := r.session(ctx, scopes).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("%s not found", r.name)
		}
		return nil, r.translate("find", err)
	}
	return &entity, nil
}

func (r *Repository[T]) Find(ctx context.Context, scopes ...Scope) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	var entities []T
	if err := r.session(ctx, scopes).Find(&entities).Error; err != nil {
		return nil, r.translate("list", err)
	}
	return entities, nil
}

func (r *Repository[T]) Count(ctx context.Context, scopes ...Scope) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}
	var n int64
	if err := r.session(ctx, scopes).Model(new(T)).Count(&n).Error; err != nil {
		return 0, r.translate("count", err)
	}
	return n, nil
}

func (r *Repository[T]) Exists(ctx context.Context, scopes ...Scope) (bool, error) {
	n, err := r.Count(ctx, scopes...)
	return n > 0, err
}

// Delete removes the row by id, NotFound if nothing was deleted.
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return r.translate("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("%s %d not found", r.name, id)
	}
	return nil
}

// DeleteWhere removes every row matching scopes and returns the count.
func (r *Repository[T]) DeleteWhere(ctx context.Context, scopes ...Scope) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}
	res := r.session(ctx, scopes).Delete(new(T))
	if res.Error != nil {
		return 0, r.translate("delete", res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateColumns applies a partial update to matching rows and returns the count.
func (r *Repository[T]) UpdateColumns(ctx context.Context, values map[string]interface{}, scopes ...Scope) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}
	res := r.session(ctx, scopes).Model(new(T)).Updates(values)
	if res.Error != nil {
		return 0, r.translate("update", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository[T]) translate(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("failed to %s %s: %w", op, r.name, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.Conflict("%s already exists", r.name)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperror.Conflict("%s is still referenced", r.name)
	}
	return apperror.Storage(fmt.Sprintf("failed to %s %s", op, r.name), err)
}

// Scopes.

func Where(query interface{}, args ...interface{}) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where(query, args...) }
}

func Order(value interface{}) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Order(value) }
}

func Preload(query string, args ...interface{}) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Preload(query, args...) }
}

func Limit(n int) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Limit(n) }
}
