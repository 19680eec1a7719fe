package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrUnknownField    = errors.New("unknown field")
	ErrDuplicateRecord = errors.New("duplicate record")
	ErrInvalidValue    = errors.New("invalid value")
)

// Resource описывает таблицу для generic-репозитория: какие колонки можно
// фильтровать, сортировать и отдавать, и какой scope применяется к чтению.
type Resource interface {
	TableName() string
	DefaultScope(db *gorm.DB) *gorm.DB
	Filterable() []string
	Sortable() []string
	Selectable() []string
}

// ChangeValidator - необязательная проверка значений для Update
type ChangeValidator interface {
	ValidateChanges(changes map[string]interface{}) error
}

// ResourceStore - операции generic-репозитория, на которые опираются сервисы
type ResourceStore[T Resource] interface {
	List(ctx context.Context, opts QueryOptions) ([]T, error)
	Get(ctx context.Context, id string, fields ...string) (*T, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, id string, changes map[string]interface{}) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Колонки, которые нельзя менять через Update
var immutableColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

type ResourceRepository[T Resource] struct {
	db *gorm.DB
}

func NewResourceRepository[T Resource](db *gorm.DB) *ResourceRepository[T] {
	return &ResourceRepository[T]{db: db}
}

func (r *ResourceRepository[T]) descriptor() T {
	var zero T
	return zero
}

func (r *ResourceRepository[T]) scoped(ctx context.Context) *gorm.DB {
	return r.descriptor().DefaultScope(r.db.WithContext(ctx).Model(new(T)))
}

func (r *ResourceRepository[T]) List(ctx context.Context, opts QueryOptions) ([]T, error) {
	d := r.descriptor()
	q := r.scoped(ctx)

	for _, f := range opts.Filters {
		if !contains(d.Filterable(), f.Field) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, f.Field)
		}
		q = q.Where(fmt.Sprintf("%s %s ?", f.Field, f.Op.SQL()), f.Value)
	}

	sort := opts.Sort
	if len(sort) == 0 {
		sort = DefaultSort
	}
	for _, s := range sort {
		if !contains(d.Sortable(), s.Field) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, s.Field)
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Field}, Desc: s.Desc})
	}

	columns, err := projection(d, opts.Fields)
	if err != nil {
		return nil, err
	}

	page, limit := opts.pagination()
	var items []T
	err = q.Select(columns).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ResourceRepository[T]) Get(ctx context.Context, id string, fields ...string) (*T, error) {
	columns, err := projection(r.descriptor(), fields)
	if err != nil {
		return nil, err
	}

	var item T
	err = r.scoped(ctx).Select(columns).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *ResourceRepository[T]) Create(ctx context.Context, item *T) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

// Update применяет изменения только к колонкам из Selectable и возвращает
// обновленную запись
func (r *ResourceRepository[T]) Update(ctx context.Context, id string, changes map[string]interface{}) (*T, error) {
	d := r.descriptor()
	for column := range changes {
		if immutableColumns[column] || !contains(d.Selectable(), column) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, column)
		}
	}
	if v, ok := any(d).(ChangeValidator); ok {
		if err := v.ValidateChanges(changes); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
	}

	if len(changes) > 0 {
		result := r.scoped(ctx).Where("id = ?", id).Updates(changes)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return nil, ErrDuplicateRecord
			}
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrRecordNotFound
		}
	}

	return r.Get(ctx, id)
}

func (r *ResourceRepository[T]) Delete(ctx context.Context, id string) error {
	result := r.descriptor().DefaultScope(r.db.WithContext(ctx)).
		Where("id = ?", id).
		Delete(new(T))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func projection(d Resource, fields []string) ([]string, error) {
	if len(fields) == 0 {
		return d.Selectable(), nil
	}

	columns := []string{"id"}
	for _, f := range fields {
		if f == "id" {
			continue
		}
		if !contains(d.Selectable(), f) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
		columns = append(columns, f)
	}
	return columns, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
