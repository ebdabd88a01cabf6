package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Repository defines common repository operations
type Repository interface {
	Create(ctx context.Context, entity interface{}) error
	FindByID(ctx context.Context, id interface{}, entity interface{}) error
	Update(ctx context.Context, entity interface{}) error
	Delete(ctx context.Context, entity interface{}) error
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// BaseRepository implements basic repository operations
type BaseRepository struct {
	DB *gorm.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *gorm.DB) *BaseRepository {
	return &BaseRepository{DB: db}
}

// Create creates a new entity
func (r *BaseRepository) Create(ctx context.Context, entity interface{}) error {
	return r.DB.WithContext(ctx).Create(entity).Error
}

// FindByID finds an entity by ID
func (r *BaseRepository) FindByID(ctx context.Context, id interface{}, entity interface{}) error {
	return translateError(r.DB.WithContext(ctx).First(entity, id).Error)
}

// Update updates an entity
func (r *BaseRepository) Update(ctx context.Context, entity interface{}) error {
	return r.DB.WithContext(ctx).Save(entity).Error
}

// Delete deletes an entity
func (r *BaseRepository) Delete(ctx context.Context, entity interface{}) error {
	return r.DB.WithContext(ctx).Delete(entity).Error
}

// Transaction runs operations in a transaction
func (r *BaseRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
