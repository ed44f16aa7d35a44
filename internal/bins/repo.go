package bins

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
)

// Repository is the bin location persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bin *models.BinLocation) (*models.BinLocation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.BinLocation, error)
	List(ctx context.Context) ([]models.BinLocation, error)
	Save(ctx context.Context, bin *models.BinLocation) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ReserveSlots atomically bumps current_count by count when the result
	// still fits the capacity, returning the number of rows touched.
	ReserveSlots(ctx context.Context, id uuid.UUID, count int) (int64, error)
	// ReleaseSlots decrements current_count, flooring at zero.
	ReleaseSlots(ctx context.Context, id uuid.UUID, count int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bins repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bin *models.BinLocation) (*models.BinLocation, error) {
	if err := r.db.WithContext(ctx).Create(bin).Error; err != nil {
		return nil, err
	}
	return bin, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BinLocation, error) {
	var bin models.BinLocation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&bin).Error
	if err != nil {
		return nil, err
	}
	return &bin, nil
}

func (r *repository) List(ctx context.Context) ([]models.BinLocation, error) {
	var rows []models.BinLocation
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, bin *models.BinLocation) error {
	return r.db.WithContext(ctx).Save(bin).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.BinLocation{}).Error
}

func (r *repository) ReserveSlots(ctx context.Context, id uuid.UUID, count int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BinLocation{}).
		Where("id = ? AND current_count + ? <= capacity", id, count).
		Update("current_count", gorm.Expr("current_count + ?", count))
	return result.RowsAffected, result.Error
}

func (r *repository) ReleaseSlots(ctx context.Context, id uuid.UUID, count int) error {
	return r.db.WithContext(ctx).
		Model(&models.BinLocation{}).
		Where("id = ?", id).
		Update("current_count", gorm.Expr(
			"CASE WHEN current_count >= ? THEN current_count - ? ELSE 0 END", count, count,
		)).Error
}
