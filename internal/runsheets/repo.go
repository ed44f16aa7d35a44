package runsheets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
)

// Repository is the run sheet persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sheet *models.RunSheet) (*models.RunSheet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.RunSheet, error)
	List(ctx context.Context, courierID *uuid.UUID) ([]models.RunSheet, error)

	// MarkScannedOut flips the scanned_out flag only when the sheet has not
	// been scanned out yet, returning the number of rows touched.
	MarkScannedOut(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	// MarkScannedIn flips the scanned_in flag only when the sheet is out and
	// not yet back, returning the number of rows touched.
	MarkScannedIn(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a run sheets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sheet *models.RunSheet) (*models.RunSheet, error) {
	if err := r.db.WithContext(ctx).Create(sheet).Error; err != nil {
		return nil, err
	}
	return sheet, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RunSheet, error) {
	var sheet models.RunSheet
	err := r.db.WithContext(ctx).
		Preload("Shipments").
		Where("id = ?", id).
		First(&sheet).Error
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *repository) List(ctx context.Context, courierID *uuid.UUID) ([]models.RunSheet, error) {
	query := r.db.WithContext(ctx).Model(&models.RunSheet{})
	if courierID != nil {
		query = query.Where("courier_id = ?", *courierID)
	}
	var rows []models.RunSheet
	err := query.
		Preload("Shipments").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkScannedOut(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RunSheet{}).
		Where("id = ? AND scanned_out = ?", id, false).
		Updates(map[string]any{
			"scanned_out":    true,
			"scanned_out_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) MarkScannedIn(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RunSheet{}).
		Where("id = ? AND scanned_out = ? AND scanned_in = ?", id, true, false).
		Updates(map[string]any{
			"scanned_in":    true,
			"scanned_in_at": at,
		})
	return result.RowsAffected, result.Error
}
