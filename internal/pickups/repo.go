package pickups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
)

// ListFilter narrows pickup listings.
type ListFilter struct {
	Kind      *enums.PickupKind
	Status    *enums.PickupStatus
	CourierID *uuid.UUID
}

// Repository is the pickup persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pickup *models.Pickup) (*models.Pickup, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pickup, error)
	List(ctx context.Context, filter ListFilter) ([]models.Pickup, error)
	Save(ctx context.Context, pickup *models.Pickup) error

	// GuardedStatusUpdate applies updates only while the pickup is still in
	// the expected state, returning the number of rows touched.
	GuardedStatusUpdate(ctx context.Context, id uuid.UUID, from enums.PickupStatus, updates map[string]any) (int64, error)

	AppendHistory(ctx context.Context, entry *models.PickupHistoryEntry) error
	ListHistory(ctx context.Context, pickupID uuid.UUID) ([]models.PickupHistoryEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pickups repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pickup *models.Pickup) (*models.Pickup, error) {
	if err := r.db.WithContext(ctx).Create(pickup).Error; err != nil {
		return nil, err
	}
	return pickup, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pickup, error) {
	var pickup models.Pickup
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pickup).Error
	if err != nil {
		return nil, err
	}
	return &pickup, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Pickup, error) {
	query := r.db.WithContext(ctx).Model(&models.Pickup{})
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CourierID != nil {
		query = query.Where("courier_id = ?", *filter.CourierID)
	}
	var rows []models.Pickup
	err := query.Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, pickup *models.Pickup) error {
	return r.db.WithContext(ctx).Save(pickup).Error
}

func (r *repository) GuardedStatusUpdate(ctx context.Context, id uuid.UUID, from enums.PickupStatus, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Pickup{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.PickupHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, pickupID uuid.UUID) ([]models.PickupHistoryEntry, error) {
	var rows []models.PickupHistoryEntry
	err := r.db.WithContext(ctx).
		Where("pickup_id = ?", pickupID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
