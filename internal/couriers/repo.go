package couriers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
)

// Stats are derived per-courier aggregates. They are computed from the
// shipments table on demand, never stored as counters.
type Stats struct {
	CourierID        uuid.UUID       `json:"courier_id"`
	Assigned         int64           `json:"assigned"`
	OutForDelivery   int64           `json:"out_for_delivery"`
	Delivered        int64           `json:"delivered"`
	PendingCODAmount decimal.Decimal `json:"pending_cod_amount"`
}

// Repository is the courier persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, courier *models.Courier) (*models.Courier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	List(ctx context.Context, status *enums.CourierStatus) ([]models.Courier, error)
	Save(ctx context.Context, courier *models.Courier) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, id uuid.UUID) (*Stats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a couriers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, courier *models.Courier) (*models.Courier, error) {
	if err := r.db.WithContext(ctx).Create(courier).Error; err != nil {
		return nil, err
	}
	return courier, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	var courier models.Courier
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&courier).Error
	if err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *repository) List(ctx context.Context, status *enums.CourierStatus) ([]models.Courier, error) {
	query := r.db.WithContext(ctx).Model(&models.Courier{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.Courier
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, courier *models.Courier) error {
	return r.db.WithContext(ctx).Save(courier).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Courier{}).Error
}

func (r *repository) Stats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	stats := &Stats{CourierID: id, PendingCODAmount: decimal.Zero}

	counts := []struct {
		status enums.ShipmentStatus
		target *int64
	}{
		{enums.ShipmentStatusAssignedToChamp, &stats.Assigned},
		{enums.ShipmentStatusOutForDelivery, &stats.OutForDelivery},
		{enums.ShipmentStatusDelivered, &stats.Delivered},
	}
	for _, c := range counts {
		err := r.db.WithContext(ctx).
			Model(&models.Shipment{}).
			Where("courier_id = ? AND status = ?", id, c.status).
			Count(c.target).Error
		if err != nil {
			return nil, err
		}
	}

	var pending []models.Shipment
	err := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("courier_id = ? AND cod_collected = ? AND cod_reconciled = ?", id, true, false).
		Find(&pending).Error
	if err != nil {
		return nil, err
	}
	for _, s := range pending {
		stats.PendingCODAmount = stats.PendingCODAmount.Add(s.CODAmount)
	}
	return stats, nil
}
