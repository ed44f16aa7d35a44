package attempts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
)

// Repository is the delivery attempt persistence surface. Attempts are
// append-only; there is no update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, attempt *models.DeliveryAttempt) (*models.DeliveryAttempt, error)
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.DeliveryAttempt, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an attempts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, attempt *models.DeliveryAttempt) (*models.DeliveryAttempt, error) {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *repository) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.DeliveryAttempt, error) {
	var rows []models.DeliveryAttempt
	err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
