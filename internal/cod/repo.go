package cod

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
)

// Repository reads and settles the COD ledger, which is derived entirely from
// shipment rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	ListPending(ctx context.Context, courierID *uuid.UUID) ([]models.Shipment, error)

	// MarkReconciled settles a shipment's COD exactly once: the update only
	// lands when the cash is collected and not yet reconciled.
	MarkReconciled(ctx context.Context, id uuid.UUID, amountCollected decimal.Decimal, notes *string, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a COD repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) ListPending(ctx context.Context, courierID *uuid.UUID) ([]models.Shipment, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("is_cod = ? AND cod_collected = ? AND cod_reconciled = ?", true, true, false)
	if courierID != nil {
		query = query.Where("courier_id = ?", *courierID)
	}
	var rows []models.Shipment
	err := query.Order("delivered_at ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkReconciled(ctx context.Context, id uuid.UUID, amountCollected decimal.Decimal, notes *string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("id = ? AND cod_collected = ? AND cod_reconciled = ?", id, true, false).
		Updates(map[string]any{
			"cod_reconciled":       true,
			"amount_collected":     amountCollected,
			"reconciliation_notes": notes,
			"reconciled_at":        at,
		})
	return result.RowsAffected, result.Error
}
