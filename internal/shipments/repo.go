package shipments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	"github.com/logitrack/logitrack-backend/pkg/pagination"
)

// ListFilter narrows shipment listings. Date bounds apply to the in-scan
// timestamp and are inclusive of the whole day.
type ListFilter struct {
	Status         *enums.ShipmentStatus
	ShipmentType   *enums.ShipmentType
	CourierID      *uuid.UUID
	BinLocationID  *uuid.UUID
	RunSheetID     *uuid.UUID
	IsCOD          *bool
	InScanDateFrom *time.Time
	InScanDateTo   *time.Time
	Search         string
	Limit          int
	Offset         int
}

// Repository is the shipment persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindByAWB(ctx context.Context, awb string) (*models.Shipment, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Shipment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Shipment, int64, error)
	Save(ctx context.Context, shipment *models.Shipment) error
	Delete(ctx context.Context, id uuid.UUID) error

	// GuardedStatusUpdate applies updates only when the row is still in the
	// expected status, returning the number of rows touched. Zero rows means
	// a concurrent writer got there first.
	GuardedStatusUpdate(ctx context.Context, id uuid.UUID, from enums.ShipmentStatus, updates map[string]any) (int64, error)

	CreateFollowUp(ctx context.Context, followUp *models.FollowUp) (*models.FollowUp, error)
	ListFollowUps(ctx context.Context, shipmentID uuid.UUID) ([]models.FollowUp, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	if err := r.db.WithContext(ctx).Create(shipment).Error; err != nil {
		return nil, err
	}
	return shipment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) FindByAWB(ctx context.Context, awb string) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).
		Where("tracking_number = ?", awb).
		First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Shipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Shipment
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Shipment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Shipment{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ShipmentType != nil {
		query = query.Where("shipment_type = ?", *filter.ShipmentType)
	}
	if filter.CourierID != nil {
		query = query.Where("courier_id = ?", *filter.CourierID)
	}
	if filter.BinLocationID != nil {
		query = query.Where("bin_location_id = ?", *filter.BinLocationID)
	}
	if filter.RunSheetID != nil {
		query = query.Where("run_sheet_id = ?", *filter.RunSheetID)
	}
	if filter.IsCOD != nil {
		query = query.Where("is_cod = ?", *filter.IsCOD)
	}
	if filter.InScanDateFrom != nil {
		query = query.Where("in_scanned_at >= ?", *filter.InScanDateFrom)
	}
	if filter.InScanDateTo != nil {
		query = query.Where("in_scanned_at < ?", filter.InScanDateTo.AddDate(0, 0, 1))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"tracking_number LIKE ? OR customer_name LIKE ? OR customer_phone LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := pagination.Normalize(pagination.Page{Limit: filter.Limit, Offset: filter.Offset})
	query = query.Order("created_at DESC").Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset)

	var rows []models.Shipment
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Save(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Save(shipment).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Shipment{}).Error
}

func (r *repository) GuardedStatusUpdate(ctx context.Context, id uuid.UUID, from enums.ShipmentStatus, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) CreateFollowUp(ctx context.Context, followUp *models.FollowUp) (*models.FollowUp, error) {
	if err := r.db.WithContext(ctx).Create(followUp).Error; err != nil {
		return nil, err
	}
	return followUp, nil
}

func (r *repository) ListFollowUps(ctx context.Context, shipmentID uuid.UUID) ([]models.FollowUp, error) {
	var rows []models.FollowUp
	err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
