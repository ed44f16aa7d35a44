package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
)

// Stats is the operations overview. Every number is derived from the live
// tables on each call; nothing here is a stored counter.
type Stats struct {
	TotalShipments   int64 `json:"total_shipments"`
	PendingShipments int64 `json:"pending_shipments"`
	InTransit        int64 `json:"in_transit"`
	Delivered        int64 `json:"delivered"`

	TotalDrivers  int64 `json:"total_drivers"`
	ActiveDrivers int64 `json:"active_drivers"`

	TotalCODAmount      decimal.Decimal `json:"total_cod_amount"`
	PendingCODAmount    decimal.Decimal `json:"pending_cod_amount"`
	ReconciledCODAmount decimal.Decimal `json:"reconciled_cod_amount"`
}

// Service computes the dashboard overview.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	db *gorm.DB
}

// NewService builds a dashboard service over the provided DB.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	return &service{db: db}, nil
}

// inTransitStatuses covers every state between warehouse intake and a
// recorded doorstep outcome.
var inTransitStatuses = []enums.ShipmentStatus{
	enums.ShipmentStatusInScanned,
	enums.ShipmentStatusAssignedToBin,
	enums.ShipmentStatusAssignedToChamp,
	enums.ShipmentStatusOutForDelivery,
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		TotalCODAmount:      decimal.Zero,
		PendingCODAmount:    decimal.Zero,
		ReconciledCODAmount: decimal.Zero,
	}
	shipments := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Shipment{})
	}
	couriers := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Courier{})
	}

	if err := shipments().Count(&stats.TotalShipments).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count shipments")
	}
	if err := shipments().Where("status = ?", enums.ShipmentStatusPendingHandover).
		Count(&stats.PendingShipments).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending shipments")
	}
	if err := shipments().Where("status IN ?", inTransitStatuses).
		Count(&stats.InTransit).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count in-transit shipments")
	}
	if err := shipments().Where("status IN ?", []enums.ShipmentStatus{
		enums.ShipmentStatusDelivered,
		enums.ShipmentStatusCompleted,
	}).Count(&stats.Delivered).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count delivered shipments")
	}

	if err := couriers().Count(&stats.TotalDrivers).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count couriers")
	}
	if err := couriers().Where("status = ?", enums.CourierStatusActive).
		Count(&stats.ActiveDrivers).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active couriers")
	}

	total, err := s.sumCOD(ctx, shipments().Where("is_cod = ?", true))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum cod")
	}
	pending, err := s.sumCOD(ctx, shipments().
		Where("is_cod = ? AND cod_collected = ? AND cod_reconciled = ?", true, true, false))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum pending cod")
	}
	reconciled, err := s.sumCOD(ctx, shipments().
		Where("is_cod = ? AND cod_reconciled = ?", true, true))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum reconciled cod")
	}
	stats.TotalCODAmount = total
	stats.PendingCODAmount = pending
	stats.ReconciledCODAmount = reconciled

	return stats, nil
}

func (s *service) sumCOD(_ context.Context, query *gorm.DB) (decimal.Decimal, error) {
	var raw *string
	if err := query.Select("SUM(cod_amount)").Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}
