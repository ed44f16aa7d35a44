package runsheets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/internal/couriers"
	"github.com/logitrack/logitrack-backend/internal/shipments"
	"github.com/logitrack/logitrack-backend/internal/transitions"
	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreatedEvent is emitted when a run sheet is assembled.
type CreatedEvent struct {
	RunSheetID    uuid.UUID       `json:"run_sheet_id"`
	CourierID     uuid.UUID       `json:"courier_id"`
	ShipmentCount int             `json:"shipment_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
	CashToCollect decimal.Decimal `json:"cash_to_collect"`
	CardToCollect decimal.Decimal `json:"card_to_collect"`
}

// ScanEvent is emitted on scan-out and scan-in.
type ScanEvent struct {
	RunSheetID    uuid.UUID `json:"run_sheet_id"`
	CourierID     uuid.UUID `json:"courier_id"`
	ShipmentCount int       `json:"shipment_count"`
}

// Service manages run sheet assembly and the warehouse gate scans.
type Service interface {
	Create(ctx context.Context, courierID uuid.UUID, shipmentIDs []uuid.UUID) (*models.RunSheet, error)
	Get(ctx context.Context, id uuid.UUID) (*models.RunSheet, error)
	List(ctx context.Context, courierID *uuid.UUID) ([]models.RunSheet, error)
	ScanOut(ctx context.Context, id uuid.UUID) (*models.RunSheet, error)
	ScanIn(ctx context.Context, id uuid.UUID) (*models.RunSheet, error)
}

type service struct {
	repo      Repository
	shipments shipments.Repository
	couriers  couriers.Repository
	tx        txRunner
	outbox    outboxPublisher
	table     transitions.Table[enums.ShipmentStatus]
	now       func() time.Time
}

// NewService builds a run sheet service with the required dependencies.
func NewService(
	repo Repository,
	shipmentRepo shipments.Repository,
	courierRepo couriers.Repository,
	tx txRunner,
	ob outboxPublisher,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("run sheets repository required")
	}
	if shipmentRepo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if courierRepo == nil {
		return nil, fmt.Errorf("couriers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		shipments: shipmentRepo,
		couriers:  courierRepo,
		tx:        tx,
		outbox:    ob,
		table:     transitions.Shipment(),
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, courierID uuid.UUID, shipmentIDs []uuid.UUID) (*models.RunSheet, error) {
	if courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	if len(shipmentIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one shipment required")
	}

	var created *models.RunSheet
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sheetRepo := s.repo.WithTx(tx)
		shipmentRepo := s.shipments.WithTx(tx)
		courierRepo := s.couriers.WithTx(tx)

		courier, err := courierRepo.FindByID(ctx, courierID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
		}
		if courier.Status != enums.CourierStatusActive {
			return pkgerrors.New(pkgerrors.CodeConflict, "courier is not active")
		}

		batch, err := shipmentRepo.FindByIDs(ctx, shipmentIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipments")
		}
		if len(batch) != len(shipmentIDs) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "one or more shipments not found")
		}

		// Totals are frozen here. Delivery outcomes are later compared
		// against them, they never rewrite them.
		totalValue := decimal.Zero
		cashToCollect := decimal.Zero
		cardToCollect := decimal.Zero

		for _, shipment := range batch {
			if shipment.Status != enums.ShipmentStatusAssignedToChamp {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("shipment %s is not champ-assigned", shipment.TrackingNumber))
			}
			if shipment.CourierID == nil || *shipment.CourierID != courierID {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("shipment %s belongs to another courier", shipment.TrackingNumber))
			}
			if shipment.RunSheetID != nil {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("shipment %s is already on a run sheet", shipment.TrackingNumber))
			}

			totalValue = totalValue.Add(shipment.CODAmount)
			if shipment.IsCOD {
				switch shipment.PaymentMethod {
				case enums.PaymentMethodCash:
					cashToCollect = cashToCollect.Add(shipment.CODAmount)
				case enums.PaymentMethodCard:
					cardToCollect = cardToCollect.Add(shipment.CODAmount)
				}
			}
		}

		sheet := &models.RunSheet{
			CourierID:     courierID,
			TotalValue:    totalValue,
			CashToCollect: cashToCollect,
			CardToCollect: cardToCollect,
		}
		if _, err := sheetRepo.Create(ctx, sheet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create run sheet")
		}

		for i := range batch {
			shipment := &batch[i]
			rows, err := shipmentRepo.GuardedStatusUpdate(ctx, shipment.ID, enums.ShipmentStatusAssignedToChamp, map[string]any{
				"run_sheet_id": sheet.ID,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach shipment")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("shipment %s changed state during run sheet assembly", shipment.TrackingNumber))
			}
			shipment.RunSheetID = &sheet.ID
		}

		sheet.Shipments = batch
		created = sheet

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRunSheetCreated,
			AggregateType: enums.AggregateRunSheet,
			AggregateID:   sheet.ID,
			Version:       1,
			Data: CreatedEvent{
				RunSheetID:    sheet.ID,
				CourierID:     courierID,
				ShipmentCount: len(batch),
				TotalValue:    totalValue,
				CashToCollect: cashToCollect,
				CardToCollect: cardToCollect,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.RunSheet, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "run sheet id required")
	}
	sheet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "run sheet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load run sheet")
	}
	return sheet, nil
}

func (s *service) List(ctx context.Context, courierID *uuid.UUID) ([]models.RunSheet, error) {
	rows, err := s.repo.List(ctx, courierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list run sheets")
	}
	return rows, nil
}

func (s *service) ScanOut(ctx context.Context, id uuid.UUID) (*models.RunSheet, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "run sheet id required")
	}

	var scanned *models.RunSheet
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sheetRepo := s.repo.WithTx(tx)
		shipmentRepo := s.shipments.WithTx(tx)

		sheet, err := sheetRepo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "run sheet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load run sheet")
		}
		if sheet.ScannedOut {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "run sheet already scanned out")
		}

		now := s.now()
		rows, err := sheetRepo.MarkScannedOut(ctx, id, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark scanned out")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "run sheet was scanned out concurrently")
		}

		for i := range sheet.Shipments {
			shipment := &sheet.Shipments[i]
			if err := s.table.Ensure(shipment.Status, enums.ShipmentStatusOutForDelivery); err != nil {
				return err
			}
			rows, err := shipmentRepo.GuardedStatusUpdate(ctx, shipment.ID, shipment.Status, map[string]any{
				"status": enums.ShipmentStatusOutForDelivery,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move shipment out for delivery")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("shipment %s changed state during scan-out", shipment.TrackingNumber))
			}
			shipment.Status = enums.ShipmentStatusOutForDelivery
		}

		sheet.ScannedOut = true
		sheet.ScannedOutAt = &now
		scanned = sheet

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRunSheetScannedOut,
			AggregateType: enums.AggregateRunSheet,
			AggregateID:   sheet.ID,
			Version:       1,
			Data: ScanEvent{
				RunSheetID:    sheet.ID,
				CourierID:     sheet.CourierID,
				ShipmentCount: len(sheet.Shipments),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return scanned, nil
}

func (s *service) ScanIn(ctx context.Context, id uuid.UUID) (*models.RunSheet, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "run sheet id required")
	}

	var scanned *models.RunSheet
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sheetRepo := s.repo.WithTx(tx)

		sheet, err := sheetRepo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "run sheet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load run sheet")
		}
		if !sheet.ScannedOut {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "run sheet was never scanned out")
		}
		if sheet.ScannedIn {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "run sheet already scanned in")
		}
		for _, shipment := range sheet.Shipments {
			if shipment.Status == enums.ShipmentStatusOutForDelivery {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("shipment %s still has no recorded outcome", shipment.TrackingNumber))
			}
		}

		now := s.now()
		rows, err := sheetRepo.MarkScannedIn(ctx, id, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark scanned in")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "run sheet was scanned in concurrently")
		}

		sheet.ScannedIn = true
		sheet.ScannedInAt = &now
		scanned = sheet

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRunSheetScannedIn,
			AggregateType: enums.AggregateRunSheet,
			AggregateID:   sheet.ID,
			Version:       1,
			Data: ScanEvent{
				RunSheetID:    sheet.ID,
				CourierID:     sheet.CourierID,
				ShipmentCount: len(sheet.Shipments),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return scanned, nil
}
