package logistics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/internal/bins"
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

// DeliveryProof is the photographic + geolocation evidence required to close
// a delivery shipment.
type DeliveryProof struct {
	Image     string
	Latitude  float64
	Longitude float64
	Notes     *string
}

// StatusChangedEvent is emitted whenever a shipment moves through the lifecycle.
type StatusChangedEvent struct {
	ShipmentID     uuid.UUID            `json:"shipment_id"`
	TrackingNumber string               `json:"tracking_number"`
	From           enums.ShipmentStatus `json:"from"`
	To             enums.ShipmentStatus `json:"to"`
	CourierID      *uuid.UUID           `json:"courier_id,omitempty"`
	BinLocationID  *uuid.UUID           `json:"bin_location_id,omitempty"`
}

// Service applies shipment lifecycle transitions.
type Service interface {
	InScan(ctx context.Context, awb string) (*models.Shipment, error)
	AssignToBin(ctx context.Context, shipmentIDs []uuid.UUID, binID uuid.UUID) ([]models.Shipment, error)
	AssignToChamp(ctx context.Context, shipmentIDs []uuid.UUID, champID uuid.UUID) ([]models.Shipment, error)
	Unassign(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	ReturnToWarehouse(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	ReturnToWarehouseBatch(ctx context.Context, shipmentIDs []uuid.UUID) ([]models.Shipment, error)
	MarkDelivered(ctx context.Context, shipmentID uuid.UUID, proof DeliveryProof) (*models.Shipment, error)
	MarkPickupCompleted(ctx context.Context, shipmentID uuid.UUID, notes *string) (*models.Shipment, error)
}

type service struct {
	shipments shipments.Repository
	bins      bins.Repository
	couriers  couriers.Repository
	tx        txRunner
	outbox    outboxPublisher
	table     transitions.Table[enums.ShipmentStatus]
	now       func() time.Time
}

// NewService builds a logistics service with the required dependencies.
func NewService(
	shipmentRepo shipments.Repository,
	binRepo bins.Repository,
	courierRepo couriers.Repository,
	tx txRunner,
	ob outboxPublisher,
) (Service, error) {
	if shipmentRepo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if binRepo == nil {
		return nil, fmt.Errorf("bins repository required")
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
		shipments: shipmentRepo,
		bins:      binRepo,
		couriers:  courierRepo,
		tx:        tx,
		outbox:    ob,
		table:     transitions.Shipment(),
		now:       time.Now,
	}, nil
}

func (s *service) InScan(ctx context.Context, awb string) (*models.Shipment, error) {
	awb = strings.TrimSpace(awb)
	if awb == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required")
	}

	var scanned *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.shipments.WithTx(tx)
		shipment, err := repo.FindByAWB(ctx, awb)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if err := s.table.Ensure(shipment.Status, enums.ShipmentStatusInScanned); err != nil {
			return err
		}

		now := s.now()
		rows, err := repo.GuardedStatusUpdate(ctx, shipment.ID, shipment.Status, map[string]any{
			"status":        enums.ShipmentStatusInScanned,
			"in_scanned_at": now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply in-scan")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment was scanned by a concurrent request")
		}

		from := shipment.Status
		shipment.Status = enums.ShipmentStatusInScanned
		shipment.InScannedAt = &now
		scanned = shipment

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentInScanned,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Version:       1,
			Data: StatusChangedEvent{
				ShipmentID:     shipment.ID,
				TrackingNumber: shipment.TrackingNumber,
				From:           from,
				To:             enums.ShipmentStatusInScanned,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return scanned, nil
}

func (s *service) AssignToBin(ctx context.Context, shipmentIDs []uuid.UUID, binID uuid.UUID) ([]models.Shipment, error) {
	if len(shipmentIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one shipment required")
	}
	if binID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bin id required")
	}
	if hasDuplicates(shipmentIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate shipment ids in batch")
	}

	var assigned []models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shipmentRepo := s.shipments.WithTx(tx)
		binRepo := s.bins.WithTx(tx)

		bin, err := binRepo.FindByID(ctx, binID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bin not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bin")
		}

		batch, err := shipmentRepo.FindByIDs(ctx, shipmentIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipments")
		}
		if len(batch) != len(shipmentIDs) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "one or more shipments not found")
		}
		for _, shipment := range batch {
			if err := s.table.Ensure(shipment.Status, enums.ShipmentStatusAssignedToBin); err != nil {
				return err
			}
		}

		// The guarded increment carries the capacity check, so two
		// concurrent batches cannot overshoot the bin.
		rows, err := binRepo.ReserveSlots(ctx, binID, len(batch))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve bin slots")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeCapacity,
				fmt.Sprintf("bin %s cannot hold %d more shipments", bin.Name, len(batch)))
		}

		for i := range batch {
			shipment := &batch[i]
			from := shipment.Status
			rows, err := shipmentRepo.GuardedStatusUpdate(ctx, shipment.ID, from, map[string]any{
				"status":          enums.ShipmentStatusAssignedToBin,
				"bin_location_id": binID,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign shipment to bin")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("shipment %s changed state during assignment", shipment.TrackingNumber))
			}

			shipment.Status = enums.ShipmentStatusAssignedToBin
			shipment.BinLocationID = &binID

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventShipmentBinned,
				AggregateType: enums.AggregateShipment,
				AggregateID:   shipment.ID,
				Version:       1,
				Data: StatusChangedEvent{
					ShipmentID:     shipment.ID,
					TrackingNumber: shipment.TrackingNumber,
					From:           from,
					To:             enums.ShipmentStatusAssignedToBin,
					BinLocationID:  &binID,
				},
			}); err != nil {
				return err
			}
		}

		assigned = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

func (s *service) AssignToChamp(ctx context.Context, shipmentIDs []uuid.UUID, champID uuid.UUID) ([]models.Shipment, error) {
	if len(shipmentIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one shipment required")
	}
	if champID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "champ id required")
	}
	if hasDuplicates(shipmentIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate shipment ids in batch")
	}

	var assigned []models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shipmentRepo := s.shipments.WithTx(tx)
		binRepo := s.bins.WithTx(tx)
		courierRepo := s.couriers.WithTx(tx)

		champ, err := courierRepo.FindByID(ctx, champID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "champ not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load champ")
		}
		if champ.Status != enums.CourierStatusActive {
			return pkgerrors.New(pkgerrors.CodeConflict, "champ is not active")
		}

		batch, err := shipmentRepo.FindByIDs(ctx, shipmentIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipments")
		}
		if len(batch) != len(shipmentIDs) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "one or more shipments not found")
		}

		for i := range batch {
			shipment := &batch[i]
			from := shipment.Status
			if err := s.table.Ensure(from, enums.ShipmentStatusAssignedToChamp); err != nil {
				return err
			}
			if shipment.RunSheetID != nil {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("shipment %s is still attached to a run sheet", shipment.TrackingNumber))
			}

			rows, err := shipmentRepo.GuardedStatusUpdate(ctx, shipment.ID, from, map[string]any{
				"status":          enums.ShipmentStatusAssignedToChamp,
				"courier_id":      champID,
				"bin_location_id": nil,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign shipment to champ")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("shipment %s changed state during assignment", shipment.TrackingNumber))
			}

			// leaving a bin frees its slot inside the same transaction
			if from == enums.ShipmentStatusAssignedToBin && shipment.BinLocationID != nil {
				if err := binRepo.ReleaseSlots(ctx, *shipment.BinLocationID, 1); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release bin slot")
				}
			}

			shipment.Status = enums.ShipmentStatusAssignedToChamp
			shipment.CourierID = &champID
			shipment.BinLocationID = nil

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventShipmentAssigned,
				AggregateType: enums.AggregateShipment,
				AggregateID:   shipment.ID,
				Version:       1,
				Data: StatusChangedEvent{
					ShipmentID:     shipment.ID,
					TrackingNumber: shipment.TrackingNumber,
					From:           from,
					To:             enums.ShipmentStatusAssignedToChamp,
					CourierID:      &champID,
				},
			}); err != nil {
				return err
			}
		}

		assigned = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

func (s *service) Unassign(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}

	var updated *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.shipments.WithTx(tx)
		shipment, err := repo.FindByID(ctx, shipmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if shipment.Status != enums.ShipmentStatusAssignedToChamp {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only champ-assigned shipments can be unassigned")
		}
		if shipment.RunSheetID != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "shipment is attached to a run sheet")
		}

		rows, err := repo.GuardedStatusUpdate(ctx, shipment.ID, shipment.Status, map[string]any{
			"status":     enums.ShipmentStatusInScanned,
			"courier_id": nil,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unassign shipment")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment changed state during unassignment")
		}

		shipment.Status = enums.ShipmentStatusInScanned
		shipment.CourierID = nil
		updated = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ReturnToWarehouse(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}

	var updated *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.shipments.WithTx(tx)
		shipment, err := repo.FindByID(ctx, shipmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if err := s.table.Ensure(shipment.Status, enums.ShipmentStatusReturnedToWH); err != nil {
			return err
		}

		from := shipment.Status
		rows, err := repo.GuardedStatusUpdate(ctx, shipment.ID, from, map[string]any{
			"status":       enums.ShipmentStatusReturnedToWH,
			"courier_id":   nil,
			"run_sheet_id": nil,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return shipment")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment changed state during return")
		}

		shipment.Status = enums.ShipmentStatusReturnedToWH
		shipment.CourierID = nil
		shipment.RunSheetID = nil
		updated = shipment

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentReturned,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Version:       1,
			Data: StatusChangedEvent{
				ShipmentID:     shipment.ID,
				TrackingNumber: shipment.TrackingNumber,
				From:           from,
				To:             enums.ShipmentStatusReturnedToWH,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReturnToWarehouseBatch moves a set of failed or rescheduled shipments back
// into warehouse custody in one transaction. All or nothing.
func (s *service) ReturnToWarehouseBatch(ctx context.Context, shipmentIDs []uuid.UUID) ([]models.Shipment, error) {
	if len(shipmentIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one shipment required")
	}
	if hasDuplicates(shipmentIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate shipment ids in batch")
	}

	var returned []models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.shipments.WithTx(tx)

		batch, err := repo.FindByIDs(ctx, shipmentIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipments")
		}
		if len(batch) != len(shipmentIDs) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "one or more shipments not found")
		}

		for i := range batch {
			shipment := &batch[i]
			from := shipment.Status
			if err := s.table.Ensure(from, enums.ShipmentStatusReturnedToWH); err != nil {
				return err
			}

			rows, err := repo.GuardedStatusUpdate(ctx, shipment.ID, from, map[string]any{
				"status":       enums.ShipmentStatusReturnedToWH,
				"courier_id":   nil,
				"run_sheet_id": nil,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return shipment")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("shipment %s changed state during return", shipment.TrackingNumber))
			}

			shipment.Status = enums.ShipmentStatusReturnedToWH
			shipment.CourierID = nil
			shipment.RunSheetID = nil

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventShipmentReturned,
				AggregateType: enums.AggregateShipment,
				AggregateID:   shipment.ID,
				Version:       1,
				Data: StatusChangedEvent{
					ShipmentID:     shipment.ID,
					TrackingNumber: shipment.TrackingNumber,
					From:           from,
					To:             enums.ShipmentStatusReturnedToWH,
				},
			}); err != nil {
				return err
			}
		}

		returned = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return returned, nil
}

func (s *service) MarkDelivered(ctx context.Context, shipmentID uuid.UUID, proof DeliveryProof) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if strings.TrimSpace(proof.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery proof image required")
	}
	if proof.Latitude == 0 && proof.Longitude == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery geolocation required")
	}

	var updated *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.shipments.WithTx(tx)
		shipment, err := repo.FindByID(ctx, shipmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if shipment.ShipmentType != enums.ShipmentTypeDelivery {
			return pkgerrors.New(pkgerrors.CodeValidation, "pickup shipments complete via pickup-completed")
		}
		if err := s.table.Ensure(shipment.Status, enums.ShipmentStatusDelivered); err != nil {
			return err
		}

		now := s.now()
		from := shipment.Status
		updates := map[string]any{
			"status":               enums.ShipmentStatusDelivered,
			"delivered_at":         now,
			"delivery_proof_image": proof.Image,
			"delivery_latitude":    proof.Latitude,
			"delivery_longitude":   proof.Longitude,
			"delivery_notes":       proof.Notes,
		}
		if shipment.IsCOD {
			updates["cod_collected"] = true
		}
		rows, err := repo.GuardedStatusUpdate(ctx, shipment.ID, from, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark delivered")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment changed state during delivery")
		}

		shipment.Status = enums.ShipmentStatusDelivered
		shipment.DeliveredAt = &now
		shipment.DeliveryProofImage = &proof.Image
		shipment.DeliveryLatitude = &proof.Latitude
		shipment.DeliveryLongitude = &proof.Longitude
		shipment.DeliveryNotes = proof.Notes
		if shipment.IsCOD {
			shipment.CODCollected = true
		}
		updated = shipment

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentDelivered,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Version:       1,
			Data: StatusChangedEvent{
				ShipmentID:     shipment.ID,
				TrackingNumber: shipment.TrackingNumber,
				From:           from,
				To:             enums.ShipmentStatusDelivered,
				CourierID:      shipment.CourierID,
			},
		}); err != nil {
			return err
		}
		if shipment.IsCOD {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCODCollected,
				AggregateType: enums.AggregateShipment,
				AggregateID:   shipment.ID,
				Version:       1,
				Data: map[string]any{
					"shipment_id":     shipment.ID,
					"tracking_number": shipment.TrackingNumber,
					"cod_amount":      shipment.CODAmount,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) MarkPickupCompleted(ctx context.Context, shipmentID uuid.UUID, notes *string) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}

	var updated *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.shipments.WithTx(tx)
		shipment, err := repo.FindByID(ctx, shipmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if shipment.ShipmentType != enums.ShipmentTypePickup {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery shipments close via mark-delivered")
		}
		if err := s.table.Ensure(shipment.Status, enums.ShipmentStatusCompleted); err != nil {
			return err
		}

		now := s.now()
		from := shipment.Status
		rows, err := repo.GuardedStatusUpdate(ctx, shipment.ID, from, map[string]any{
			"status":         enums.ShipmentStatusCompleted,
			"completed_at":   now,
			"delivery_notes": notes,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete pickup")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment changed state during completion")
		}

		shipment.Status = enums.ShipmentStatusCompleted
		shipment.CompletedAt = &now
		shipment.DeliveryNotes = notes
		updated = shipment

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentDelivered,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Version:       1,
			Data: StatusChangedEvent{
				ShipmentID:     shipment.ID,
				TrackingNumber: shipment.TrackingNumber,
				From:           from,
				To:             enums.ShipmentStatusCompleted,
				CourierID:      shipment.CourierID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func hasDuplicates(ids []uuid.UUID) bool {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
