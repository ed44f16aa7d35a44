package cod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

// ReconcileInput is the evening cash count for one shipment.
type ReconcileInput struct {
	AmountCollected decimal.Decimal
	Notes           *string
}

// ReconciledEvent is emitted when collected cash is settled at the warehouse.
type ReconciledEvent struct {
	ShipmentID      uuid.UUID       `json:"shipment_id"`
	TrackingNumber  string          `json:"tracking_number"`
	CODAmount       decimal.Decimal `json:"cod_amount"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
	CourierID       *uuid.UUID      `json:"courier_id,omitempty"`
}

// PendingSummary aggregates the outstanding COD liability.
type PendingSummary struct {
	Shipments   []models.Shipment `json:"shipments"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
}

// Service settles collected COD cash against the warehouse ledger.
type Service interface {
	ListPending(ctx context.Context, courierID *uuid.UUID) (*PendingSummary, error)
	Reconcile(ctx context.Context, shipmentID uuid.UUID, input ReconcileInput) (*models.Shipment, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds a COD service with the required dependencies.
func NewService(repo Repository, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cod repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: ob, now: time.Now}, nil
}

func (s *service) ListPending(ctx context.Context, courierID *uuid.UUID) (*PendingSummary, error) {
	rows, err := s.repo.ListPending(ctx, courierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending cod")
	}
	total := decimal.Zero
	for _, shipment := range rows {
		total = total.Add(shipment.CODAmount)
	}
	return &PendingSummary{Shipments: rows, TotalAmount: total}, nil
}

func (s *service) Reconcile(ctx context.Context, shipmentID uuid.UUID, input ReconcileInput) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if input.AmountCollected.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collected amount cannot be negative")
	}

	var settled *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindByID(ctx, shipmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if !shipment.IsCOD {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipment is not cash on delivery")
		}
		if !shipment.CODCollected {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cash has not been collected yet")
		}
		if shipment.CODReconciled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment is already reconciled")
		}

		// A short or over collection is never rejected or corrected here.
		// The ledger keeps the expected amount and records the gap in notes.
		notes := reconciliationNotes(shipment.CODAmount, input.AmountCollected, input.Notes)

		now := s.now()
		rows, err := repo.MarkReconciled(ctx, shipmentID, input.AmountCollected, notes, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reconciled")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment was reconciled by a concurrent request")
		}

		shipment.CODReconciled = true
		shipment.AmountCollected = input.AmountCollected
		shipment.ReconciliationNotes = notes
		shipment.ReconciledAt = &now
		settled = shipment

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCODReconciled,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Version:       1,
			Data: ReconciledEvent{
				ShipmentID:      shipment.ID,
				TrackingNumber:  shipment.TrackingNumber,
				CODAmount:       shipment.CODAmount,
				AmountCollected: input.AmountCollected,
				CourierID:       shipment.CourierID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

func reconciliationNotes(expected, collected decimal.Decimal, operatorNotes *string) *string {
	if collected.Equal(expected) {
		return operatorNotes
	}
	line := fmt.Sprintf("discrepancy: expected %s, collected %s", expected, collected)
	if operatorNotes != nil && strings.TrimSpace(*operatorNotes) != "" {
		line = line + "; " + strings.TrimSpace(*operatorNotes)
	}
	return &line
}
