package attempts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

// RecordInput is the doorstep outcome reported by the courier.
type RecordInput struct {
	Outcome          enums.AttemptOutcome
	PaymentCollected decimal.Decimal
	PaymentMethod    *enums.PaymentMethod
	Notes            *string
	RescheduledDate  *string

	ProofImage *string
	Latitude   *float64
	Longitude  *float64
}

// RecordedEvent is emitted for every recorded attempt.
type RecordedEvent struct {
	AttemptID      uuid.UUID            `json:"attempt_id"`
	ShipmentID     uuid.UUID            `json:"shipment_id"`
	TrackingNumber string               `json:"tracking_number"`
	Outcome        enums.AttemptOutcome `json:"outcome"`
	Status         enums.ShipmentStatus `json:"status"`
}

// Service records doorstep outcomes and derives the shipment status from them.
type Service interface {
	Record(ctx context.Context, shipmentID uuid.UUID, input RecordInput) (*models.DeliveryAttempt, error)
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.DeliveryAttempt, error)
}

type service struct {
	repo      Repository
	shipments shipments.Repository
	tx        txRunner
	outbox    outboxPublisher
	table     transitions.Table[enums.ShipmentStatus]
	now       func() time.Time
}

// NewService builds an attempts service with the required dependencies.
func NewService(repo Repository, shipmentRepo shipments.Repository, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("attempts repository required")
	}
	if shipmentRepo == nil {
		return nil, fmt.Errorf("shipments repository required")
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
		tx:        tx,
		outbox:    ob,
		table:     transitions.Shipment(),
		now:       time.Now,
	}, nil
}

func (s *service) Record(ctx context.Context, shipmentID uuid.UUID, input RecordInput) (*models.DeliveryAttempt, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if !input.Outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown attempt outcome").
			WithDetails(map[string]any{"outcome": string(input.Outcome)})
	}
	if input.Outcome == enums.AttemptOutcomeRescheduled {
		if input.RescheduledDate == nil || strings.TrimSpace(*input.RescheduledDate) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rescheduled outcome requires a date")
		}
		if err := shipments.ValidateRescheduleDate(*input.RescheduledDate, s.now()); err != nil {
			return nil, err
		}
	}

	var recorded *models.DeliveryAttempt
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		attemptRepo := s.repo.WithTx(tx)
		shipmentRepo := s.shipments.WithTx(tx)

		shipment, err := shipmentRepo.FindByID(ctx, shipmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if shipment.Status != enums.ShipmentStatusOutForDelivery {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "attempts can only be recorded while out for delivery")
		}

		target := input.Outcome.ShipmentStatus()
		if input.Outcome == enums.AttemptOutcomeDelivered && shipment.ShipmentType == enums.ShipmentTypePickup {
			target = enums.ShipmentStatusCompleted
		}
		if err := s.table.Ensure(shipment.Status, target); err != nil {
			return err
		}

		if err := validatePayment(shipment, input); err != nil {
			return err
		}

		now := s.now()
		updates := map[string]any{"status": target}
		switch target {
		case enums.ShipmentStatusDelivered:
			if input.ProofImage == nil || strings.TrimSpace(*input.ProofImage) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "delivered outcome requires a proof image")
			}
			if input.Latitude == nil || input.Longitude == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "delivered outcome requires geolocation")
			}
			updates["delivered_at"] = now
			updates["delivery_proof_image"] = *input.ProofImage
			updates["delivery_latitude"] = *input.Latitude
			updates["delivery_longitude"] = *input.Longitude
			updates["delivery_notes"] = input.Notes
			if shipment.IsCOD {
				updates["cod_collected"] = true
				updates["amount_collected"] = input.PaymentCollected
			}
		case enums.ShipmentStatusCompleted:
			updates["completed_at"] = now
			updates["delivery_notes"] = input.Notes
		case enums.ShipmentStatusRescheduled:
			updates["reschedule_date"] = input.RescheduledDate
		}

		rows, err := shipmentRepo.GuardedStatusUpdate(ctx, shipment.ID, enums.ShipmentStatusOutForDelivery, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply attempt outcome")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment changed state while recording the attempt")
		}

		attempt := &models.DeliveryAttempt{
			ShipmentID:       shipment.ID,
			RunSheetID:       shipment.RunSheetID,
			Outcome:          input.Outcome,
			PaymentCollected: input.PaymentCollected,
			PaymentMethod:    input.PaymentMethod,
			Notes:            input.Notes,
			RescheduledDate:  input.RescheduledDate,
		}
		if _, err := attemptRepo.Create(ctx, attempt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record attempt")
		}
		recorded = attempt

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAttemptRecorded,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Version:       1,
			Data: RecordedEvent{
				AttemptID:      attempt.ID,
				ShipmentID:     shipment.ID,
				TrackingNumber: shipment.TrackingNumber,
				Outcome:        input.Outcome,
				Status:         target,
			},
		}); err != nil {
			return err
		}
		if target == enums.ShipmentStatusDelivered && shipment.IsCOD {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCODCollected,
				AggregateType: enums.AggregateShipment,
				AggregateID:   shipment.ID,
				Version:       1,
				Data: map[string]any{
					"shipment_id":      shipment.ID,
					"tracking_number":  shipment.TrackingNumber,
					"cod_amount":       shipment.CODAmount,
					"amount_collected": input.PaymentCollected,
					"payment_method":   input.PaymentMethod,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

func (s *service) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.DeliveryAttempt, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if _, err := s.shipments.FindByID(ctx, shipmentID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	rows, err := s.repo.ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list attempts")
	}
	return rows, nil
}

// validatePayment checks how the collected amount was reported. Payment only
// accompanies a delivered outcome on a COD shipment, but the amount itself is
// recorded as given: a short collection is a ledger discrepancy settled at
// reconcile time, not a rejected doorstep outcome.
func validatePayment(shipment *models.Shipment, input RecordInput) error {
	if input.PaymentCollected.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "collected amount cannot be negative")
	}
	if input.Outcome != enums.AttemptOutcomeDelivered {
		if !input.PaymentCollected.IsZero() {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment can only accompany a delivered outcome")
		}
		return nil
	}
	if !shipment.IsCOD {
		if !input.PaymentCollected.IsZero() {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipment is not cash on delivery")
		}
		return nil
	}
	if input.PaymentMethod == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method required for COD collection")
	}
	if *input.PaymentMethod != enums.PaymentMethodCash && *input.PaymentMethod != enums.PaymentMethodCard {
		return pkgerrors.New(pkgerrors.CodeValidation, "COD is collected in cash or by card")
	}
	return nil
}
