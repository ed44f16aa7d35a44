package shipments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/internal/transitions"
	dbpkg "github.com/logitrack/logitrack-backend/pkg/db"
	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/outbox"
)

const awbMintAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateInput captures the fields required to register a shipment.
type CreateInput struct {
	ShipmentType       enums.ShipmentType
	PickupSubtype      *enums.PickupSubtype
	CustomerName       string
	CustomerPhone      string
	PickupAddress      string
	DeliveryAddress    *string
	PackageDescription string
	NumberOfItems      int
	Weight             *float64
	IsCOD              bool
	CODAmount          decimal.Decimal
	PaymentMethod      enums.PaymentMethod
}

// UpdateInput carries the editable shipment fields. Nil pointers leave the
// current value untouched.
type UpdateInput struct {
	CustomerName       *string
	CustomerPhone      *string
	PickupAddress      *string
	DeliveryAddress    *string
	PackageDescription *string
	NumberOfItems      *int
	Weight             *float64
}

// RescheduleInput sets a new target slot for an undeliverable shipment.
type RescheduleInput struct {
	Date   string
	Time   *string
	Reason *string
}

// ValidateRescheduleDate checks that a YYYY-MM-DD reschedule slot lands on a
// day after now. Same-day and past slots are rejected.
func ValidateRescheduleDate(value string, now time.Time) error {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "reschedule date must be a YYYY-MM-DD date")
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !date.After(today) {
		return pkgerrors.New(pkgerrors.CodeValidation, "reschedule date must be in the future")
	}
	return nil
}

// FollowUpInput is an append-only note on a shipment.
type FollowUpInput struct {
	Notes        string
	FollowUpDate *string
	CreatedBy    string
}

// ShipmentCreatedEvent is emitted when a shipment is registered.
type ShipmentCreatedEvent struct {
	ShipmentID     uuid.UUID           `json:"shipment_id"`
	TrackingNumber string              `json:"tracking_number"`
	ShipmentType   enums.ShipmentType  `json:"shipment_type"`
	IsCOD          bool                `json:"is_cod"`
	CODAmount      decimal.Decimal     `json:"cod_amount"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
}

// Service defines shipment lifecycle-independent operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Shipment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	GetByAWB(ctx context.Context, awb string) (*models.Shipment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Shipment, int64, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Shipment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reschedule(ctx context.Context, id uuid.UUID, input RescheduleInput) (*models.Shipment, error)
	AddFollowUp(ctx context.Context, shipmentID uuid.UUID, input FollowUpInput) (*models.FollowUp, error)
	ListFollowUps(ctx context.Context, shipmentID uuid.UUID) ([]models.FollowUp, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	table  transitions.Table[enums.ShipmentStatus]
	now    func() time.Time
}

// NewService builds a shipment service with the required dependencies.
func NewService(repo Repository, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: ob, table: transitions.Shipment(), now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Shipment, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	var created *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		shipment := &models.Shipment{
			ShipmentType:       input.ShipmentType,
			PickupSubtype:      input.PickupSubtype,
			CustomerName:       strings.TrimSpace(input.CustomerName),
			CustomerPhone:      strings.TrimSpace(input.CustomerPhone),
			PickupAddress:      strings.TrimSpace(input.PickupAddress),
			DeliveryAddress:    input.DeliveryAddress,
			PackageDescription: strings.TrimSpace(input.PackageDescription),
			NumberOfItems:      input.NumberOfItems,
			Weight:             input.Weight,
			IsCOD:              input.IsCOD,
			CODAmount:          input.CODAmount,
			PaymentMethod:      input.PaymentMethod,
			Status:             enums.ShipmentStatusPendingHandover,
		}

		var lastErr error
		for attempt := 0; attempt < awbMintAttempts; attempt++ {
			awb, err := GenerateTrackingNumber(s.now())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint tracking number")
			}
			shipment.TrackingNumber = awb
			if _, lastErr = repo.Create(ctx, shipment); lastErr == nil {
				break
			}
			if !dbpkg.IsUniqueViolation(lastErr, "tracking_number") {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "create shipment")
			}
		}
		if lastErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "tracking number collision persisted")
		}

		created = shipment
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentCreated,
			AggregateType: enums.AggregateShipment,
			AggregateID:   shipment.ID,
			Version:       1,
			Data: ShipmentCreatedEvent{
				ShipmentID:     shipment.ID,
				TrackingNumber: shipment.TrackingNumber,
				ShipmentType:   shipment.ShipmentType,
				IsCOD:          shipment.IsCOD,
				CODAmount:      shipment.CODAmount,
				PaymentMethod:  shipment.PaymentMethod,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func validateCreate(input *CreateInput) error {
	if !input.ShipmentType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment type")
	}
	if input.ShipmentType == enums.ShipmentTypePickup {
		if input.PickupSubtype == nil || !input.PickupSubtype.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "pickup shipments require a pickup subtype")
		}
	} else if input.PickupSubtype != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup subtype only applies to pickup shipments")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if strings.TrimSpace(input.PickupAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "pickup address required")
	}
	if strings.TrimSpace(input.PackageDescription) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "package description required")
	}
	if input.NumberOfItems <= 0 {
		input.NumberOfItems = 1
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.IsCOD {
		if !input.CODAmount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "COD shipments require a positive COD amount")
		}
		if input.PaymentMethod == enums.PaymentMethodPrepaid {
			return pkgerrors.New(pkgerrors.CodeValidation, "COD shipments cannot be prepaid")
		}
	} else {
		if input.CODAmount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "COD amount set on a non-COD shipment")
		}
		input.CODAmount = decimal.Zero
		input.PaymentMethod = enums.PaymentMethodPrepaid
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func (s *service) GetByAWB(ctx context.Context, awb string) (*models.Shipment, error) {
	awb = strings.TrimSpace(awb)
	if awb == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required")
	}
	shipment, err := s.repo.FindByAWB(ctx, awb)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Shipment, int64, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	return rows, total, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Shipment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}

	var updated *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if shipment.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment is closed and can no longer be edited")
		}

		if input.CustomerName != nil {
			shipment.CustomerName = strings.TrimSpace(*input.CustomerName)
		}
		if input.CustomerPhone != nil {
			shipment.CustomerPhone = strings.TrimSpace(*input.CustomerPhone)
		}
		if input.PickupAddress != nil {
			shipment.PickupAddress = strings.TrimSpace(*input.PickupAddress)
		}
		if input.DeliveryAddress != nil {
			shipment.DeliveryAddress = input.DeliveryAddress
		}
		if input.PackageDescription != nil {
			shipment.PackageDescription = strings.TrimSpace(*input.PackageDescription)
		}
		if input.NumberOfItems != nil {
			if *input.NumberOfItems <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "number of items must be positive")
			}
			shipment.NumberOfItems = *input.NumberOfItems
		}
		if input.Weight != nil {
			shipment.Weight = input.Weight
		}

		if err := repo.Save(ctx, shipment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipment")
		}
		updated = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if shipment.Status != enums.ShipmentStatusPendingHandover {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending shipments can be deleted")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shipment")
		}
		return nil
	})
}

func (s *service) Reschedule(ctx context.Context, id uuid.UUID, input RescheduleInput) (*models.Shipment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if strings.TrimSpace(input.Date) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reschedule date required")
	}
	if err := ValidateRescheduleDate(input.Date, s.now()); err != nil {
		return nil, err
	}

	var updated *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if shipment.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "closed shipments cannot be rescheduled")
		}

		shipment.RescheduleDate = &input.Date
		shipment.RescheduleTime = input.Time
		shipment.RescheduleReason = input.Reason
		// Shipments rescheduled before they go out keep their place in the
		// flow; only statuses with a legal edge move to rescheduled.
		if s.table.Allowed(shipment.Status, enums.ShipmentStatusRescheduled) {
			shipment.Status = enums.ShipmentStatusRescheduled
		}
		if err := repo.Save(ctx, shipment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save shipment")
		}
		updated = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) AddFollowUp(ctx context.Context, shipmentID uuid.UUID, input FollowUpInput) (*models.FollowUp, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if strings.TrimSpace(input.Notes) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "follow-up notes required")
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "follow-up author required")
	}

	var created *models.FollowUp
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, shipmentID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		followUp := &models.FollowUp{
			ShipmentID:   shipmentID,
			Notes:        strings.TrimSpace(input.Notes),
			FollowUpDate: input.FollowUpDate,
			CreatedBy:    strings.TrimSpace(input.CreatedBy),
		}
		if _, err := repo.CreateFollowUp(ctx, followUp); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create follow-up")
		}
		created = followUp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) ListFollowUps(ctx context.Context, shipmentID uuid.UUID) ([]models.FollowUp, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	rows, err := s.repo.ListFollowUps(ctx, shipmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list follow-ups")
	}
	return rows, nil
}
