package pickups

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/internal/couriers"
	"github.com/logitrack/logitrack-backend/internal/transitions"
	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/outbox"
	"github.com/logitrack/logitrack-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateInput carries the kind-specific fields of a new pickup order.
type CreateInput struct {
	Kind          enums.PickupKind
	CustomerName  string
	CustomerPhone string
	Address       string

	SellerItems []types.SellerItem

	OriginalAWB  *string
	ReturnReason *string

	ShoppingItems []types.ShoppingItem

	Actor string
}

// CompleteInput closes out a delivery round at the customer's door.
type CompleteInput struct {
	// DeliveredItems are indexes into the shopping item list. Ignored for
	// seller pickups and customer returns, which complete as a whole.
	DeliveredItems []int

	ProofImage string
	Latitude   float64
	Longitude  float64
	Notes      *string
	Actor      string
}

// StatusEvent is the outbox payload for pickup lifecycle changes.
type StatusEvent struct {
	PickupID       uuid.UUID          `json:"pickup_id"`
	Kind           enums.PickupKind   `json:"kind"`
	Status         enums.PickupStatus `json:"status"`
	CourierID      *uuid.UUID         `json:"courier_id,omitempty"`
	CollectedValue decimal.Decimal    `json:"collected_value"`
	TotalValue     decimal.Decimal    `json:"total_value"`
}

// Service manages pickup orders across their three flows.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Pickup, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Pickup, error)
	List(ctx context.Context, filter ListFilter) ([]models.Pickup, error)
	Assign(ctx context.Context, id, courierID uuid.UUID, actor string) (*models.Pickup, error)
	UpdateShoppingItems(ctx context.Context, id uuid.UUID, items []types.ShoppingItem, actor string) (*models.Pickup, error)
	Complete(ctx context.Context, id uuid.UUID, input CompleteInput) (*models.Pickup, error)
	Cancel(ctx context.Context, id uuid.UUID, notes *string, actor string) (*models.Pickup, error)
	History(ctx context.Context, id uuid.UUID) ([]models.PickupHistoryEntry, error)
}

type service struct {
	repo     Repository
	couriers couriers.Repository
	tx       txRunner
	outbox   outboxPublisher
	table    transitions.Table[enums.PickupStatus]
	now      func() time.Time
}

// NewService builds a pickups service with the required dependencies.
func NewService(repo Repository, courierRepo couriers.Repository, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pickups repository required")
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
		repo:     repo,
		couriers: courierRepo,
		tx:       tx,
		outbox:   ob,
		table:    transitions.Pickup(),
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Pickup, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	pickup := &models.Pickup{
		Kind:          input.Kind,
		Status:        enums.PickupStatusPending,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		Address:       strings.TrimSpace(input.Address),
	}
	switch input.Kind {
	case enums.PickupKindSeller:
		pickup.SellerItems = input.SellerItems
	case enums.PickupKindCustomerReturn:
		pickup.OriginalAWB = input.OriginalAWB
		pickup.ReturnReason = input.ReturnReason
	case enums.PickupKindPersonalShopping:
		pickup.ShoppingItems = input.ShoppingItems
		pickup.TotalValue = sumItemValues(input.ShoppingItems)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, pickup); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pickup")
		}
		if err := repo.AppendHistory(ctx, &models.PickupHistoryEntry{
			PickupID: pickup.ID,
			Action:   enums.PickupActionCreated,
			Actor:    actorOrSystem(input.Actor),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPickupCreated,
			AggregateType: enums.AggregatePickup,
			AggregateID:   pickup.ID,
			Version:       1,
			Data:          statusEvent(pickup),
		})
	})
	if err != nil {
		return nil, err
	}
	return pickup, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Pickup, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	pickup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
	}
	return pickup, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Pickup, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pickups")
	}
	return rows, nil
}

func (s *service) Assign(ctx context.Context, id, courierID uuid.UUID, actor string) (*models.Pickup, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	if courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}

	var assigned *models.Pickup
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
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

		pickup, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}
		if err := s.table.Ensure(pickup.Status, enums.PickupStatusAssigned); err != nil {
			return err
		}

		rows, err := repo.GuardedStatusUpdate(ctx, pickup.ID, pickup.Status, map[string]any{
			"status":     enums.PickupStatusAssigned,
			"courier_id": courierID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign pickup")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup changed state during assignment")
		}

		pickup.Status = enums.PickupStatusAssigned
		pickup.CourierID = &courierID
		assigned = pickup

		if err := repo.AppendHistory(ctx, &models.PickupHistoryEntry{
			PickupID: pickup.ID,
			Action:   enums.PickupActionAssigned,
			Actor:    actorOrSystem(actor),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPickupAssigned,
			AggregateType: enums.AggregatePickup,
			AggregateID:   pickup.ID,
			Version:       1,
			Data:          statusEvent(pickup),
		})
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

func (s *service) UpdateShoppingItems(ctx context.Context, id uuid.UUID, items []types.ShoppingItem, actor string) (*models.Pickup, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	if err := validateShoppingItems(items); err != nil {
		return nil, err
	}

	var updated *models.Pickup
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pickup, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}
		if pickup.Kind != enums.PickupKindPersonalShopping {
			return pkgerrors.New(pkgerrors.CodeValidation, "only personal shopping orders carry shopping items")
		}
		if pickup.Status.IsTerminal() || pickup.Status == enums.PickupStatusPartial {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "items cannot change once deliveries have started")
		}

		for i := range items {
			items[i].IsDelivered = false
		}
		pickup.ShoppingItems = items
		pickup.TotalValue = sumItemValues(items)
		if err := repo.Save(ctx, pickup); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save pickup")
		}
		updated = pickup

		return repo.AppendHistory(ctx, &models.PickupHistoryEntry{
			PickupID: pickup.ID,
			Action:   enums.PickupActionItemsUpdated,
			Actor:    actorOrSystem(actor),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Complete(ctx context.Context, id uuid.UUID, input CompleteInput) (*models.Pickup, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	if strings.TrimSpace(input.ProofImage) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proof image required")
	}
	if input.Latitude == 0 && input.Longitude == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "geolocation required")
	}

	var closed *models.Pickup
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pickup, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}

		if pickup.Kind != enums.PickupKindPersonalShopping {
			return s.completeWhole(ctx, tx, repo, pickup, input)
		}
		return s.completeShopping(ctx, tx, repo, pickup, input)
	})
	if err != nil {
		return nil, err
	}
	closed, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload pickup")
	}
	return closed, nil
}

// completeWhole closes a seller pickup or customer return in one shot.
func (s *service) completeWhole(ctx context.Context, tx *gorm.DB, repo Repository, pickup *models.Pickup, input CompleteInput) error {
	if err := s.table.Ensure(pickup.Status, enums.PickupStatusCompleted); err != nil {
		return err
	}
	rows, err := repo.GuardedStatusUpdate(ctx, pickup.ID, pickup.Status, map[string]any{
		"status": enums.PickupStatusCompleted,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete pickup")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup changed state during completion")
	}
	pickup.Status = enums.PickupStatusCompleted

	if err := repo.AppendHistory(ctx, &models.PickupHistoryEntry{
		PickupID:   pickup.ID,
		Action:     enums.PickupActionCompleted,
		ProofImage: &input.ProofImage,
		Latitude:   &input.Latitude,
		Longitude:  &input.Longitude,
		Notes:      input.Notes,
		Actor:      actorOrSystem(input.Actor),
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPickupCompleted,
		AggregateType: enums.AggregatePickup,
		AggregateID:   pickup.ID,
		Version:       1,
		Data:          statusEvent(pickup),
	})
}

// completeShopping delivers a subset of the shopping items. The order stays
// partial until every item is delivered, and collected_value accumulates the
// value of each item exactly once.
func (s *service) completeShopping(ctx context.Context, tx *gorm.DB, repo Repository, pickup *models.Pickup, input CompleteInput) error {
	if len(input.DeliveredItems) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one delivered item required")
	}

	delivered := decimal.Zero
	seen := make(map[int]struct{}, len(input.DeliveredItems))
	for _, idx := range input.DeliveredItems {
		if idx < 0 || idx >= len(pickup.ShoppingItems) {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivered item index out of range").
				WithDetails(map[string]any{"index": idx})
		}
		if _, dup := seen[idx]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate delivered item index").
				WithDetails(map[string]any{"index": idx})
		}
		seen[idx] = struct{}{}
		if pickup.ShoppingItems[idx].IsDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("item %q was already delivered", pickup.ShoppingItems[idx].ItemName))
		}
		delivered = delivered.Add(pickup.ShoppingItems[idx].Value)
	}

	allDelivered := true
	for i := range pickup.ShoppingItems {
		if _, ok := seen[i]; ok {
			continue
		}
		if !pickup.ShoppingItems[i].IsDelivered {
			allDelivered = false
			break
		}
	}
	target := enums.PickupStatusPartial
	action := enums.PickupActionPartialDelivery
	eventType := enums.EventPickupPartial
	if allDelivered {
		target = enums.PickupStatusCompleted
		action = enums.PickupActionCompleted
		eventType = enums.EventPickupCompleted
	}
	if err := s.table.Ensure(pickup.Status, target); err != nil {
		return err
	}

	collected := pickup.CollectedValue.Add(delivered)
	if collected.GreaterThan(pickup.TotalValue) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "collected value would exceed the order total")
	}

	from := pickup.Status
	rows, err := repo.GuardedStatusUpdate(ctx, pickup.ID, from, map[string]any{
		"status": target,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply delivery round")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup changed state during the delivery round")
	}

	for idx := range seen {
		pickup.ShoppingItems[idx].IsDelivered = true
	}
	pickup.Status = target
	pickup.CollectedValue = collected
	// Save runs the JSON serializer for the item list, which a map update
	// would bypass.
	if err := repo.Save(ctx, pickup); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save delivery round")
	}

	if err := repo.AppendHistory(ctx, &models.PickupHistoryEntry{
		PickupID:       pickup.ID,
		Action:         action,
		ItemsDelivered: input.DeliveredItems,
		ValueCollected: delivered,
		ProofImage:     &input.ProofImage,
		Latitude:       &input.Latitude,
		Longitude:      &input.Longitude,
		Notes:          input.Notes,
		Actor:          actorOrSystem(input.Actor),
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePickup,
		AggregateID:   pickup.ID,
		Version:       1,
		Data:          statusEvent(pickup),
	})
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, notes *string, actor string) (*models.Pickup, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}

	var cancelled *models.Pickup
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pickup, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
		}
		if err := s.table.Ensure(pickup.Status, enums.PickupStatusCancelled); err != nil {
			return err
		}

		rows, err := repo.GuardedStatusUpdate(ctx, pickup.ID, pickup.Status, map[string]any{
			"status": enums.PickupStatusCancelled,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel pickup")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup changed state during cancellation")
		}

		pickup.Status = enums.PickupStatusCancelled
		cancelled = pickup

		if err := repo.AppendHistory(ctx, &models.PickupHistoryEntry{
			PickupID: pickup.ID,
			Action:   enums.PickupActionCancelled,
			Notes:    notes,
			Actor:    actorOrSystem(actor),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPickupCancelled,
			AggregateType: enums.AggregatePickup,
			AggregateID:   pickup.ID,
			Version:       1,
			Data:          statusEvent(pickup),
		})
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) History(ctx context.Context, id uuid.UUID) ([]models.PickupHistoryEntry, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup")
	}
	rows, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}
	return rows, nil
}

func validateCreate(input CreateInput) error {
	if !input.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown pickup kind").
			WithDetails(map[string]any{"kind": string(input.Kind)})
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address required")
	}

	switch input.Kind {
	case enums.PickupKindSeller:
		if len(input.SellerItems) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "seller pickup requires at least one item")
		}
		for _, item := range input.SellerItems {
			if strings.TrimSpace(item.Category) == "" || item.Quantity <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "seller items need a category and a positive quantity")
			}
		}
	case enums.PickupKindCustomerReturn:
		if input.OriginalAWB == nil || strings.TrimSpace(*input.OriginalAWB) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer return requires the original tracking number")
		}
	case enums.PickupKindPersonalShopping:
		if err := validateShoppingItems(input.ShoppingItems); err != nil {
			return err
		}
	}
	return nil
}

func validateShoppingItems(items []types.ShoppingItem) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "personal shopping requires at least one item")
	}
	for _, item := range items {
		if strings.TrimSpace(item.ItemName) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "shopping items need a name")
		}
		if !item.Value.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "shopping item values must be positive")
		}
	}
	return nil
}

func sumItemValues(items []types.ShoppingItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Value)
	}
	return total
}

func statusEvent(pickup *models.Pickup) StatusEvent {
	return StatusEvent{
		PickupID:       pickup.ID,
		Kind:           pickup.Kind,
		Status:         pickup.Status,
		CourierID:      pickup.CourierID,
		CollectedValue: pickup.CollectedValue,
		TotalValue:     pickup.TotalValue,
	}
}

func actorOrSystem(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return "system"
	}
	return actor
}
