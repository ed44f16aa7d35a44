package pickups

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/internal/couriers"
	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/outbox"
	"github.com/logitrack/logitrack-backend/pkg/types"
)

type testTx struct {
	db *gorm.DB
}

func (t *testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		panic("emit outside transaction")
	}
	r.events = append(r.events, event)
	return nil
}

type fixture struct {
	svc Service
	db  *gorm.DB
	ob  *recordingOutbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:pickups_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Pickup{},
		&models.PickupHistoryEntry{},
		&models.Courier{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ob := &recordingOutbox{}
	svc, err := NewService(NewRepository(db), couriers.NewRepository(db), &testTx{db: db}, ob)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, db: db, ob: ob}
}

func (f *fixture) seedCourier(t *testing.T, status enums.CourierStatus) *models.Courier {
	t.Helper()
	courier := &models.Courier{
		Name:          "champ",
		Phone:         "9",
		VehicleNumber: "DL1",
		VehicleType:   "bike",
		Status:        status,
	}
	if err := f.db.Create(courier).Error; err != nil {
		t.Fatalf("seed courier: %v", err)
	}
	return courier
}

func strptr(s string) *string { return &s }

func shoppingOrder() CreateInput {
	return CreateInput{
		Kind:          enums.PickupKindPersonalShopping,
		CustomerName:  "Asha",
		CustomerPhone: "9111",
		Address:       "14 Park Lane",
		ShoppingItems: []types.ShoppingItem{
			{ItemName: "Shirt", Value: decimal.RequireFromString("1000")},
			{ItemName: "Shoes", Value: decimal.RequireFromString("2000")},
		},
		Actor: "ops",
	}
}

func TestCreateDerivesShoppingTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pickup, err := f.svc.Create(ctx, shoppingOrder())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !pickup.TotalValue.Equal(decimal.RequireFromString("3000")) {
		t.Fatalf("total value = %s", pickup.TotalValue)
	}
	if pickup.Status != enums.PickupStatusPending {
		t.Fatalf("status = %s", pickup.Status)
	}

	history, err := f.svc.History(ctx, pickup.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Action != enums.PickupActionCreated {
		t.Fatalf("expected a created entry, got %+v", history)
	}
}

func TestCreateValidatesPerKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []CreateInput{
		{Kind: enums.PickupKindSeller, CustomerName: "a", CustomerPhone: "1", Address: "x"},
		{Kind: enums.PickupKindCustomerReturn, CustomerName: "a", CustomerPhone: "1", Address: "x"},
		{Kind: enums.PickupKindPersonalShopping, CustomerName: "a", CustomerPhone: "1", Address: "x"},
		{Kind: "warehouse_transfer", CustomerName: "a", CustomerPhone: "1", Address: "x"},
	}
	for _, input := range cases {
		if _, err := f.svc.Create(ctx, input); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("kind %s should fail validation, got %v", input.Kind, err)
		}
	}

	sellerOK := CreateInput{
		Kind:          enums.PickupKindSeller,
		CustomerName:  "a",
		CustomerPhone: "1",
		Address:       "x",
		SellerItems:   []types.SellerItem{{Category: "apparel", Quantity: 3}},
	}
	if _, err := f.svc.Create(ctx, sellerOK); err != nil {
		t.Fatalf("seller create: %v", err)
	}

	returnOK := CreateInput{
		Kind:          enums.PickupKindCustomerReturn,
		CustomerName:  "a",
		CustomerPhone: "1",
		Address:       "x",
		OriginalAWB:   strptr("LT20260801AABBCCDD"),
		ReturnReason:  strptr("wrong size"),
	}
	if _, err := f.svc.Create(ctx, returnOK); err != nil {
		t.Fatalf("return create: %v", err)
	}
}

func TestAssignRequiresActiveCourier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := f.seedCourier(t, enums.CourierStatusInactive)
	active := f.seedCourier(t, enums.CourierStatusActive)

	pickup, err := f.svc.Create(ctx, shoppingOrder())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Assign(ctx, pickup.ID, inactive.ID, "ops"); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("inactive courier should be rejected, got %v", err)
	}

	assigned, err := f.svc.Assign(ctx, pickup.ID, active.ID, "ops")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Status != enums.PickupStatusAssigned || assigned.CourierID == nil {
		t.Fatalf("assignment not recorded: %+v", assigned)
	}
}

func TestPartialDeliveryAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champ := f.seedCourier(t, enums.CourierStatusActive)

	pickup, err := f.svc.Create(ctx, shoppingOrder())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Assign(ctx, pickup.ID, champ.ID, "ops"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// round one: only the shirt reaches the customer
	first, err := f.svc.Complete(ctx, pickup.ID, CompleteInput{
		DeliveredItems: []int{0},
		ProofImage:     "round1.jpg",
		Latitude:       28.61,
		Longitude:      77.20,
		Actor:          "champ",
	})
	if err != nil {
		t.Fatalf("first round: %v", err)
	}
	if first.Status != enums.PickupStatusPartial {
		t.Fatalf("status after round one = %s", first.Status)
	}
	if !first.CollectedValue.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("collected after round one = %s", first.CollectedValue)
	}
	if !first.ShoppingItems[0].IsDelivered || first.ShoppingItems[1].IsDelivered {
		t.Fatalf("delivery flags wrong: %+v", first.ShoppingItems)
	}

	// delivering the shirt again must be rejected
	if _, err := f.svc.Complete(ctx, pickup.ID, CompleteInput{
		DeliveredItems: []int{0},
		ProofImage:     "dup.jpg",
		Latitude:       28.61,
		Longitude:      77.20,
	}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("re-delivering an item should fail, got %v", err)
	}

	// round two: the shoes close the order
	second, err := f.svc.Complete(ctx, pickup.ID, CompleteInput{
		DeliveredItems: []int{1},
		ProofImage:     "round2.jpg",
		Latitude:       28.61,
		Longitude:      77.20,
		Actor:          "champ",
	})
	if err != nil {
		t.Fatalf("second round: %v", err)
	}
	if second.Status != enums.PickupStatusCompleted {
		t.Fatalf("status after round two = %s", second.Status)
	}
	if !second.CollectedValue.Equal(second.TotalValue) {
		t.Fatalf("collected %s != total %s", second.CollectedValue, second.TotalValue)
	}

	history, err := f.svc.History(ctx, pickup.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var rounds []models.PickupHistoryEntry
	for _, entry := range history {
		if entry.Action == enums.PickupActionPartialDelivery || entry.Action == enums.PickupActionCompleted {
			rounds = append(rounds, entry)
		}
	}
	if len(rounds) != 2 {
		t.Fatalf("expected 2 delivery entries, got %d", len(rounds))
	}
	if !rounds[0].ValueCollected.Equal(decimal.RequireFromString("1000")) ||
		!rounds[1].ValueCollected.Equal(decimal.RequireFromString("2000")) {
		t.Fatalf("round values wrong: %s, %s", rounds[0].ValueCollected, rounds[1].ValueCollected)
	}
}

func TestCompleteWholeForSellerPickup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champ := f.seedCourier(t, enums.CourierStatusActive)

	pickup, err := f.svc.Create(ctx, CreateInput{
		Kind:          enums.PickupKindSeller,
		CustomerName:  "a",
		CustomerPhone: "1",
		Address:       "x",
		SellerItems:   []types.SellerItem{{Category: "apparel", Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Assign(ctx, pickup.ID, champ.ID, "ops"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	done, err := f.svc.Complete(ctx, pickup.ID, CompleteInput{
		ProofImage: "done.jpg",
		Latitude:   28.61,
		Longitude:  77.20,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != enums.PickupStatusCompleted {
		t.Fatalf("status = %s", done.Status)
	}

	// terminal: nothing moves after completion
	if _, err := f.svc.Cancel(ctx, pickup.ID, nil, "ops"); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("cancel after completion should fail, got %v", err)
	}
}

func TestCompleteRequiresProof(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pickup, err := f.svc.Create(ctx, shoppingOrder())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.Complete(ctx, pickup.ID, CompleteInput{DeliveredItems: []int{0}})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateShoppingItemsBeforeDeliveryOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champ := f.seedCourier(t, enums.CourierStatusActive)

	pickup, err := f.svc.Create(ctx, shoppingOrder())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.svc.UpdateShoppingItems(ctx, pickup.ID, []types.ShoppingItem{
		{ItemName: "Shirt", Value: decimal.RequireFromString("1200")},
	}, "ops")
	if err != nil {
		t.Fatalf("update items: %v", err)
	}
	if !updated.TotalValue.Equal(decimal.RequireFromString("1200")) {
		t.Fatalf("total after update = %s", updated.TotalValue)
	}

	if _, err := f.svc.Assign(ctx, pickup.ID, champ.ID, "ops"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.svc.Complete(ctx, pickup.ID, CompleteInput{
		DeliveredItems: []int{0},
		ProofImage:     "p.jpg",
		Latitude:       28.61,
		Longitude:      77.20,
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// completed now, items are frozen
	_, err = f.svc.UpdateShoppingItems(ctx, pickup.ID, []types.ShoppingItem{
		{ItemName: "Hat", Value: decimal.RequireFromString("300")},
	}, "ops")
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("items must freeze after delivery, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, shoppingOrder()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Create(ctx, CreateInput{
		Kind:          enums.PickupKindSeller,
		CustomerName:  "a",
		CustomerPhone: "1",
		Address:       "x",
		SellerItems:   []types.SellerItem{{Category: "apparel", Quantity: 1}},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	kind := enums.PickupKindSeller
	rows, err := f.svc.List(ctx, ListFilter{Kind: &kind})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Kind != enums.PickupKindSeller {
		t.Fatalf("kind filter failed: %+v", rows)
	}
}
