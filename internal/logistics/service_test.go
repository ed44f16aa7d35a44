package logistics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/internal/bins"
	"github.com/logitrack/logitrack-backend/internal/couriers"
	"github.com/logitrack/logitrack-backend/internal/shipments"
	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/outbox"
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
	dsn := "file:logistics_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Shipment{},
		&models.BinLocation{},
		&models.Courier{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ob := &recordingOutbox{}
	svc, err := NewService(
		shipments.NewRepository(db),
		bins.NewRepository(db),
		couriers.NewRepository(db),
		&testTx{db: db},
		ob,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, db: db, ob: ob}
}

func (f *fixture) seedShipment(t *testing.T, awb string, status enums.ShipmentStatus) *models.Shipment {
	t.Helper()
	shipment := &models.Shipment{
		TrackingNumber:     awb,
		ShipmentType:       enums.ShipmentTypeDelivery,
		CustomerName:       "x",
		CustomerPhone:      "x",
		PickupAddress:      "x",
		PackageDescription: "x",
		NumberOfItems:      1,
		PaymentMethod:      enums.PaymentMethodPrepaid,
		CODAmount:          decimal.Zero,
		Status:             status,
	}
	if err := f.db.Create(shipment).Error; err != nil {
		t.Fatalf("seed shipment: %v", err)
	}
	return shipment
}

func (f *fixture) seedBin(t *testing.T, name string, capacity int) *models.BinLocation {
	t.Helper()
	bin := &models.BinLocation{Name: name, Route: "south", Capacity: capacity}
	if err := f.db.Create(bin).Error; err != nil {
		t.Fatalf("seed bin: %v", err)
	}
	return bin
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

func (f *fixture) binCount(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var bin models.BinLocation
	if err := f.db.First(&bin, "id = ?", id).Error; err != nil {
		t.Fatalf("load bin: %v", err)
	}
	return bin.CurrentCount
}

func TestInScanHappyPathAndDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedShipment(t, "LT20250301AAAA0001", enums.ShipmentStatusPendingHandover)

	scanned, err := f.svc.InScan(ctx, "LT20250301AAAA0001")
	if err != nil {
		t.Fatalf("in-scan: %v", err)
	}
	if scanned.Status != enums.ShipmentStatusInScanned || scanned.InScannedAt == nil {
		t.Fatalf("unexpected state after in-scan: %+v", scanned)
	}

	_, err = f.svc.InScan(ctx, "LT20250301AAAA0001")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected invalid transition on duplicate scan, got %v", err)
	}
}

func TestInScanUnknownAWB(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.InScan(context.Background(), "LT20250301MISSING1")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAssignToBinAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bin := f.seedBin(t, "BIN-A", 1)
	first := f.seedShipment(t, "LT20250301AAAA0001", enums.ShipmentStatusInScanned)
	second := f.seedShipment(t, "LT20250301AAAA0002", enums.ShipmentStatusInScanned)

	_, err := f.svc.AssignToBin(ctx, []uuid.UUID{first.ID, second.ID}, bin.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCapacity {
		t.Fatalf("expected capacity error, got %v", err)
	}

	// nothing applied
	if got := f.binCount(t, bin.ID); got != 0 {
		t.Fatalf("expected bin untouched, count=%d", got)
	}
	var check models.Shipment
	if err := f.db.First(&check, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("load shipment: %v", err)
	}
	if check.Status != enums.ShipmentStatusInScanned {
		t.Fatalf("expected shipment untouched, got %s", check.Status)
	}

	assigned, err := f.svc.AssignToBin(ctx, []uuid.UUID{first.ID}, bin.ID)
	if err != nil {
		t.Fatalf("assign single: %v", err)
	}
	if assigned[0].Status != enums.ShipmentStatusAssignedToBin {
		t.Fatalf("expected assigned_to_bin, got %s", assigned[0].Status)
	}
	if got := f.binCount(t, bin.ID); got != 1 {
		t.Fatalf("expected bin count 1, got %d", got)
	}
}

func TestAssignToBinRequiresInScanned(t *testing.T) {
	f := newFixture(t)
	bin := f.seedBin(t, "BIN-A", 10)
	pending := f.seedShipment(t, "LT20250301AAAA0003", enums.ShipmentStatusPendingHandover)

	_, err := f.svc.AssignToBin(context.Background(), []uuid.UUID{pending.ID}, bin.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestAssignToChampReleasesBinSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bin := f.seedBin(t, "BIN-A", 5)
	champ := f.seedCourier(t, enums.CourierStatusActive)
	shipment := f.seedShipment(t, "LT20250301AAAA0004", enums.ShipmentStatusInScanned)

	if _, err := f.svc.AssignToBin(ctx, []uuid.UUID{shipment.ID}, bin.ID); err != nil {
		t.Fatalf("assign to bin: %v", err)
	}
	assigned, err := f.svc.AssignToChamp(ctx, []uuid.UUID{shipment.ID}, champ.ID)
	if err != nil {
		t.Fatalf("assign to champ: %v", err)
	}
	if assigned[0].Status != enums.ShipmentStatusAssignedToChamp {
		t.Fatalf("expected assigned_to_champ, got %s", assigned[0].Status)
	}
	if assigned[0].CourierID == nil || *assigned[0].CourierID != champ.ID {
		t.Fatal("expected courier set")
	}
	if got := f.binCount(t, bin.ID); got != 0 {
		t.Fatalf("expected bin slot released, count=%d", got)
	}
}

func TestAssignToChampRejectsInactive(t *testing.T) {
	f := newFixture(t)
	champ := f.seedCourier(t, enums.CourierStatusInactive)
	shipment := f.seedShipment(t, "LT20250301AAAA0005", enums.ShipmentStatusAssignedToBin)

	_, err := f.svc.AssignToChamp(context.Background(), []uuid.UUID{shipment.ID}, champ.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestReassignFromUndeliverableState(t *testing.T) {
	f := newFixture(t)
	champ := f.seedCourier(t, enums.CourierStatusActive)
	shipment := f.seedShipment(t, "LT20250301AAAA0006", enums.ShipmentStatusNoResponse)

	assigned, err := f.svc.AssignToChamp(context.Background(), []uuid.UUID{shipment.ID}, champ.ID)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if assigned[0].Status != enums.ShipmentStatusAssignedToChamp {
		t.Fatalf("expected assigned_to_champ, got %s", assigned[0].Status)
	}
}

func TestUnassignReturnsToPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champ := f.seedCourier(t, enums.CourierStatusActive)
	shipment := f.seedShipment(t, "LT20250301AAAA0007", enums.ShipmentStatusAssignedToBin)

	if _, err := f.svc.AssignToChamp(ctx, []uuid.UUID{shipment.ID}, champ.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	updated, err := f.svc.Unassign(ctx, shipment.ID)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if updated.Status != enums.ShipmentStatusInScanned || updated.CourierID != nil {
		t.Fatalf("unexpected state after unassign: %+v", updated)
	}
}

func TestReturnToWarehouseClearsCustody(t *testing.T) {
	f := newFixture(t)
	shipment := f.seedShipment(t, "LT20250301AAAA0008", enums.ShipmentStatusNoResponse)

	updated, err := f.svc.ReturnToWarehouse(context.Background(), shipment.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if updated.Status != enums.ShipmentStatusReturnedToWH {
		t.Fatalf("expected returned_to_wh, got %s", updated.Status)
	}

	_, err = f.svc.ReturnToWarehouse(context.Background(), shipment.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestReturnToWarehouseBatchAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.seedShipment(t, "LT20250301AAAA0020", enums.ShipmentStatusNoResponse)
	second := f.seedShipment(t, "LT20250301AAAA0021", enums.ShipmentStatusRescheduled)
	delivered := f.seedShipment(t, "LT20250301AAAA0022", enums.ShipmentStatusDelivered)

	_, err := f.svc.ReturnToWarehouseBatch(ctx, []uuid.UUID{first.ID, delivered.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	// the delivered shipment poisoned the batch, nothing moved
	var check models.Shipment
	if err := f.db.First(&check, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("load shipment: %v", err)
	}
	if check.Status != enums.ShipmentStatusNoResponse {
		t.Fatalf("expected no_response after rollback, got %s", check.Status)
	}

	returned, err := f.svc.ReturnToWarehouseBatch(ctx, []uuid.UUID{first.ID, second.ID})
	if err != nil {
		t.Fatalf("batch return: %v", err)
	}
	for _, shipment := range returned {
		if shipment.Status != enums.ShipmentStatusReturnedToWH {
			t.Fatalf("expected returned_to_wh, got %s", shipment.Status)
		}
	}
}

func TestMarkDeliveredRequiresProof(t *testing.T) {
	f := newFixture(t)
	shipment := f.seedShipment(t, "LT20250301AAAA0009", enums.ShipmentStatusOutForDelivery)

	_, err := f.svc.MarkDelivered(context.Background(), shipment.ID, DeliveryProof{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = f.svc.MarkDelivered(context.Background(), shipment.ID, DeliveryProof{Image: "proof.jpg"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected geolocation validation error, got %v", err)
	}
}

func TestMarkDeliveredCollectsCOD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shipment := f.seedShipment(t, "LT20250301AAAA0010", enums.ShipmentStatusOutForDelivery)
	if err := f.db.Model(&models.Shipment{}).Where("id = ?", shipment.ID).
		Updates(map[string]any{
			"is_cod":         true,
			"cod_amount":     decimal.NewFromInt(500),
			"payment_method": enums.PaymentMethodCash,
		}).Error; err != nil {
		t.Fatalf("make cod: %v", err)
	}

	updated, err := f.svc.MarkDelivered(ctx, shipment.ID, DeliveryProof{
		Image:     "proof.jpg",
		Latitude:  28.6139,
		Longitude: 77.2090,
	})
	if err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if updated.Status != enums.ShipmentStatusDelivered || !updated.CODCollected {
		t.Fatalf("expected delivered + cod collected, got %+v", updated)
	}

	var sawCOD bool
	for _, ev := range f.ob.events {
		if ev.EventType == enums.EventCODCollected {
			sawCOD = true
		}
	}
	if !sawCOD {
		t.Fatal("expected cod.collected event")
	}
}

func TestMarkDeliveredWrongState(t *testing.T) {
	f := newFixture(t)
	shipment := f.seedShipment(t, "LT20250301AAAA0011", enums.ShipmentStatusAssignedToChamp)

	_, err := f.svc.MarkDelivered(context.Background(), shipment.ID, DeliveryProof{
		Image:    "proof.jpg",
		Latitude: 1, Longitude: 1,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestMarkPickupCompleted(t *testing.T) {
	f := newFixture(t)
	shipment := f.seedShipment(t, "LT20250301AAAA0012", enums.ShipmentStatusOutForDelivery)
	subtype := enums.PickupSubtypePickup
	if err := f.db.Model(&models.Shipment{}).Where("id = ?", shipment.ID).
		Updates(map[string]any{
			"shipment_type":  enums.ShipmentTypePickup,
			"pickup_subtype": subtype,
		}).Error; err != nil {
		t.Fatalf("make pickup: %v", err)
	}

	updated, err := f.svc.MarkPickupCompleted(context.Background(), shipment.ID, nil)
	if err != nil {
		t.Fatalf("complete pickup: %v", err)
	}
	if updated.Status != enums.ShipmentStatusCompleted || updated.CompletedAt == nil {
		t.Fatalf("unexpected state: %+v", updated)
	}

	// delivery shipments must not use this path
	other := f.seedShipment(t, "LT20250301AAAA0013", enums.ShipmentStatusOutForDelivery)
	_, err = f.svc.MarkPickupCompleted(context.Background(), other.ID, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
