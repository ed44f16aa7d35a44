package runsheets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

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
	dsn := "file:runsheets_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.RunSheet{},
		&models.Shipment{},
		&models.Courier{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ob := &recordingOutbox{}
	svc, err := NewService(
		NewRepository(db),
		shipments.NewRepository(db),
		couriers.NewRepository(db),
		&testTx{db: db},
		ob,
	)
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

type seedOpts struct {
	status  enums.ShipmentStatus
	courier *uuid.UUID
	payment enums.PaymentMethod
	cod     string
}

func (f *fixture) seedShipment(t *testing.T, awb string, opts seedOpts) *models.Shipment {
	t.Helper()
	amount := decimal.Zero
	isCOD := false
	if opts.cod != "" {
		amount = decimal.RequireFromString(opts.cod)
		isCOD = true
	}
	payment := opts.payment
	if payment == "" {
		payment = enums.PaymentMethodPrepaid
	}
	shipment := &models.Shipment{
		TrackingNumber:     awb,
		ShipmentType:       enums.ShipmentTypeDelivery,
		CustomerName:       "x",
		CustomerPhone:      "x",
		PickupAddress:      "x",
		PackageDescription: "x",
		NumberOfItems:      1,
		PaymentMethod:      payment,
		IsCOD:              isCOD,
		CODAmount:          amount,
		Status:             opts.status,
		CourierID:          opts.courier,
	}
	if err := f.db.Create(shipment).Error; err != nil {
		t.Fatalf("seed shipment: %v", err)
	}
	return shipment
}

func (f *fixture) reloadShipment(t *testing.T, id uuid.UUID) *models.Shipment {
	t.Helper()
	var shipment models.Shipment
	if err := f.db.First(&shipment, "id = ?", id).Error; err != nil {
		t.Fatalf("load shipment: %v", err)
	}
	return &shipment
}

func TestCreateSnapshotsTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champ := f.seedCourier(t, enums.CourierStatusActive)

	cash := f.seedShipment(t, "LT1", seedOpts{
		status: enums.ShipmentStatusAssignedToChamp, courier: &champ.ID,
		payment: enums.PaymentMethodCash, cod: "500",
	})
	card := f.seedShipment(t, "LT2", seedOpts{
		status: enums.ShipmentStatusAssignedToChamp, courier: &champ.ID,
		payment: enums.PaymentMethodCard, cod: "200",
	})
	prepaid := f.seedShipment(t, "LT3", seedOpts{
		status: enums.ShipmentStatusAssignedToChamp, courier: &champ.ID,
	})

	sheet, err := f.svc.Create(ctx, champ.ID, []uuid.UUID{cash.ID, card.ID, prepaid.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !sheet.TotalValue.Equal(decimal.RequireFromString("700")) {
		t.Fatalf("total value = %s", sheet.TotalValue)
	}
	if !sheet.CashToCollect.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("cash to collect = %s", sheet.CashToCollect)
	}
	if !sheet.CardToCollect.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("card to collect = %s", sheet.CardToCollect)
	}

	got := f.reloadShipment(t, cash.ID)
	if got.RunSheetID == nil || *got.RunSheetID != sheet.ID {
		t.Fatal("shipment was not attached to the run sheet")
	}
	if got.Status != enums.ShipmentStatusAssignedToChamp {
		t.Fatalf("creation must not change shipment status, got %s", got.Status)
	}

	if len(f.ob.events) != 1 || f.ob.events[0].EventType != enums.EventRunSheetCreated {
		t.Fatalf("expected runsheet.created event, got %+v", f.ob.events)
	}
}

func TestCreateRejectsWrongCourierAndDoubleBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champ := f.seedCourier(t, enums.CourierStatusActive)
	other := f.seedCourier(t, enums.CourierStatusActive)

	foreign := f.seedShipment(t, "LT1", seedOpts{
		status: enums.ShipmentStatusAssignedToChamp, courier: &other.ID,
	})
	if _, err := f.svc.Create(ctx, champ.ID, []uuid.UUID{foreign.ID}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for foreign shipment, got %v", err)
	}

	mine := f.seedShipment(t, "LT2", seedOpts{
		status: enums.ShipmentStatusAssignedToChamp, courier: &champ.ID,
	})
	if _, err := f.svc.Create(ctx, champ.ID, []uuid.UUID{mine.ID}); err != nil {
		t.Fatalf("first sheet: %v", err)
	}
	if _, err := f.svc.Create(ctx, champ.ID, []uuid.UUID{mine.ID}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for double-booked shipment, got %v", err)
	}
}

func TestCreateRequiresChampAssignedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champ := f.seedCourier(t, enums.CourierStatusActive)

	binned := f.seedShipment(t, "LT1", seedOpts{
		status: enums.ShipmentStatusAssignedToBin, courier: &champ.ID,
	})
	_, err := f.svc.Create(ctx, champ.ID, []uuid.UUID{binned.ID})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champ := f.seedCourier(t, enums.CourierStatusActive)

	good := f.seedShipment(t, "LT1", seedOpts{
		status: enums.ShipmentStatusAssignedToChamp, courier: &champ.ID,
	})
	bad := f.seedShipment(t, "LT2", seedOpts{
		status: enums.ShipmentStatusInScanned,
	})

	if _, err := f.svc.Create(ctx, champ.ID, []uuid.UUID{good.ID, bad.ID}); err == nil {
		t.Fatal("expected failure")
	}
	if got := f.reloadShipment(t, good.ID); got.RunSheetID != nil {
		t.Fatal("rollback should have detached the good shipment")
	}

	var count int64
	f.db.Model(&models.RunSheet{}).Count(&count)
	if count != 0 {
		t.Fatalf("rollback should leave no run sheets, found %d", count)
	}
}

func TestScanOutMovesMembersOutForDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champ := f.seedCourier(t, enums.CourierStatusActive)

	a := f.seedShipment(t, "LT1", seedOpts{status: enums.ShipmentStatusAssignedToChamp, courier: &champ.ID})
	b := f.seedShipment(t, "LT2", seedOpts{status: enums.ShipmentStatusAssignedToChamp, courier: &champ.ID})

	sheet, err := f.svc.Create(ctx, champ.ID, []uuid.UUID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	scanned, err := f.svc.ScanOut(ctx, sheet.ID)
	if err != nil {
		t.Fatalf("scan out: %v", err)
	}
	if !scanned.ScannedOut || scanned.ScannedOutAt == nil {
		t.Fatal("scan out did not stamp the sheet")
	}
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		if got := f.reloadShipment(t, id); got.Status != enums.ShipmentStatusOutForDelivery {
			t.Fatalf("shipment %s status = %s", id, got.Status)
		}
	}

	if _, err := f.svc.ScanOut(ctx, sheet.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on second scan-out, got %v", err)
	}
}

func TestScanInRequiresAllOutcomesRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champ := f.seedCourier(t, enums.CourierStatusActive)

	a := f.seedShipment(t, "LT1", seedOpts{status: enums.ShipmentStatusAssignedToChamp, courier: &champ.ID})
	b := f.seedShipment(t, "LT2", seedOpts{status: enums.ShipmentStatusAssignedToChamp, courier: &champ.ID})

	sheet, err := f.svc.Create(ctx, champ.ID, []uuid.UUID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.ScanIn(ctx, sheet.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("scan-in before scan-out should fail, got %v", err)
	}
	if _, err := f.svc.ScanOut(ctx, sheet.ID); err != nil {
		t.Fatalf("scan out: %v", err)
	}

	// one outcome still missing
	f.db.Model(&models.Shipment{}).Where("id = ?", a.ID).Update("status", enums.ShipmentStatusDelivered)
	if _, err := f.svc.ScanIn(ctx, sheet.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("scan-in with open shipments should fail, got %v", err)
	}

	f.db.Model(&models.Shipment{}).Where("id = ?", b.ID).Update("status", enums.ShipmentStatusNoResponse)
	scanned, err := f.svc.ScanIn(ctx, sheet.ID)
	if err != nil {
		t.Fatalf("scan in: %v", err)
	}
	if !scanned.ScannedIn || scanned.ScannedInAt == nil {
		t.Fatal("scan in did not stamp the sheet")
	}

	if _, err := f.svc.ScanIn(ctx, sheet.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on second scan-in, got %v", err)
	}
}

func TestListFiltersByCourier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	champA := f.seedCourier(t, enums.CourierStatusActive)
	champB := f.seedCourier(t, enums.CourierStatusActive)

	a := f.seedShipment(t, "LT1", seedOpts{status: enums.ShipmentStatusAssignedToChamp, courier: &champA.ID})
	b := f.seedShipment(t, "LT2", seedOpts{status: enums.ShipmentStatusAssignedToChamp, courier: &champB.ID})

	if _, err := f.svc.Create(ctx, champA.ID, []uuid.UUID{a.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Create(ctx, champB.ID, []uuid.UUID{b.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := f.svc.List(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sheets, got %d", len(all))
	}

	mine, err := f.svc.List(ctx, &champA.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].CourierID != champA.ID {
		t.Fatalf("courier filter failed: %+v", mine)
	}
}
