package shipments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:shipments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Shipment{}, &models.FollowUp{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (Service, *gorm.DB, *recordingOutbox) {
	t.Helper()
	db := newTestDB(t)
	ob := &recordingOutbox{}
	svc, err := NewService(NewRepository(db), &testTx{db: db}, ob)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db, ob
}

func validCreateInput() CreateInput {
	return CreateInput{
		ShipmentType:       enums.ShipmentTypeDelivery,
		CustomerName:       "Asha Verma",
		CustomerPhone:      "9876500001",
		PickupAddress:      "Warehouse 3, Okhla",
		PackageDescription: "Apparel",
		NumberOfItems:      2,
		IsCOD:              true,
		CODAmount:          decimal.NewFromInt(500),
		PaymentMethod:      enums.PaymentMethodCash,
	}
}

func TestCreateShipmentMintsTrackingNumber(t *testing.T) {
	svc, _, ob := newTestService(t)

	shipment, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(shipment.TrackingNumber, "LT") {
		t.Fatalf("unexpected awb %q", shipment.TrackingNumber)
	}
	if len(shipment.TrackingNumber) != 2+8+8 {
		t.Fatalf("awb %q has wrong length", shipment.TrackingNumber)
	}
	if shipment.Status != enums.ShipmentStatusPendingHandover {
		t.Fatalf("expected pending_handover, got %s", shipment.Status)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventShipmentCreated {
		t.Fatalf("expected shipment.created event, got %+v", ob.events)
	}
}

func TestCreateShipmentCODValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	input := validCreateInput()
	input.CODAmount = decimal.Zero
	_, err := svc.Create(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	input = validCreateInput()
	input.PaymentMethod = enums.PaymentMethodPrepaid
	_, err = svc.Create(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for prepaid COD, got %v", err)
	}

	input = validCreateInput()
	input.IsCOD = false
	_, err = svc.Create(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for amount on non-COD, got %v", err)
	}
}

func TestCreateNonCODDefaultsPrepaid(t *testing.T) {
	svc, _, _ := newTestService(t)

	input := validCreateInput()
	input.IsCOD = false
	input.CODAmount = decimal.Zero

	shipment, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if shipment.PaymentMethod != enums.PaymentMethodPrepaid {
		t.Fatalf("expected prepaid, got %s", shipment.PaymentMethod)
	}
	if !shipment.CODAmount.IsZero() {
		t.Fatalf("expected zero cod amount, got %s", shipment.CODAmount)
	}
}

func TestCreatePickupRequiresSubtype(t *testing.T) {
	svc, _, _ := newTestService(t)

	input := validCreateInput()
	input.ShipmentType = enums.ShipmentTypePickup
	_, err := svc.Create(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	subtype := enums.PickupSubtypeCustomerReturn
	input.PickupSubtype = &subtype
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("create pickup shipment: %v", err)
	}
}

func TestUpdateRejectsClosedShipment(t *testing.T) {
	svc, db, _ := newTestService(t)

	shipment, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(&models.Shipment{}).
		Where("id = ?", shipment.ID).
		Update("status", enums.ShipmentStatusDelivered).Error; err != nil {
		t.Fatalf("force status: %v", err)
	}

	name := "New Name"
	_, err = svc.Update(context.Background(), shipment.ID, UpdateInput{CustomerName: &name})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRescheduleRequiresFutureDate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	shipment, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, date := range []string{"next tuesday", "2020-01-01", time.Now().UTC().Format("2006-01-02")} {
		_, err := svc.Reschedule(ctx, shipment.ID, RescheduleInput{Date: date})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("date %q should fail validation, got %v", date, err)
		}
	}
}

func TestRescheduleMovesStatusOnlyOnLegalEdge(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	future := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")

	// a shipment still in the warehouse keeps its place in the flow
	early, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.Reschedule(ctx, early.ID, RescheduleInput{Date: future})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if updated.Status != enums.ShipmentStatusPendingHandover {
		t.Fatalf("warehouse shipment must not change status, got %s", updated.Status)
	}
	if updated.RescheduleDate == nil || *updated.RescheduleDate != future {
		t.Fatal("reschedule date not stored")
	}

	// a shipment already out on the road moves to rescheduled
	out, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(&models.Shipment{}).
		Where("id = ?", out.ID).
		Update("status", enums.ShipmentStatusOutForDelivery).Error; err != nil {
		t.Fatalf("force status: %v", err)
	}
	moved, err := svc.Reschedule(ctx, out.ID, RescheduleInput{Date: future})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moved.Status != enums.ShipmentStatusRescheduled {
		t.Fatalf("expected rescheduled, got %s", moved.Status)
	}
}

func TestDeleteOnlyPendingHandover(t *testing.T) {
	svc, db, _ := newTestService(t)

	shipment, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(&models.Shipment{}).
		Where("id = ?", shipment.ID).
		Update("status", enums.ShipmentStatusInScanned).Error; err != nil {
		t.Fatalf("force status: %v", err)
	}

	err = svc.Delete(context.Background(), shipment.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if err := db.Model(&models.Shipment{}).
		Where("id = ?", shipment.ID).
		Update("status", enums.ShipmentStatusPendingHandover).Error; err != nil {
		t.Fatalf("reset status: %v", err)
	}
	if err := svc.Delete(context.Background(), shipment.ID); err != nil {
		t.Fatalf("delete pending shipment: %v", err)
	}
	if _, err := svc.Get(context.Background(), shipment.ID); pkgerrors.As(err) == nil {
		t.Fatal("expected not found after delete")
	}
}

func TestFollowUpsAppendAndList(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	shipment, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddFollowUp(ctx, shipment.ID, FollowUpInput{Notes: "call before delivery", CreatedBy: "ops"}); err != nil {
		t.Fatalf("add follow-up: %v", err)
	}
	if _, err := svc.AddFollowUp(ctx, shipment.ID, FollowUpInput{Notes: "customer confirmed slot", CreatedBy: "ops"}); err != nil {
		t.Fatalf("add follow-up: %v", err)
	}

	rows, err := svc.ListFollowUps(ctx, shipment.ID)
	if err != nil {
		t.Fatalf("list follow-ups: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 follow-ups, got %d", len(rows))
	}
	if rows[0].Notes != "call before delivery" {
		t.Fatalf("expected chronological order, got %q first", rows[0].Notes)
	}

	_, err = svc.AddFollowUp(ctx, uuid.New(), FollowUpInput{Notes: "x", CreatedBy: "ops"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListFiltersByStatusAndSearch(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second := validCreateInput()
	second.CustomerName = "Rohan Gupta"
	if _, err := svc.Create(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := db.Model(&models.Shipment{}).
		Where("id = ?", first.ID).
		Update("status", enums.ShipmentStatusInScanned).Error; err != nil {
		t.Fatalf("force status: %v", err)
	}

	status := enums.ShipmentStatusInScanned
	rows, total, err := svc.List(ctx, ListFilter{Status: &status})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != first.ID {
		t.Fatalf("expected only the in-scanned shipment, got total=%d rows=%d", total, len(rows))
	}

	rows, total, err = svc.List(ctx, ListFilter{Search: "Rohan"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].CustomerName != "Rohan Gupta" {
		t.Fatalf("expected search hit, got total=%d", total)
	}
}

func TestListFiltersByInScanDate(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	older, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	newer, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	march1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	march5 := time.Date(2025, 3, 5, 18, 30, 0, 0, time.UTC)
	if err := db.Model(&models.Shipment{}).Where("id = ?", older.ID).
		Update("in_scanned_at", march1).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
	if err := db.Model(&models.Shipment{}).Where("id = ?", newer.ID).
		Update("in_scanned_at", march5).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	from := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	rows, total, err := svc.List(ctx, ListFilter{InScanDateFrom: &from})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != newer.ID {
		t.Fatalf("expected only the later shipment, got total=%d", total)
	}

	// the "to" bound covers its entire calendar day
	to := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	rows, total, err = svc.List(ctx, ListFilter{InScanDateFrom: &from, InScanDateTo: &to})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != newer.ID {
		t.Fatalf("expected day-inclusive upper bound, got total=%d", total)
	}
}
