package couriers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
)

type testTx struct {
	db *gorm.DB
}

func (t *testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:couriers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Courier{}, &models.Shipment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db), &testTx{db: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func seedCourier(t *testing.T, svc Service) *models.Courier {
	t.Helper()
	courier, err := svc.Create(context.Background(), CreateInput{
		Name:          "Vikram Singh",
		Phone:         "9876500002",
		VehicleNumber: "DL1AB1234",
		VehicleType:   "bike",
		Routes:        []string{"south", "central"},
	})
	if err != nil {
		t.Fatalf("seed courier: %v", err)
	}
	return courier
}

func TestCreateCourierDefaultsActive(t *testing.T) {
	svc, _ := newTestService(t)
	courier := seedCourier(t, svc)

	if courier.Status != enums.CourierStatusActive {
		t.Fatalf("expected active, got %s", courier.Status)
	}
	if len(courier.Routes) != 2 {
		t.Fatalf("expected routes persisted, got %v", courier.Routes)
	}
}

func TestCreateCourierValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateInput{Phone: "1", VehicleNumber: "v", VehicleType: "bike"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateCourierStatus(t *testing.T) {
	svc, _ := newTestService(t)
	courier := seedCourier(t, svc)

	inactive := enums.CourierStatusInactive
	updated, err := svc.Update(context.Background(), courier.ID, UpdateInput{Status: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != enums.CourierStatusInactive {
		t.Fatalf("expected inactive, got %s", updated.Status)
	}

	active := enums.CourierStatusActive
	rows, err := svc.List(context.Background(), &active)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no active couriers, got %d", len(rows))
	}
}

func TestDeleteCourierBlockedWhileInCustody(t *testing.T) {
	svc, db := newTestService(t)
	courier := seedCourier(t, svc)

	shipment := models.Shipment{
		TrackingNumber:     "LT20250301AAAA0001",
		ShipmentType:       enums.ShipmentTypeDelivery,
		CustomerName:       "x",
		CustomerPhone:      "x",
		PickupAddress:      "x",
		PackageDescription: "x",
		NumberOfItems:      1,
		PaymentMethod:      enums.PaymentMethodPrepaid,
		Status:             enums.ShipmentStatusOutForDelivery,
		CourierID:          &courier.ID,
	}
	if err := db.Create(&shipment).Error; err != nil {
		t.Fatalf("seed shipment: %v", err)
	}

	err := svc.Delete(context.Background(), courier.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := db.Model(&models.Shipment{}).
		Where("id = ?", shipment.ID).
		Update("status", enums.ShipmentStatusDelivered).Error; err != nil {
		t.Fatalf("close shipment: %v", err)
	}
	if err := svc.Delete(context.Background(), courier.ID); err != nil {
		t.Fatalf("delete courier: %v", err)
	}
}

func TestStatsDerivedFromShipments(t *testing.T) {
	svc, db := newTestService(t)
	courier := seedCourier(t, svc)

	seed := func(status enums.ShipmentStatus, cod bool, amount int64, collected bool) {
		t.Helper()
		s := models.Shipment{
			TrackingNumber:     "LT" + uuid.NewString()[:16],
			ShipmentType:       enums.ShipmentTypeDelivery,
			CustomerName:       "x",
			CustomerPhone:      "x",
			PickupAddress:      "x",
			PackageDescription: "x",
			NumberOfItems:      1,
			IsCOD:              cod,
			CODAmount:          decimal.NewFromInt(amount),
			PaymentMethod:      enums.PaymentMethodCash,
			CODCollected:       collected,
			Status:             status,
			CourierID:          &courier.ID,
		}
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed shipment: %v", err)
		}
	}

	seed(enums.ShipmentStatusAssignedToChamp, false, 0, false)
	seed(enums.ShipmentStatusOutForDelivery, true, 300, false)
	seed(enums.ShipmentStatusDelivered, true, 500, true)
	seed(enums.ShipmentStatusDelivered, true, 200, true)

	stats, err := svc.Stats(context.Background(), courier.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Assigned != 1 || stats.OutForDelivery != 1 || stats.Delivered != 2 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if !stats.PendingCODAmount.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("expected pending COD 700, got %s", stats.PendingCODAmount)
	}
}
