package dashboard

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:dashboard_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Shipment{}, &models.Courier{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedShipment(t *testing.T, db *gorm.DB, awb string, status enums.ShipmentStatus, cod string, collected, reconciled bool) {
	t.Helper()
	amount := decimal.Zero
	isCOD := false
	payment := enums.PaymentMethodPrepaid
	if cod != "" {
		amount = decimal.RequireFromString(cod)
		isCOD = true
		payment = enums.PaymentMethodCash
	}
	shipment := &models.Shipment{
		TrackingNumber:     awb,
		ShipmentType:       enums.ShipmentTypeDelivery,
		CustomerName:       "x",
		CustomerPhone:      "x",
		PickupAddress:      "x",
		PackageDescription: "x",
		NumberOfItems:      1,
		IsCOD:              isCOD,
		CODAmount:          amount,
		PaymentMethod:      payment,
		CODCollected:       collected,
		CODReconciled:      reconciled,
		Status:             status,
	}
	if err := db.Create(shipment).Error; err != nil {
		t.Fatalf("seed shipment: %v", err)
	}
}

func seedCourier(t *testing.T, db *gorm.DB, status enums.CourierStatus) {
	t.Helper()
	courier := &models.Courier{
		Name:          "champ",
		Phone:         "9",
		VehicleNumber: "DL1",
		VehicleType:   "bike",
		Status:        status,
	}
	if err := db.Create(courier).Error; err != nil {
		t.Fatalf("seed courier: %v", err)
	}
}

func TestStatsDerivedFromLiveRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedShipment(t, db, "LT1", enums.ShipmentStatusPendingHandover, "", false, false)
	seedShipment(t, db, "LT2", enums.ShipmentStatusInScanned, "", false, false)
	seedShipment(t, db, "LT3", enums.ShipmentStatusOutForDelivery, "300", false, false)
	seedShipment(t, db, "LT4", enums.ShipmentStatusDelivered, "500", true, false)
	seedShipment(t, db, "LT5", enums.ShipmentStatusDelivered, "900", true, true)
	seedShipment(t, db, "LT6", enums.ShipmentStatusCompleted, "", false, false)
	seedShipment(t, db, "LT7", enums.ShipmentStatusCancelled, "", false, false)

	seedCourier(t, db, enums.CourierStatusActive)
	seedCourier(t, db, enums.CourierStatusActive)
	seedCourier(t, db, enums.CourierStatusInactive)

	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalShipments != 7 {
		t.Fatalf("total shipments = %d", stats.TotalShipments)
	}
	if stats.PendingShipments != 1 {
		t.Fatalf("pending shipments = %d", stats.PendingShipments)
	}
	if stats.InTransit != 2 {
		t.Fatalf("in transit = %d", stats.InTransit)
	}
	if stats.Delivered != 3 {
		t.Fatalf("delivered = %d", stats.Delivered)
	}
	if stats.TotalDrivers != 3 || stats.ActiveDrivers != 2 {
		t.Fatalf("drivers = %d/%d", stats.ActiveDrivers, stats.TotalDrivers)
	}
	if !stats.TotalCODAmount.Equal(decimal.RequireFromString("1700")) {
		t.Fatalf("total cod = %s", stats.TotalCODAmount)
	}
	if !stats.PendingCODAmount.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("pending cod = %s", stats.PendingCODAmount)
	}
	if !stats.ReconciledCODAmount.Equal(decimal.RequireFromString("900")) {
		t.Fatalf("reconciled cod = %s", stats.ReconciledCODAmount)
	}
}

func TestStatsOnEmptyDatabase(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalShipments != 0 || !stats.TotalCODAmount.IsZero() {
		t.Fatalf("empty database should produce zeros: %+v", stats)
	}
}
