package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logitrack/logitrack-backend/pkg/enums"
)

// Shipment is the central delivery record, identified externally by its AWB
// tracking number.
type Shipment struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	TrackingNumber string               `gorm:"column:tracking_number;not null;uniqueIndex"`
	ShipmentType   enums.ShipmentType   `gorm:"column:shipment_type;type:text;not null;default:'delivery'"`
	PickupSubtype  *enums.PickupSubtype `gorm:"column:pickup_subtype;type:text"`

	CustomerName       string  `gorm:"column:customer_name;not null"`
	CustomerPhone      string  `gorm:"column:customer_phone;not null"`
	PickupAddress      string  `gorm:"column:pickup_address;not null"`
	DeliveryAddress    *string `gorm:"column:delivery_address"`
	PackageDescription string  `gorm:"column:package_description;not null"`
	NumberOfItems      int     `gorm:"column:number_of_items;not null;default:1"`
	Weight             *float64 `gorm:"column:weight"`

	IsCOD               bool                `gorm:"column:is_cod;not null;default:false"`
	CODAmount           decimal.Decimal     `gorm:"column:cod_amount;type:numeric(12,2);not null;default:0"`
	PaymentMethod       enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'prepaid'"`
	AmountCollected     decimal.Decimal     `gorm:"column:amount_collected;type:numeric(12,2);not null;default:0"`
	CODCollected        bool                `gorm:"column:cod_collected;not null;default:false"`
	CODReconciled       bool                `gorm:"column:cod_reconciled;not null;default:false"`
	ReconciliationNotes *string             `gorm:"column:reconciliation_notes"`
	ReconciledAt        *time.Time          `gorm:"column:reconciled_at"`

	Status        enums.ShipmentStatus `gorm:"column:status;type:text;not null;default:'pending_handover'"`
	CourierID     *uuid.UUID           `gorm:"column:courier_id;type:uuid"`
	BinLocationID *uuid.UUID           `gorm:"column:bin_location_id;type:uuid"`
	RunSheetID    *uuid.UUID           `gorm:"column:run_sheet_id;type:uuid"`

	RescheduleDate   *string `gorm:"column:reschedule_date"`
	RescheduleTime   *string `gorm:"column:reschedule_time"`
	RescheduleReason *string `gorm:"column:reschedule_reason"`

	DeliveryProofImage *string  `gorm:"column:delivery_proof_image"`
	DeliveryLatitude   *float64 `gorm:"column:delivery_latitude"`
	DeliveryLongitude  *float64 `gorm:"column:delivery_longitude"`
	DeliveryNotes      *string  `gorm:"column:delivery_notes"`

	InScannedAt *time.Time `gorm:"column:in_scanned_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`

	FollowUps []FollowUp        `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	Attempts  []DeliveryAttempt `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
