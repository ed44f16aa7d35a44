package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logitrack/logitrack-backend/pkg/enums"
)

// DeliveryAttempt is an append-only audit row. The shipment's status is
// derived from the recorded outcome; the attempt itself is never rewritten.
type DeliveryAttempt struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ShipmentID       uuid.UUID            `gorm:"column:shipment_id;type:uuid;not null;index"`
	RunSheetID       *uuid.UUID           `gorm:"column:run_sheet_id;type:uuid"`
	Outcome          enums.AttemptOutcome `gorm:"column:outcome;type:text;not null"`
	PaymentCollected decimal.Decimal      `gorm:"column:payment_collected;type:numeric(12,2);not null;default:0"`
	PaymentMethod    *enums.PaymentMethod `gorm:"column:payment_method;type:text"`
	Notes            *string              `gorm:"column:notes"`
	RescheduledDate  *string              `gorm:"column:rescheduled_date"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
}
