package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunSheet is a batch manifest of shipments handed to one courier for a
// delivery round.
//
// TotalValue, CashToCollect and CardToCollect are snapshotted at creation
// and never recomputed; later delivery outcomes are compared against them
// for reconciliation reporting, they do not change the targets.
type RunSheet struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CourierID     uuid.UUID       `gorm:"column:courier_id;type:uuid;not null;index"`
	TotalValue    decimal.Decimal `gorm:"column:total_value;type:numeric(12,2);not null;default:0"`
	CashToCollect decimal.Decimal `gorm:"column:cash_to_collect;type:numeric(12,2);not null;default:0"`
	CardToCollect decimal.Decimal `gorm:"column:card_to_collect;type:numeric(12,2);not null;default:0"`
	ScannedOut    bool            `gorm:"column:scanned_out;not null;default:false"`
	ScannedOutAt  *time.Time      `gorm:"column:scanned_out_at"`
	ScannedIn     bool            `gorm:"column:scanned_in;not null;default:false"`
	ScannedInAt   *time.Time      `gorm:"column:scanned_in_at"`

	Shipments []Shipment `gorm:"foreignKey:RunSheetID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
