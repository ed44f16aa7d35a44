package models

import (
	"time"

	"github.com/google/uuid"
)

// BinLocation is a physical staging slot with finite capacity.
//
// CurrentCount is written exclusively by the logistics service, always inside
// the same transaction as the shipment status change it accounts for, so it
// matches the live count of shipments whose bin_location_id points here.
type BinLocation struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;not null;uniqueIndex"`
	Route        string    `gorm:"column:route;not null"`
	Capacity     int       `gorm:"column:capacity;not null"`
	CurrentCount int       `gorm:"column:current_count;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
