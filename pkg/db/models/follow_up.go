package models

import (
	"time"

	"github.com/google/uuid"
)

// FollowUp is an append-only note attached to a shipment.
type FollowUp struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ShipmentID   uuid.UUID `gorm:"column:shipment_id;type:uuid;not null;index"`
	Notes        string    `gorm:"column:notes;not null"`
	FollowUpDate *string   `gorm:"column:follow_up_date"`
	CreatedBy    string    `gorm:"column:created_by;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
