package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logitrack/logitrack-backend/pkg/enums"
	"github.com/logitrack/logitrack-backend/pkg/types"
)

// Pickup is a seller pickup, customer return, or personal shopping order.
// The variant columns are nullable/empty outside their kind.
type Pickup struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Kind         enums.PickupKind   `gorm:"column:kind;type:text;not null"`
	Status       enums.PickupStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CustomerName string             `gorm:"column:customer_name;not null"`
	CustomerPhone string            `gorm:"column:customer_phone;not null"`
	Address      string             `gorm:"column:address;not null"`
	CourierID    *uuid.UUID         `gorm:"column:courier_id;type:uuid"`

	// seller pickup
	SellerItems []types.SellerItem `gorm:"column:seller_items;type:jsonb;serializer:json"`

	// customer return
	OriginalAWB  *string `gorm:"column:original_awb"`
	ReturnReason *string `gorm:"column:return_reason"`

	// personal shopping
	ShoppingItems  []types.ShoppingItem `gorm:"column:shopping_items;type:jsonb;serializer:json"`
	TotalValue     decimal.Decimal      `gorm:"column:total_value;type:numeric(12,2);not null;default:0"`
	CollectedValue decimal.Decimal      `gorm:"column:collected_value;type:numeric(12,2);not null;default:0"`

	History []PickupHistoryEntry `gorm:"foreignKey:PickupID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PickupHistoryEntry records one round of the pickup lifecycle. Entries are
// only ever appended, so a partial-delivery sequence stays reconstructable.
type PickupHistoryEntry struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	PickupID       uuid.UUID          `gorm:"column:pickup_id;type:uuid;not null;index"`
	Action         enums.PickupAction `gorm:"column:action;type:text;not null"`
	ItemsDelivered []int              `gorm:"column:items_delivered;type:jsonb;serializer:json"`
	ValueCollected decimal.Decimal    `gorm:"column:value_collected;type:numeric(12,2);not null;default:0"`
	ProofImage     *string            `gorm:"column:proof_image"`
	Latitude       *float64           `gorm:"column:latitude"`
	Longitude      *float64           `gorm:"column:longitude"`
	Notes          *string            `gorm:"column:notes"`
	Actor          string             `gorm:"column:actor;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
}
