package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/logitrack/logitrack-backend/pkg/enums"
	"github.com/logitrack/logitrack-backend/pkg/types"
)

// Courier is a delivery/pickup field agent. The champ and driver vocabularies
// of the two dashboard variants both map onto this record.
//
// Aggregate stats (deliveries completed, pending COD) are never stored here;
// they are derived queries over shipments so the counters cannot drift.
type Courier struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Phone         string              `gorm:"column:phone;not null"`
	Email         *string             `gorm:"column:email"`
	VehicleNumber string              `gorm:"column:vehicle_number;not null"`
	VehicleType   string              `gorm:"column:vehicle_type;not null"`
	Status        enums.CourierStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Routes        types.StringList    `gorm:"column:routes;type:jsonb;serializer:json"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
