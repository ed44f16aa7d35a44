package enums

import "fmt"

// ShipmentType distinguishes doorstep deliveries from field pickups.
type ShipmentType string

const (
	ShipmentTypeDelivery ShipmentType = "delivery"
	ShipmentTypePickup   ShipmentType = "pickup"
)

var validShipmentTypes = []ShipmentType{
	ShipmentTypeDelivery,
	ShipmentTypePickup,
}

func (s ShipmentType) String() string {
	return string(s)
}

func (s ShipmentType) IsValid() bool {
	for _, candidate := range validShipmentTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipmentType converts raw input into a ShipmentType.
func ParseShipmentType(value string) (ShipmentType, error) {
	for _, candidate := range validShipmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment type %q", value)
}
