package enums

import "fmt"

// PickupSubtype qualifies pickup-type shipments.
type PickupSubtype string

const (
	PickupSubtypePickup         PickupSubtype = "pickup"
	PickupSubtypeCustomerReturn PickupSubtype = "customer_return"
)

var validPickupSubtypes = []PickupSubtype{
	PickupSubtypePickup,
	PickupSubtypeCustomerReturn,
}

func (p PickupSubtype) String() string {
	return string(p)
}

func (p PickupSubtype) IsValid() bool {
	for _, candidate := range validPickupSubtypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePickupSubtype converts raw input into a PickupSubtype.
func ParsePickupSubtype(value string) (PickupSubtype, error) {
	for _, candidate := range validPickupSubtypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup subtype %q", value)
}
