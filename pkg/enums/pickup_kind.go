package enums

import "fmt"

// PickupKind distinguishes the three pickup order flows.
type PickupKind string

const (
	PickupKindSeller           PickupKind = "seller"
	PickupKindCustomerReturn   PickupKind = "customer_return"
	PickupKindPersonalShopping PickupKind = "personal_shopping"
)

var validPickupKinds = []PickupKind{
	PickupKindSeller,
	PickupKindCustomerReturn,
	PickupKindPersonalShopping,
}

func (p PickupKind) String() string {
	return string(p)
}

func (p PickupKind) IsValid() bool {
	for _, candidate := range validPickupKinds {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePickupKind converts raw input into a PickupKind.
func ParsePickupKind(value string) (PickupKind, error) {
	for _, candidate := range validPickupKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup kind %q", value)
}
