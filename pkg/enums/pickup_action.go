package enums

import "fmt"

// PickupAction labels entries in a pickup's append-only history log.
type PickupAction string

const (
	PickupActionCreated         PickupAction = "created"
	PickupActionAssigned        PickupAction = "assigned"
	PickupActionItemsUpdated    PickupAction = "items_updated"
	PickupActionPartialDelivery PickupAction = "partial_delivery"
	PickupActionCompleted       PickupAction = "completed"
	PickupActionCancelled       PickupAction = "cancelled"
)

var validPickupActions = []PickupAction{
	PickupActionCreated,
	PickupActionAssigned,
	PickupActionItemsUpdated,
	PickupActionPartialDelivery,
	PickupActionCompleted,
	PickupActionCancelled,
}

func (p PickupAction) String() string {
	return string(p)
}

func (p PickupAction) IsValid() bool {
	for _, candidate := range validPickupActions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePickupAction converts raw input into a PickupAction.
func ParsePickupAction(value string) (PickupAction, error) {
	for _, candidate := range validPickupActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup action %q", value)
}
