package enums

import "fmt"

// PickupStatus tracks the pickup order lifecycle.
type PickupStatus string

const (
	PickupStatusPending    PickupStatus = "pending"
	PickupStatusAssigned   PickupStatus = "assigned"
	PickupStatusInProgress PickupStatus = "in_progress"
	PickupStatusCompleted  PickupStatus = "completed"
	PickupStatusPartial    PickupStatus = "partial"
	PickupStatusCancelled  PickupStatus = "cancelled"
)

var validPickupStatuses = []PickupStatus{
	PickupStatusPending,
	PickupStatusAssigned,
	PickupStatusInProgress,
	PickupStatusCompleted,
	PickupStatusPartial,
	PickupStatusCancelled,
}

func (p PickupStatus) String() string {
	return string(p)
}

func (p PickupStatus) IsValid() bool {
	for _, candidate := range validPickupStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the pickup can no longer progress.
// partial is deliberately non-terminal: a later completion attempt may
// deliver the remaining items.
func (p PickupStatus) IsTerminal() bool {
	return p == PickupStatusCompleted || p == PickupStatusCancelled
}

// ParsePickupStatus converts raw input into a PickupStatus.
func ParsePickupStatus(value string) (PickupStatus, error) {
	for _, candidate := range validPickupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup status %q", value)
}
