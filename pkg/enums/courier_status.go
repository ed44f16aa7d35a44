package enums

import "fmt"

// CourierStatus flags whether a champ/driver may receive new work.
type CourierStatus string

const (
	CourierStatusActive   CourierStatus = "active"
	CourierStatusInactive CourierStatus = "inactive"
)

var validCourierStatuses = []CourierStatus{
	CourierStatusActive,
	CourierStatusInactive,
}

func (c CourierStatus) String() string {
	return string(c)
}

func (c CourierStatus) IsValid() bool {
	for _, candidate := range validCourierStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCourierStatus converts raw input into a CourierStatus.
func ParseCourierStatus(value string) (CourierStatus, error) {
	for _, candidate := range validCourierStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid courier status %q", value)
}
