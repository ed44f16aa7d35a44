package enums

import "fmt"

// AttemptOutcome records what happened when a courier reached the doorstep.
type AttemptOutcome string

const (
	AttemptOutcomeDelivered   AttemptOutcome = "delivered"
	AttemptOutcomeCancelled   AttemptOutcome = "cancelled"
	AttemptOutcomeNoResponse  AttemptOutcome = "no_response"
	AttemptOutcomeRescheduled AttemptOutcome = "rescheduled"
)

var validAttemptOutcomes = []AttemptOutcome{
	AttemptOutcomeDelivered,
	AttemptOutcomeCancelled,
	AttemptOutcomeNoResponse,
	AttemptOutcomeRescheduled,
}

func (a AttemptOutcome) String() string {
	return string(a)
}

func (a AttemptOutcome) IsValid() bool {
	for _, candidate := range validAttemptOutcomes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ShipmentStatus maps the attempt outcome to the shipment status it produces.
func (a AttemptOutcome) ShipmentStatus() ShipmentStatus {
	switch a {
	case AttemptOutcomeDelivered:
		return ShipmentStatusDelivered
	case AttemptOutcomeCancelled:
		return ShipmentStatusCancelled
	case AttemptOutcomeNoResponse:
		return ShipmentStatusNoResponse
	case AttemptOutcomeRescheduled:
		return ShipmentStatusRescheduled
	}
	return ""
}

// ParseAttemptOutcome converts raw input into an AttemptOutcome.
func ParseAttemptOutcome(value string) (AttemptOutcome, error) {
	for _, candidate := range validAttemptOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery attempt outcome %q", value)
}
