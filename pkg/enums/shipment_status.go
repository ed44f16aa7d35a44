package enums

import "fmt"

// ShipmentStatus tracks the warehouse-to-doorstep lifecycle of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusPendingHandover ShipmentStatus = "pending_handover"
	ShipmentStatusInScanned       ShipmentStatus = "in_scanned"
	ShipmentStatusAssignedToBin   ShipmentStatus = "assigned_to_bin"
	ShipmentStatusAssignedToChamp ShipmentStatus = "assigned_to_champ"
	ShipmentStatusOutForDelivery  ShipmentStatus = "out_for_delivery"
	ShipmentStatusDelivered       ShipmentStatus = "delivered"
	ShipmentStatusCompleted       ShipmentStatus = "completed"
	ShipmentStatusCancelled       ShipmentStatus = "cancelled"
	ShipmentStatusNoResponse      ShipmentStatus = "no_response"
	ShipmentStatusRescheduled     ShipmentStatus = "rescheduled"
	ShipmentStatusReturnedToWH    ShipmentStatus = "returned_to_wh"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusPendingHandover,
	ShipmentStatusInScanned,
	ShipmentStatusAssignedToBin,
	ShipmentStatusAssignedToChamp,
	ShipmentStatusOutForDelivery,
	ShipmentStatusDelivered,
	ShipmentStatusCompleted,
	ShipmentStatusCancelled,
	ShipmentStatusNoResponse,
	ShipmentStatusRescheduled,
	ShipmentStatusReturnedToWH,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status closes the shipment lifecycle for good.
func (s ShipmentStatus) IsTerminal() bool {
	return s == ShipmentStatusDelivered || s == ShipmentStatusCompleted || s == ShipmentStatusCancelled
}

// IsReassignable reports whether a shipment in this status may be routed back
// into the assignable pool. Cancelled shipments stay closed for delivery but
// ops can still reassign or return them to clear the courier's custody.
func (s ShipmentStatus) IsReassignable() bool {
	switch s {
	case ShipmentStatusCancelled, ShipmentStatusNoResponse, ShipmentStatusRescheduled, ShipmentStatusReturnedToWH:
		return true
	}
	return false
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
