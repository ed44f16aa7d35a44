package transitions

import (
	"github.com/logitrack/logitrack-backend/pkg/enums"
)

// Shipment is the lifecycle table for shipments. The undeliverable outcomes
// (cancelled, no_response, rescheduled, returned_to_wh) re-enter the
// assignment pool; only delivered and completed close the record for good.
func Shipment() Table[enums.ShipmentStatus] {
	return NewTable("shipment", map[enums.ShipmentStatus][]enums.ShipmentStatus{
		enums.ShipmentStatusPendingHandover: {
			enums.ShipmentStatusInScanned,
		},
		enums.ShipmentStatusInScanned: {
			enums.ShipmentStatusAssignedToBin,
		},
		enums.ShipmentStatusAssignedToBin: {
			enums.ShipmentStatusAssignedToChamp,
		},
		enums.ShipmentStatusAssignedToChamp: {
			enums.ShipmentStatusOutForDelivery,
			// unassign puts the shipment back in the warehouse pool
			enums.ShipmentStatusInScanned,
		},
		enums.ShipmentStatusOutForDelivery: {
			enums.ShipmentStatusDelivered,
			enums.ShipmentStatusCompleted,
			enums.ShipmentStatusCancelled,
			enums.ShipmentStatusNoResponse,
			enums.ShipmentStatusRescheduled,
			enums.ShipmentStatusReturnedToWH,
		},
		enums.ShipmentStatusCancelled: {
			enums.ShipmentStatusAssignedToChamp,
			enums.ShipmentStatusReturnedToWH,
		},
		enums.ShipmentStatusNoResponse: {
			enums.ShipmentStatusAssignedToChamp,
			enums.ShipmentStatusReturnedToWH,
		},
		enums.ShipmentStatusRescheduled: {
			enums.ShipmentStatusAssignedToChamp,
			enums.ShipmentStatusReturnedToWH,
		},
		enums.ShipmentStatusReturnedToWH: {
			enums.ShipmentStatusAssignedToChamp,
			enums.ShipmentStatusAssignedToBin,
		},
	})
}

// Pickup is the lifecycle table for pickup orders. partial loops back on
// itself until the remaining items are delivered.
func Pickup() Table[enums.PickupStatus] {
	return NewTable("pickup", map[enums.PickupStatus][]enums.PickupStatus{
		enums.PickupStatusPending: {
			enums.PickupStatusAssigned,
			enums.PickupStatusCancelled,
		},
		enums.PickupStatusAssigned: {
			enums.PickupStatusInProgress,
			enums.PickupStatusCompleted,
			enums.PickupStatusPartial,
			enums.PickupStatusCancelled,
		},
		enums.PickupStatusInProgress: {
			enums.PickupStatusCompleted,
			enums.PickupStatusPartial,
			enums.PickupStatusCancelled,
		},
		enums.PickupStatusPartial: {
			enums.PickupStatusCompleted,
			enums.PickupStatusPartial,
			enums.PickupStatusCancelled,
		},
	})
}
