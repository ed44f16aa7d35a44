package enums

// OutboxEventType names the domain events emitted through the outbox.
type OutboxEventType string

const (
	EventShipmentCreated    OutboxEventType = "shipment.created"
	EventShipmentInScanned  OutboxEventType = "shipment.in_scanned"
	EventShipmentBinned     OutboxEventType = "shipment.assigned_to_bin"
	EventShipmentAssigned   OutboxEventType = "shipment.assigned_to_champ"
	EventShipmentReturned   OutboxEventType = "shipment.returned_to_wh"
	EventShipmentDelivered  OutboxEventType = "shipment.delivered"
	EventRunSheetCreated    OutboxEventType = "runsheet.created"
	EventRunSheetScannedOut OutboxEventType = "runsheet.scanned_out"
	EventRunSheetScannedIn  OutboxEventType = "runsheet.scanned_in"
	EventAttemptRecorded    OutboxEventType = "attempt.recorded"
	EventCODCollected       OutboxEventType = "cod.collected"
	EventCODReconciled      OutboxEventType = "cod.reconciled"
	EventPickupCreated      OutboxEventType = "pickup.created"
	EventPickupAssigned     OutboxEventType = "pickup.assigned"
	EventPickupCompleted    OutboxEventType = "pickup.completed"
	EventPickupPartial      OutboxEventType = "pickup.partial_delivery"
	EventPickupCancelled    OutboxEventType = "pickup.cancelled"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateShipment OutboxAggregateType = "shipment"
	AggregateRunSheet OutboxAggregateType = "run_sheet"
	AggregatePickup   OutboxAggregateType = "pickup"
)
