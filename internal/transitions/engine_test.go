package transitions

import (
	"testing"

	"github.com/logitrack/logitrack-backend/pkg/enums"
	apperrors "github.com/logitrack/logitrack-backend/pkg/errors"
)

func TestShipmentHappyPath(t *testing.T) {
	table := Shipment()
	path := []enums.ShipmentStatus{
		enums.ShipmentStatusPendingHandover,
		enums.ShipmentStatusInScanned,
		enums.ShipmentStatusAssignedToBin,
		enums.ShipmentStatusAssignedToChamp,
		enums.ShipmentStatusOutForDelivery,
		enums.ShipmentStatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		if err := table.Ensure(path[i], path[i+1]); err != nil {
			t.Fatalf("expected %s -> %s to be legal: %v", path[i], path[i+1], err)
		}
	}
}

func TestShipmentDuplicateInScanRejected(t *testing.T) {
	table := Shipment()
	err := table.Ensure(enums.ShipmentStatusInScanned, enums.ShipmentStatusInScanned)
	if err == nil {
		t.Fatal("expected duplicate in-scan to be rejected")
	}
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestShipmentTerminalStatesHaveNoExit(t *testing.T) {
	table := Shipment()
	for _, terminal := range []enums.ShipmentStatus{
		enums.ShipmentStatusDelivered,
		enums.ShipmentStatusCompleted,
	} {
		if next := table.Next(terminal); len(next) != 0 {
			t.Fatalf("expected no exits from %s, got %v", terminal, next)
		}
	}
}

func TestShipmentReentrantStatesReachChamp(t *testing.T) {
	table := Shipment()
	for _, from := range []enums.ShipmentStatus{
		enums.ShipmentStatusCancelled,
		enums.ShipmentStatusNoResponse,
		enums.ShipmentStatusRescheduled,
		enums.ShipmentStatusReturnedToWH,
	} {
		if !table.Allowed(from, enums.ShipmentStatusAssignedToChamp) {
			t.Fatalf("expected %s to re-enter assigned_to_champ", from)
		}
		if !table.Allowed(from, enums.ShipmentStatusReturnedToWH) && from != enums.ShipmentStatusReturnedToWH {
			t.Fatalf("expected %s to reach returned_to_wh", from)
		}
		if !from.IsReassignable() {
			t.Fatalf("expected %s to report as reassignable", from)
		}
	}
	if enums.ShipmentStatusDelivered.IsReassignable() {
		t.Fatal("delivered must never be reassignable")
	}
}

func TestShipmentSkippingBinRejected(t *testing.T) {
	table := Shipment()
	if table.Allowed(enums.ShipmentStatusInScanned, enums.ShipmentStatusAssignedToChamp) {
		t.Fatal("in_scanned must pass through a bin before champ assignment")
	}
	if table.Allowed(enums.ShipmentStatusPendingHandover, enums.ShipmentStatusOutForDelivery) {
		t.Fatal("pending_handover cannot jump straight to out_for_delivery")
	}
}

func TestPickupPartialLoopsUntilComplete(t *testing.T) {
	table := Pickup()
	if err := table.Ensure(enums.PickupStatusAssigned, enums.PickupStatusPartial); err != nil {
		t.Fatalf("assigned -> partial: %v", err)
	}
	if err := table.Ensure(enums.PickupStatusPartial, enums.PickupStatusPartial); err != nil {
		t.Fatalf("partial -> partial: %v", err)
	}
	if err := table.Ensure(enums.PickupStatusPartial, enums.PickupStatusCompleted); err != nil {
		t.Fatalf("partial -> completed: %v", err)
	}
	if table.Allowed(enums.PickupStatusCompleted, enums.PickupStatusPartial) {
		t.Fatal("completed pickups cannot regress")
	}
}

func TestPickupCancelledIsTerminal(t *testing.T) {
	table := Pickup()
	if next := table.Next(enums.PickupStatusCancelled); len(next) != 0 {
		t.Fatalf("expected no exits from cancelled, got %v", next)
	}
}
