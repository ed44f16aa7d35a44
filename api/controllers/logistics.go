package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/logitrack/logitrack-backend/api/responses"
	"github.com/logitrack/logitrack-backend/api/validators"
	"github.com/logitrack/logitrack-backend/internal/logistics"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/logger"
)

type inScanRequest struct {
	AWB string `json:"awb" validate:"required"`
}

type assignBinRequest struct {
	ShipmentIDs []string `json:"shipment_ids" validate:"required,min=1,dive,uuid"`
	BinID       string   `json:"bin_id" validate:"required,uuid"`
}

type assignChampRequest struct {
	ShipmentIDs []string `json:"shipment_ids" validate:"required,min=1,dive,uuid"`
	ChampID     string   `json:"champ_id" validate:"required,uuid"`
}

type returnToWarehouseRequest struct {
	ShipmentIDs []string `json:"shipment_ids" validate:"required,min=1,dive,uuid"`
}

type markDeliveredRequest struct {
	ProofImage string  `json:"proof_image" validate:"required"`
	Latitude   float64 `json:"latitude" validate:"required"`
	Longitude  float64 `json:"longitude" validate:"required"`
	Notes      *string `json:"notes"`
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

func parseUUIDList(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// LogisticsInScan receives a shipment at the warehouse by AWB.
func LogisticsInScan(svc logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload inScanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.InScan(r.Context(), strings.TrimSpace(payload.AWB))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}

// LogisticsAssignBin stages scanned shipments into a bin.
func LogisticsAssignBin(svc logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload assignBinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipmentIDs, err := parseUUIDList(payload.ShipmentIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		binID, err := uuid.Parse(payload.BinID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid bin id"))
			return
		}

		updated, err := svc.AssignToBin(r.Context(), shipmentIDs, binID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// LogisticsAssignChamp hands staged shipments to a courier.
func LogisticsAssignChamp(svc logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload assignChampRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipmentIDs, err := parseUUIDList(payload.ShipmentIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		champID, err := uuid.Parse(payload.ChampID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid champ id"))
			return
		}

		updated, err := svc.AssignToChamp(r.Context(), shipmentIDs, champID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// LogisticsReturnToWarehouse brings a batch of failed or rescheduled
// shipments back into warehouse custody.
func LogisticsReturnToWarehouse(svc logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload returnToWarehouseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipmentIDs, err := parseUUIDList(payload.ShipmentIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.ReturnToWarehouseBatch(r.Context(), shipmentIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// ShipmentUnassign takes a shipment back from its courier.
func ShipmentUnassign(svc logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.Unassign(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}

// ShipmentReturn brings an undelivered shipment back to the warehouse.
func ShipmentReturn(svc logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.ReturnToWarehouse(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}

// ShipmentMarkDelivered closes a shipment with proof of delivery.
func ShipmentMarkDelivered(svc logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload markDeliveredRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.MarkDelivered(r.Context(), id, logistics.DeliveryProof{
			Image:     payload.ProofImage,
			Latitude:  payload.Latitude,
			Longitude: payload.Longitude,
			Notes:     payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}

// ShipmentPickupCompleted closes a pickup-type shipment.
func ShipmentPickupCompleted(svc logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload notesRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.MarkPickupCompleted(r.Context(), id, payload.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}
