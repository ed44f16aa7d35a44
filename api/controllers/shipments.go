package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/logitrack/logitrack-backend/api/middleware"
	"github.com/logitrack/logitrack-backend/api/responses"
	"github.com/logitrack/logitrack-backend/api/validators"
	"github.com/logitrack/logitrack-backend/internal/shipments"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/logger"
	"github.com/logitrack/logitrack-backend/pkg/pagination"
)

type shipmentCreateRequest struct {
	ShipmentType       string   `json:"shipment_type" validate:"required"`
	PickupSubtype      *string  `json:"pickup_subtype"`
	CustomerName       string   `json:"customer_name" validate:"required"`
	CustomerPhone      string   `json:"customer_phone" validate:"required"`
	PickupAddress      string   `json:"pickup_address" validate:"required"`
	DeliveryAddress    *string  `json:"delivery_address"`
	PackageDescription string   `json:"package_description" validate:"required"`
	NumberOfItems      int      `json:"number_of_items" validate:"required,gt=0"`
	Weight             *float64 `json:"weight" validate:"omitempty,gt=0"`
	IsCOD              bool     `json:"is_cod"`
	CODAmount          *string  `json:"cod_amount"`
	PaymentMethod      string   `json:"payment_method" validate:"required"`
}

func (r shipmentCreateRequest) toInput() (shipments.CreateInput, error) {
	shipmentType, err := enums.ParseShipmentType(strings.TrimSpace(r.ShipmentType))
	if err != nil {
		return shipments.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment type")
	}

	paymentMethod, err := enums.ParsePaymentMethod(strings.TrimSpace(r.PaymentMethod))
	if err != nil {
		return shipments.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	input := shipments.CreateInput{
		ShipmentType:       shipmentType,
		CustomerName:       r.CustomerName,
		CustomerPhone:      r.CustomerPhone,
		PickupAddress:      r.PickupAddress,
		DeliveryAddress:    r.DeliveryAddress,
		PackageDescription: r.PackageDescription,
		NumberOfItems:      r.NumberOfItems,
		Weight:             r.Weight,
		IsCOD:              r.IsCOD,
		CODAmount:          decimal.Zero,
		PaymentMethod:      paymentMethod,
	}

	if r.PickupSubtype != nil {
		subtype, err := enums.ParsePickupSubtype(strings.TrimSpace(*r.PickupSubtype))
		if err != nil {
			return shipments.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid pickup subtype")
		}
		input.PickupSubtype = &subtype
	}

	if r.CODAmount != nil {
		amount, err := decimal.NewFromString(strings.TrimSpace(*r.CODAmount))
		if err != nil {
			return shipments.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cod_amount")
		}
		input.CODAmount = amount
	}

	return input, nil
}

type shipmentUpdateRequest struct {
	CustomerName       *string  `json:"customer_name"`
	CustomerPhone      *string  `json:"customer_phone"`
	PickupAddress      *string  `json:"pickup_address"`
	DeliveryAddress    *string  `json:"delivery_address"`
	PackageDescription *string  `json:"package_description"`
	NumberOfItems      *int     `json:"number_of_items" validate:"omitempty,gt=0"`
	Weight             *float64 `json:"weight" validate:"omitempty,gt=0"`
}

type shipmentRescheduleRequest struct {
	Date   string  `json:"date" validate:"required"`
	Time   *string `json:"time"`
	Reason *string `json:"reason"`
}

type followUpCreateRequest struct {
	Notes        string  `json:"notes" validate:"required"`
	FollowUpDate *string `json:"follow_up_date"`
}

type shipmentListResponse struct {
	Shipments any   `json:"shipments"`
	Total     int64 `json:"total"`
	Limit     int   `json:"limit"`
	Offset    int   `json:"offset"`
}

// ShipmentCreate registers a shipment and mints its AWB.
func ShipmentCreate(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload shipmentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ShipmentList returns a filtered page of shipments with the total count.
func ShipmentList(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := shipmentListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, total, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipmentListResponse{
			Shipments: list,
			Total:     total,
			Limit:     filter.Limit,
			Offset:    filter.Offset,
		})
	}
}

func shipmentListFilter(r *http.Request) (shipments.ListFilter, error) {
	var filter shipments.ListFilter

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseShipmentStatus(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment status")
		}
		filter.Status = &status
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		shipmentType, err := enums.ParseShipmentType(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment type")
		}
		filter.ShipmentType = &shipmentType
	}

	courierID, err := validators.ParseQueryUUID(r, "courier_id")
	if err != nil {
		return filter, err
	}
	filter.CourierID = courierID

	binID, err := validators.ParseQueryUUID(r, "bin_id")
	if err != nil {
		return filter, err
	}
	filter.BinLocationID = binID

	runSheetID, err := validators.ParseQueryUUID(r, "run_sheet_id")
	if err != nil {
		return filter, err
	}
	filter.RunSheetID = runSheetID

	isCOD, err := validators.ParseQueryBool(r, "is_cod")
	if err != nil {
		return filter, err
	}
	filter.IsCOD = isCOD

	inScanFrom, err := validators.ParseQueryDate(r, "inscan_date_from")
	if err != nil {
		return filter, err
	}
	filter.InScanDateFrom = inScanFrom

	inScanTo, err := validators.ParseQueryDate(r, "inscan_date_to")
	if err != nil {
		return filter, err
	}
	filter.InScanDateTo = inScanTo

	filter.Search = strings.TrimSpace(r.URL.Query().Get("search"))

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
	if err != nil {
		return filter, err
	}
	filter.Offset = offset

	return filter, nil
}

// ShipmentGet returns one shipment by id.
func ShipmentGet(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}

// ShipmentTrack looks a shipment up by AWB.
func ShipmentTrack(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		awb := strings.TrimSpace(chi.URLParam(r, "awb"))
		if awb == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "awb required"))
			return
		}

		shipment, err := svc.GetByAWB(r.Context(), awb)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}

// ShipmentUpdate patches customer-facing shipment details.
func ShipmentUpdate(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shipmentUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, shipments.UpdateInput{
			CustomerName:       payload.CustomerName,
			CustomerPhone:      payload.CustomerPhone,
			PickupAddress:      payload.PickupAddress,
			DeliveryAddress:    payload.DeliveryAddress,
			PackageDescription: payload.PackageDescription,
			NumberOfItems:      payload.NumberOfItems,
			Weight:             payload.Weight,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// ShipmentDelete removes a shipment that never entered the warehouse.
func ShipmentDelete(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ShipmentReschedule books a new delivery slot.
func ShipmentReschedule(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shipmentRescheduleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Reschedule(r.Context(), id, shipments.RescheduleInput{
			Date:   payload.Date,
			Time:   payload.Time,
			Reason: payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// ShipmentFollowUpCreate appends a follow-up note.
func ShipmentFollowUpCreate(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload followUpCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		createdBy := middleware.UsernameFromContext(r.Context())
		if createdBy == "" {
			createdBy = "system"
		}

		followUp, err := svc.AddFollowUp(r.Context(), id, shipments.FollowUpInput{
			Notes:        payload.Notes,
			FollowUpDate: payload.FollowUpDate,
			CreatedBy:    createdBy,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, followUp)
	}
}

// ShipmentFollowUpList returns the note trail, oldest first.
func ShipmentFollowUpList(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListFollowUps(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
