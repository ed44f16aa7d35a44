package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/logitrack/logitrack-backend/api/responses"
	"github.com/logitrack/logitrack-backend/api/validators"
	"github.com/logitrack/logitrack-backend/internal/couriers"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/logger"
	"github.com/logitrack/logitrack-backend/pkg/types"
)

type courierCreateRequest struct {
	Name          string   `json:"name" validate:"required"`
	Phone         string   `json:"phone" validate:"required"`
	Email         *string  `json:"email" validate:"omitempty,email"`
	VehicleNumber string   `json:"vehicle_number" validate:"required"`
	VehicleType   string   `json:"vehicle_type" validate:"required"`
	Routes        []string `json:"routes"`
}

type courierUpdateRequest struct {
	Name          *string   `json:"name"`
	Phone         *string   `json:"phone"`
	Email         *string   `json:"email" validate:"omitempty,email"`
	VehicleNumber *string   `json:"vehicle_number"`
	VehicleType   *string   `json:"vehicle_type"`
	Status        *string   `json:"status"`
	Routes        *[]string `json:"routes"`
}

func (r courierUpdateRequest) toInput() (couriers.UpdateInput, error) {
	input := couriers.UpdateInput{
		Name:          r.Name,
		Phone:         r.Phone,
		Email:         r.Email,
		VehicleNumber: r.VehicleNumber,
		VehicleType:   r.VehicleType,
	}
	if r.Status != nil {
		status, err := enums.ParseCourierStatus(strings.TrimSpace(*r.Status))
		if err != nil {
			return couriers.UpdateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid courier status")
		}
		input.Status = &status
	}
	if r.Routes != nil {
		routes := types.StringList(*r.Routes)
		input.Routes = &routes
	}
	return input, nil
}

// CourierCreate registers a new field agent.
func CourierCreate(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload courierCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), couriers.CreateInput{
			Name:          payload.Name,
			Phone:         payload.Phone,
			Email:         payload.Email,
			VehicleNumber: payload.VehicleNumber,
			VehicleType:   payload.VehicleType,
			Routes:        types.StringList(payload.Routes),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// CourierList returns couriers, optionally filtered by status.
func CourierList(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.CourierStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseCourierStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid courier status"))
				return
			}
			status = &parsed
		}

		list, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// CourierGet returns one courier by id.
func CourierGet(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		courier, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, courier)
	}
}

// CourierUpdate patches courier details.
func CourierUpdate(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload courierUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// CourierDelete removes a courier with no active assignments.
func CourierDelete(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
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

// CourierStats returns live workload counters for one courier.
func CourierStats(svc couriers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}
