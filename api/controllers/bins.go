package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/logitrack/logitrack-backend/api/responses"
	"github.com/logitrack/logitrack-backend/api/validators"
	"github.com/logitrack/logitrack-backend/internal/bins"
	"github.com/logitrack/logitrack-backend/pkg/logger"
)

type binCreateRequest struct {
	Name     string `json:"name" validate:"required"`
	Route    string `json:"route" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
}

type binUpdateRequest struct {
	Name     *string `json:"name"`
	Route    *string `json:"route"`
	Capacity *int    `json:"capacity" validate:"omitempty,gt=0"`
}

// BinCreate registers a staging bin.
func BinCreate(svc bins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload binCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), bins.CreateInput{
			Name:     payload.Name,
			Route:    payload.Route,
			Capacity: payload.Capacity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// BinList returns all bins with live occupancy.
func BinList(svc bins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// BinGet returns one bin by id.
func BinGet(svc bins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bin, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, bin)
	}
}

// BinUpdate patches bin details.
func BinUpdate(svc bins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload binUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, bins.UpdateInput{
			Name:     payload.Name,
			Route:    payload.Route,
			Capacity: payload.Capacity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// BinDelete removes an empty bin.
func BinDelete(svc bins.Service, logg *logger.Logger) http.HandlerFunc {
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
