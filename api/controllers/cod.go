package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/logitrack/logitrack-backend/api/responses"
	"github.com/logitrack/logitrack-backend/api/validators"
	"github.com/logitrack/logitrack-backend/internal/cod"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/logger"
)

type codReconcileRequest struct {
	AmountCollected string  `json:"amount_collected" validate:"required"`
	Notes           *string `json:"notes"`
}

func (r codReconcileRequest) toInput() (cod.ReconcileInput, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.AmountCollected))
	if err != nil {
		return cod.ReconcileInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid collected amount")
	}
	return cod.ReconcileInput{AmountCollected: amount, Notes: r.Notes}, nil
}

// CODPending lists collected cash that has not been settled yet.
func CODPending(svc cod.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courierID, err := validators.ParseQueryUUID(r, "courier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.ListPending(r.Context(), courierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// CODReconcile settles one shipment's collected cash, exactly once.
func CODReconcile(svc cod.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "shipmentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload codReconcileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.Reconcile(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}
