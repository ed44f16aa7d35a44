package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/logitrack/logitrack-backend/api/responses"
	"github.com/logitrack/logitrack-backend/api/validators"
	"github.com/logitrack/logitrack-backend/internal/attempts"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/logger"
)

type attemptRecordRequest struct {
	Outcome          string   `json:"outcome" validate:"required"`
	PaymentCollected *string  `json:"payment_collected"`
	PaymentMethod    *string  `json:"payment_method"`
	Notes            *string  `json:"notes"`
	RescheduledDate  *string  `json:"rescheduled_date"`
	ProofImage       *string  `json:"proof_image"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}

func (r attemptRecordRequest) toInput() (attempts.RecordInput, error) {
	outcome, err := enums.ParseAttemptOutcome(strings.TrimSpace(r.Outcome))
	if err != nil {
		return attempts.RecordInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid attempt outcome")
	}

	input := attempts.RecordInput{
		Outcome:          outcome,
		PaymentCollected: decimal.Zero,
		Notes:            r.Notes,
		RescheduledDate:  r.RescheduledDate,
		ProofImage:       r.ProofImage,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
	}

	if r.PaymentCollected != nil {
		amount, err := decimal.NewFromString(strings.TrimSpace(*r.PaymentCollected))
		if err != nil {
			return attempts.RecordInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment_collected")
		}
		input.PaymentCollected = amount
	}

	if r.PaymentMethod != nil {
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(*r.PaymentMethod))
		if err != nil {
			return attempts.RecordInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
		}
		input.PaymentMethod = &method
	}

	return input, nil
}

// AttemptRecord logs a doorstep outcome and moves the shipment accordingly.
func AttemptRecord(svc attempts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload attemptRecordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		attempt, err := svc.Record(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, attempt)
	}
}

// AttemptList returns a shipment's attempt trail, oldest first.
func AttemptList(svc attempts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByShipment(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
