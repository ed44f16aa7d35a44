package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logitrack/logitrack-backend/api/middleware"
	"github.com/logitrack/logitrack-backend/api/responses"
	"github.com/logitrack/logitrack-backend/api/validators"
	"github.com/logitrack/logitrack-backend/internal/pickups"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/logger"
	"github.com/logitrack/logitrack-backend/pkg/types"
)

type sellerItemRequest struct {
	Category string `json:"category" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type shoppingItemRequest struct {
	ItemName string `json:"item_name" validate:"required"`
	Value    string `json:"value" validate:"required"`
}

type pickupCreateRequest struct {
	Kind          string  `json:"kind" validate:"required"`
	CustomerName  string  `json:"customer_name" validate:"required"`
	CustomerPhone string  `json:"customer_phone" validate:"required"`
	Address       string  `json:"address" validate:"required"`
	SellerItems   []sellerItemRequest   `json:"seller_items" validate:"omitempty,dive"`
	OriginalAWB   *string `json:"original_awb"`
	ReturnReason  *string `json:"return_reason"`
	ShoppingItems []shoppingItemRequest `json:"shopping_items" validate:"omitempty,dive"`
}

type pickupAssignRequest struct {
	CourierID string `json:"courier_id" validate:"required,uuid"`
}

type pickupItemsRequest struct {
	Items []shoppingItemRequest `json:"items" validate:"required,min=1,dive"`
}

type pickupCompleteRequest struct {
	DeliveredItems []int   `json:"delivered_items"`
	ProofImage     string  `json:"proof_image" validate:"required"`
	Latitude       float64 `json:"latitude" validate:"required"`
	Longitude      float64 `json:"longitude" validate:"required"`
	Notes          *string `json:"notes"`
}

func parseShoppingItems(raw []shoppingItemRequest) ([]types.ShoppingItem, error) {
	items := make([]types.ShoppingItem, 0, len(raw))
	for _, item := range raw {
		value, err := decimal.NewFromString(strings.TrimSpace(item.Value))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item value")
		}
		items = append(items, types.ShoppingItem{
			ItemName: strings.TrimSpace(item.ItemName),
			Value:    value,
		})
	}
	return items, nil
}

func (r pickupCreateRequest) toInput(actor string) (pickups.CreateInput, error) {
	kind, err := enums.ParsePickupKind(strings.TrimSpace(r.Kind))
	if err != nil {
		return pickups.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid pickup kind")
	}

	input := pickups.CreateInput{
		Kind:          kind,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Address:       r.Address,
		OriginalAWB:   r.OriginalAWB,
		ReturnReason:  r.ReturnReason,
		Actor:         actor,
	}

	for _, item := range r.SellerItems {
		input.SellerItems = append(input.SellerItems, types.SellerItem{
			Category: strings.TrimSpace(item.Category),
			Quantity: item.Quantity,
		})
	}

	shoppingItems, err := parseShoppingItems(r.ShoppingItems)
	if err != nil {
		return pickups.CreateInput{}, err
	}
	input.ShoppingItems = shoppingItems

	return input, nil
}

func actorFromContext(r *http.Request) string {
	if username := middleware.UsernameFromContext(r.Context()); username != "" {
		return username
	}
	return "system"
}

// PickupCreate registers a pickup order of any kind.
func PickupCreate(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload pickupCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(actorFromContext(r))
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

// PickupList returns pickups filtered by kind, status, or courier.
func PickupList(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter pickups.ListFilter

		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParsePickupKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid pickup kind"))
				return
			}
			filter.Kind = &kind
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePickupStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid pickup status"))
				return
			}
			filter.Status = &status
		}

		courierID, err := validators.ParseQueryUUID(r, "courier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.CourierID = courierID

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// PickupGet returns one pickup by id.
func PickupGet(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pickup, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickup)
	}
}

// PickupAssign hands a pending pickup to a courier.
func PickupAssign(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pickupAssignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		courierID, err := uuid.Parse(payload.CourierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid courier id"))
			return
		}

		pickup, err := svc.Assign(r.Context(), id, courierID, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickup)
	}
}

// PickupItemsUpdate replaces a personal shopping order's item list before
// any delivery round has run.
func PickupItemsUpdate(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pickupItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := parseShoppingItems(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pickup, err := svc.UpdateShoppingItems(r.Context(), id, items, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickup)
	}
}

// PickupComplete closes a delivery round. Personal shopping orders may land
// on partial when some items stay undelivered.
func PickupComplete(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pickupCompleteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pickup, err := svc.Complete(r.Context(), id, pickups.CompleteInput{
			DeliveredItems: payload.DeliveredItems,
			ProofImage:     payload.ProofImage,
			Latitude:       payload.Latitude,
			Longitude:      payload.Longitude,
			Notes:          payload.Notes,
			Actor:          actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickup)
	}
}

// PickupCancel aborts a pickup that has not completed.
func PickupCancel(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
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

		pickup, err := svc.Cancel(r.Context(), id, payload.Notes, actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickup)
	}
}

// PickupHistory returns the append-only action trail, oldest first.
func PickupHistory(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.History(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, history)
	}
}
