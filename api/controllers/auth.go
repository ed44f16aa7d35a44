package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/logitrack/logitrack-backend/api/middleware"
	"github.com/logitrack/logitrack-backend/api/responses"
	"github.com/logitrack/logitrack-backend/api/validators"
	"github.com/logitrack/logitrack-backend/internal/admins"
	"github.com/logitrack/logitrack-backend/pkg/db/models"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/logger"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type adminResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Admin     adminResponse `json:"admin"`
}

func adminResponseFromModel(m *models.Admin) adminResponse {
	return adminResponse{
		ID:        m.ID,
		Username:  m.Username,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}

// AuthRegister creates an operator account.
func AuthRegister(svc admins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		admin, err := svc.Register(r.Context(), admins.RegisterInput{
			Username: payload.Username,
			Password: payload.Password,
			Name:     payload.Name,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, adminResponseFromModel(admin))
	}
}

// AuthLogin exchanges credentials for an access token.
func AuthLogin(svc admins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), payload.Username, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionResponse{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
			Admin:     adminResponseFromModel(session.Admin),
		})
	}
}

// AuthMe returns the authenticated operator's profile.
func AuthMe(svc admins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID := middleware.AdminIDFromContext(r.Context())
		if adminID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		admin, err := svc.Me(r.Context(), adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, adminResponseFromModel(admin))
	}
}
