package admins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/auth"
	"github.com/logitrack/logitrack-backend/pkg/config"
	"github.com/logitrack/logitrack-backend/pkg/db"
	"github.com/logitrack/logitrack-backend/pkg/db/models"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/security"
)

// RegisterInput creates a dashboard operator account.
type RegisterInput struct {
	Username string
	Password string
	Name     string
}

// Session is a freshly minted login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Admin     *models.Admin
}

// Service handles operator registration and login.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Admin, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	Me(ctx context.Context, adminID uuid.UUID) (*models.Admin, error)
}

type service struct {
	repo Repository
	jwt  config.JWTConfig
	now  func() time.Time
}

// NewService builds an admins service with the required dependencies.
func NewService(repo Repository, jwt config.JWTConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("admins repository required")
	}
	if jwt.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{repo: repo, jwt: jwt, now: time.Now}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Admin, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	admin := &models.Admin{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
	}
	if _, err := s.repo.Create(ctx, admin); err != nil {
		if db.IsUniqueViolation(err, "username") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username is already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin")
	}
	return admin, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password required")
	}

	admin, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
	}

	ok, err := security.VerifyPassword(password, admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now()
	token, err := auth.MintAccessToken(s.jwt, now, auth.AccessTokenPayload{
		AdminID:  admin.ID,
		Username: admin.Username,
		JTI:      uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	return &Session{
		Token:     token,
		ExpiresAt: now.Add(s.jwt.Expiration()),
		Admin:     admin,
	}, nil
}

func (s *service) Me(ctx context.Context, adminID uuid.UUID) (*models.Admin, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no authenticated admin")
	}
	admin, err := s.repo.FindByID(ctx, adminID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
	}
	return admin, nil
}
