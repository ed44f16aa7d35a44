package couriers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
	"github.com/logitrack/logitrack-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput registers a new courier.
type CreateInput struct {
	Name          string
	Phone         string
	Email         *string
	VehicleNumber string
	VehicleType   string
	Routes        types.StringList
}

// UpdateInput carries the editable courier fields.
type UpdateInput struct {
	Name          *string
	Phone         *string
	Email         *string
	VehicleNumber *string
	VehicleType   *string
	Status        *enums.CourierStatus
	Routes        *types.StringList
}

// Service defines courier management operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Courier, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	List(ctx context.Context, status *enums.CourierStatus) ([]models.Courier, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Courier, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, id uuid.UUID) (*Stats, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a courier service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("couriers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Courier, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier name required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier phone required")
	}
	if strings.TrimSpace(input.VehicleNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle number required")
	}
	if strings.TrimSpace(input.VehicleType) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle type required")
	}

	courier := &models.Courier{
		Name:          strings.TrimSpace(input.Name),
		Phone:         strings.TrimSpace(input.Phone),
		Email:         input.Email,
		VehicleNumber: strings.TrimSpace(input.VehicleNumber),
		VehicleType:   strings.TrimSpace(input.VehicleType),
		Status:        enums.CourierStatusActive,
		Routes:        input.Routes,
	}
	if _, err := s.repo.Create(ctx, courier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create courier")
	}
	return courier, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	courier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
	}
	return courier, nil
}

func (s *service) List(ctx context.Context, status *enums.CourierStatus) ([]models.Courier, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid courier status")
	}
	rows, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list couriers")
	}
	return rows, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Courier, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid courier status")
	}

	var updated *models.Courier
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		courier, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
		}

		if input.Name != nil {
			courier.Name = strings.TrimSpace(*input.Name)
		}
		if input.Phone != nil {
			courier.Phone = strings.TrimSpace(*input.Phone)
		}
		if input.Email != nil {
			courier.Email = input.Email
		}
		if input.VehicleNumber != nil {
			courier.VehicleNumber = strings.TrimSpace(*input.VehicleNumber)
		}
		if input.VehicleType != nil {
			courier.VehicleType = strings.TrimSpace(*input.VehicleType)
		}
		if input.Status != nil {
			courier.Status = *input.Status
		}
		if input.Routes != nil {
			courier.Routes = *input.Routes
		}

		if err := repo.Save(ctx, courier); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save courier")
		}
		updated = courier
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
		}

		var open int64
		err := tx.WithContext(ctx).Model(&models.Shipment{}).
			Where("courier_id = ? AND status IN ?", id, []enums.ShipmentStatus{
				enums.ShipmentStatusAssignedToChamp,
				enums.ShipmentStatusOutForDelivery,
			}).
			Count(&open).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open shipments")
		}
		if open > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "courier still has shipments in custody")
		}

		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete courier")
		}
		return nil
	})
}

func (s *service) Stats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute courier stats")
	}
	return stats, nil
}
