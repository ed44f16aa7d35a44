package bins

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/logitrack/logitrack-backend/pkg/db"
	"github.com/logitrack/logitrack-backend/pkg/db/models"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput registers a new bin location.
type CreateInput struct {
	Name     string
	Route    string
	Capacity int
}

// UpdateInput carries the editable bin fields.
type UpdateInput struct {
	Name     *string
	Route    *string
	Capacity *int
}

// Service defines bin location management operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.BinLocation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.BinLocation, error)
	List(ctx context.Context) ([]models.BinLocation, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.BinLocation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a bin location service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bins repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.BinLocation, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bin name required")
	}
	if strings.TrimSpace(input.Route) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bin route required")
	}
	if input.Capacity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bin capacity must be positive")
	}

	bin := &models.BinLocation{
		Name:     strings.TrimSpace(input.Name),
		Route:    strings.TrimSpace(input.Route),
		Capacity: input.Capacity,
	}
	if _, err := s.repo.Create(ctx, bin); err != nil {
		if dbpkg.IsUniqueViolation(err, "name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "bin name already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bin")
	}
	return bin, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.BinLocation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bin id required")
	}
	bin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bin not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bin")
	}
	return bin, nil
}

func (s *service) List(ctx context.Context) ([]models.BinLocation, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bins")
	}
	return rows, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.BinLocation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bin id required")
	}

	var updated *models.BinLocation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bin, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bin not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bin")
		}

		if input.Name != nil {
			bin.Name = strings.TrimSpace(*input.Name)
		}
		if input.Route != nil {
			bin.Route = strings.TrimSpace(*input.Route)
		}
		if input.Capacity != nil {
			if *input.Capacity < bin.CurrentCount {
				return pkgerrors.New(pkgerrors.CodeCapacity, "capacity cannot drop below current occupancy")
			}
			bin.Capacity = *input.Capacity
		}

		if err := repo.Save(ctx, bin); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save bin")
		}
		updated = bin
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "bin id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bin, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bin not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bin")
		}
		if bin.CurrentCount > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "bin still holds shipments")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete bin")
		}
		return nil
	})
}
