package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type periodRepository interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, int, error)
	FindByID(ctx context.Context, id string) (*models.Period, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
	Delete(ctx context.Context, id string) error
}

// PeriodRequest is the create and update payload of a period.
type PeriodRequest struct {
	Name       string              `json:"name" validate:"required,notblank,max=64"`
	SchoolYear string              `json:"school_year" validate:"required,notblank,max=16"`
	StartDate  time.Time           `json:"start_date" validate:"required"`
	EndDate    time.Time           `json:"end_date" validate:"required,gtfield=StartDate"`
	Status     models.PeriodStatus `json:"status" validate:"omitempty,oneof=UPCOMING ACTIVE CLOSED"`
}

// PeriodService manages grading periods.
type PeriodService struct {
	repo      periodRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewPeriodService constructs PeriodService.
func NewPeriodService(repo periodRepository, validate *validation.Validator, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, validator: validate, logger: logger}
}

// List returns periods.
func (s *PeriodService) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, *models.Pagination, error) {
	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les périodes")
	}
	return periods, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a period.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Période introuvable", "Impossible de charger la période")
	}
	return period, nil
}

// Create inserts a period.
func (s *PeriodService) Create(ctx context.Context, req PeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	period := &models.Period{}
	applyPeriodRequest(period, req)
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, writeError(err, "", "", "Impossible de créer la période")
	}
	return period, nil
}

// Update modifies a period.
func (s *PeriodService) Update(ctx context.Context, id string, req PeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPeriodRequest(period, req)
	if err := s.repo.Update(ctx, period); err != nil {
		return nil, writeError(err, "", "", "Impossible de mettre à jour la période")
	}
	return period, nil
}

// Delete removes a period without report cards.
func (s *PeriodService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "", "Des bulletins existent pour cette période", "Impossible de supprimer la période")
	}
	return nil
}

func applyPeriodRequest(period *models.Period, req PeriodRequest) {
	period.Name = req.Name
	period.SchoolYear = req.SchoolYear
	period.StartDate = req.StartDate
	period.EndDate = req.EndDate
	period.Status = req.Status
	if period.Status == "" {
		period.Status = models.PeriodStatusUpcoming
	}
}
