package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type evaluationRepository interface {
	List(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, int, error)
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
	Create(ctx context.Context, evaluation *models.Evaluation) error
	Update(ctx context.Context, evaluation *models.Evaluation) error
	Delete(ctx context.Context, id string) error
}

// EvaluationRequest is the create and update payload of an evaluation.
type EvaluationRequest struct {
	Title       string    `json:"title" validate:"required,notblank,max=200"`
	Date        time.Time `json:"date" validate:"required"`
	MaxScore    float64   `json:"max_score" validate:"omitempty,gt=0,lte=1000"`
	Coefficient float64   `json:"coefficient" validate:"omitempty,gt=0,lte=20"`
	CourseID    string    `json:"course_id" validate:"required,uuid"`
	ClassID     string    `json:"class_id" validate:"required,uuid"`
}

// EvaluationService manages graded events.
type EvaluationService struct {
	repo      evaluationRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewEvaluationService constructs EvaluationService.
func NewEvaluationService(repo evaluationRepository, validate *validation.Validator, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{repo: repo, validator: validate, logger: logger}
}

// List returns evaluations.
func (s *EvaluationService) List(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, *models.Pagination, error) {
	evaluations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les évaluations")
	}
	return evaluations, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an evaluation.
func (s *EvaluationService) Get(ctx context.Context, id string) (*models.Evaluation, error) {
	evaluation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Évaluation introuvable", "Impossible de charger l'évaluation")
	}
	return evaluation, nil
}

// Create inserts an evaluation. Max score defaults to 20 and coefficient to 1.
func (s *EvaluationService) Create(ctx context.Context, req EvaluationRequest) (*models.Evaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	evaluation := &models.Evaluation{}
	applyEvaluationRequest(evaluation, req)
	if err := s.repo.Create(ctx, evaluation); err != nil {
		return nil, writeError(err, "", "Matière ou classe inexistante", "Impossible de créer l'évaluation")
	}
	return evaluation, nil
}

// Update modifies an evaluation.
func (s *EvaluationService) Update(ctx context.Context, id string, req EvaluationRequest) (*models.Evaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	evaluation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyEvaluationRequest(evaluation, req)
	if err := s.repo.Update(ctx, evaluation); err != nil {
		return nil, writeError(err, "", "Matière ou classe inexistante", "Impossible de mettre à jour l'évaluation")
	}
	return evaluation, nil
}

// Delete removes an evaluation and its grades.
func (s *EvaluationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "", "Évaluation encore référencée", "Impossible de supprimer l'évaluation")
	}
	return nil
}

func applyEvaluationRequest(evaluation *models.Evaluation, req EvaluationRequest) {
	evaluation.Title = req.Title
	evaluation.Date = req.Date
	evaluation.MaxScore = req.MaxScore
	if evaluation.MaxScore == 0 {
		evaluation.MaxScore = models.DefaultMaxScore
	}
	evaluation.Coefficient = req.Coefficient
	if evaluation.Coefficient == 0 {
		evaluation.Coefficient = 1
	}
	evaluation.CourseID = req.CourseID
	evaluation.ClassID = req.ClassID
}
