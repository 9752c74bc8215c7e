package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

// ClassRequest captures the create and update payload of a class.
type ClassRequest struct {
	Name      string  `json:"name" validate:"required,notblank,max=64"`
	Level     string  `json:"level" validate:"required,notblank,max=32"`
	Year      string  `json:"year" validate:"required,notblank,max=16"`
	TeacherID *string `json:"teacher_id" validate:"omitempty,uuid"`
}

const duplicateClassMessage = "Une classe portant ce nom existe déjà pour cette année"

// ClassService coordinates class operations.
type ClassService struct {
	repo      classRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, validate *validation.Validator, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les classes")
	}
	return classes, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a class.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Classe introuvable", "Impossible de charger la classe")
	}
	return class, nil
}

// Create adds a new class. (name, year) is unique.
func (s *ClassService) Create(ctx context.Context, req ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	class := &models.Class{Name: req.Name, Level: req.Level, Year: req.Year, TeacherID: req.TeacherID}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, writeError(err, duplicateClassMessage, "Enseignant inexistant", "Impossible de créer la classe")
	}
	return class, nil
}

// Update modifies a class record.
func (s *ClassService) Update(ctx context.Context, id string, req ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	class.Name, class.Level, class.Year, class.TeacherID = req.Name, req.Level, req.Year, req.TeacherID
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, writeError(err, duplicateClassMessage, "Enseignant inexistant", "Impossible de mettre à jour la classe")
	}
	return class, nil
}

// Delete removes a class. The store rejects the delete while schedules or evaluations reference it.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "", "Impossible de supprimer une classe qui possède encore des emplois du temps ou des évaluations", "Impossible de supprimer la classe")
	}
	s.logger.Info("class deleted", zap.String("class_id", id))
	return nil
}
