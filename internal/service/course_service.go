package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// CourseRequest is the create and update payload of a course.
type CourseRequest struct {
	Name        string  `json:"name" validate:"required,notblank,max=120"`
	Coefficient float64 `json:"coefficient" validate:"required,gt=0,lte=20"`
	Level       string  `json:"level" validate:"omitempty,max=32"`
	TeacherID   *string `json:"teacher_id" validate:"omitempty,uuid"`
}

// CourseService manages courses, also exposed as subjects.
type CourseService struct {
	repo      courseRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, validate *validation.Validator, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les matières")
	}
	return courses, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Matière introuvable", "Impossible de charger la matière")
	}
	return course, nil
}

// Create inserts a course.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	course := &models.Course{Name: req.Name, Coefficient: req.Coefficient, Level: req.Level, TeacherID: req.TeacherID}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, writeError(err, "", "Enseignant inexistant", "Impossible de créer la matière")
	}
	return course, nil
}

// Update modifies a course.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Name, course.Coefficient, course.Level, course.TeacherID = req.Name, req.Coefficient, req.Level, req.TeacherID
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, writeError(err, "", "Enseignant inexistant", "Impossible de mettre à jour la matière")
	}
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "", "Matière encore utilisée par des notes, évaluations ou emplois du temps", "Impossible de supprimer la matière")
	}
	return nil
}
