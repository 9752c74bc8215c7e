package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

type parentRepository interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Parent, int, error)
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	Create(ctx context.Context, parent *models.Parent) error
	Update(ctx context.Context, parent *models.Parent) error
	Delete(ctx context.Context, id string) error
}

// TeacherRequest is the create and update payload of a teacher.
type TeacherRequest struct {
	FirstName string  `json:"first_name" validate:"required,notblank"`
	LastName  string  `json:"last_name" validate:"required,notblank"`
	Email     string  `json:"email" validate:"omitempty,email"`
	Phone     string  `json:"phone" validate:"omitempty,max=32"`
	Specialty string  `json:"specialty" validate:"omitempty,max=120"`
	UserID    *string `json:"user_id" validate:"omitempty,uuid"`
}

// ParentRequest is the create and update payload of a parent.
type ParentRequest struct {
	FirstName string  `json:"first_name" validate:"required,notblank"`
	LastName  string  `json:"last_name" validate:"required,notblank"`
	Email     string  `json:"email" validate:"omitempty,email"`
	Phone     string  `json:"phone" validate:"omitempty,max=32"`
	UserID    *string `json:"user_id" validate:"omitempty,uuid"`
}

// TeacherService manages teachers.
type TeacherService struct {
	repo      teacherRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(repo teacherRepository, validate *validation.Validator, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns teachers.
func (s *TeacherService) List(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les enseignants")
	}
	return teachers, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Enseignant introuvable", "Impossible de charger l'enseignant")
	}
	return teacher, nil
}

// Create inserts a teacher.
func (s *TeacherService) Create(ctx context.Context, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	teacher := &models.Teacher{FirstName: req.FirstName, LastName: req.LastName, Email: req.Email, Phone: req.Phone, Specialty: req.Specialty, UserID: req.UserID}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, writeError(err, "", "Compte utilisateur inexistant", "Impossible de créer l'enseignant")
	}
	return teacher, nil
}

// Update modifies a teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	teacher.FirstName, teacher.LastName = req.FirstName, req.LastName
	teacher.Email, teacher.Phone, teacher.Specialty = req.Email, req.Phone, req.Specialty
	teacher.UserID = req.UserID
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, writeError(err, "", "Compte utilisateur inexistant", "Impossible de mettre à jour l'enseignant")
	}
	return teacher, nil
}

// Delete removes a teacher. Schedules or grades still pointing at them keep the row alive.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "", "Enseignant encore affecté à un emploi du temps", "Impossible de supprimer l'enseignant")
	}
	return nil
}

// ParentService manages parents.
type ParentService struct {
	repo      parentRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewParentService constructs ParentService.
func NewParentService(repo parentRepository, validate *validation.Validator, logger *zap.Logger) *ParentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentService{repo: repo, validator: validate, logger: logger}
}

// List returns parents.
func (s *ParentService) List(ctx context.Context, filter models.PersonFilter) ([]models.Parent, *models.Pagination, error) {
	parents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les parents")
	}
	return parents, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a parent.
func (s *ParentService) Get(ctx context.Context, id string) (*models.Parent, error) {
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Parent introuvable", "Impossible de charger le parent")
	}
	return parent, nil
}

// Create inserts a parent.
func (s *ParentService) Create(ctx context.Context, req ParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	parent := &models.Parent{FirstName: req.FirstName, LastName: req.LastName, Email: req.Email, Phone: req.Phone, UserID: req.UserID}
	if err := s.repo.Create(ctx, parent); err != nil {
		return nil, writeError(err, "", "Compte utilisateur inexistant", "Impossible de créer le parent")
	}
	return parent, nil
}

// Update modifies a parent.
func (s *ParentService) Update(ctx context.Context, id string, req ParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	parent, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	parent.FirstName, parent.LastName = req.FirstName, req.LastName
	parent.Email, parent.Phone = req.Email, req.Phone
	parent.UserID = req.UserID
	if err := s.repo.Update(ctx, parent); err != nil {
		return nil, writeError(err, "", "Compte utilisateur inexistant", "Impossible de mettre à jour le parent")
	}
	return parent, nil
}

// Delete removes a parent.
func (s *ParentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "", "Parent encore référencé", "Impossible de supprimer le parent")
	}
	return nil
}
