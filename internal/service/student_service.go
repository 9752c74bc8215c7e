package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	IDsForUser(ctx context.Context, userID string, role models.UserRole) ([]string, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentRequest is the create and update payload of a student.
type StudentRequest struct {
	FirstName string     `json:"first_name" validate:"required,notblank"`
	LastName  string     `json:"last_name" validate:"required,notblank"`
	BirthDate *time.Time `json:"birth_date"`
	ClassID   *string    `json:"class_id" validate:"omitempty,uuid"`
	ParentID  *string    `json:"parent_id" validate:"omitempty,uuid"`
	UserID    *string    `json:"user_id" validate:"omitempty,uuid"`
}

// StudentService manages student profiles.
type StudentService struct {
	repo      studentRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, validate *validation.Validator, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les élèves")
	}
	return students, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Élève introuvable", "Impossible de charger l'élève")
	}
	return student, nil
}

// VisibleTo reports whether a STUDENT or PARENT caller may read the student. Staff roles see all.
func (s *StudentService) VisibleTo(ctx context.Context, claims *models.JWTClaims, studentID string) (bool, error) {
	ids, err := s.OwnedBy(ctx, claims)
	if err != nil {
		return false, err
	}
	if ids == nil {
		return true, nil
	}
	for _, id := range ids {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

// OwnedBy returns the student IDs a STUDENT or PARENT caller is limited to. It returns nil for
// unrestricted roles and an empty non-nil slice when the caller owns no student.
func (s *StudentService) OwnedBy(ctx context.Context, claims *models.JWTClaims) ([]string, error) {
	if claims == nil || (claims.Role != models.RoleStudent && claims.Role != models.RoleParent) {
		return nil, nil
	}
	ids, err := s.repo.IDsForUser(ctx, claims.UserID, claims.Role)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de résoudre les élèves du compte")
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Create inserts a student.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	student := &models.Student{}
	applyStudentRequest(student, req)
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, writeError(err, "", "Classe, parent ou compte inexistant", "Impossible de créer l'élève")
	}
	return student, nil
}

// Update modifies a student.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStudentRequest(student, req)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, writeError(err, "", "Classe, parent ou compte inexistant", "Impossible de mettre à jour l'élève")
	}
	return student, nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "", "Élève encore référencé", "Impossible de supprimer l'élève")
	}
	return nil
}

func applyStudentRequest(student *models.Student, req StudentRequest) {
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.BirthDate = req.BirthDate
	student.ClassID = req.ClassID
	student.ParentID = req.ParentID
	student.UserID = req.UserID
}
