package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, int, error)
	ListForStudentBetween(ctx context.Context, studentID string, from, to time.Time) ([]models.Grade, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
}

type evaluationReader interface {
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
}

type periodReader interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
}

type teacherProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

// GradeRequest is the create and update payload of a grade. CourseID may be omitted when the
// grade belongs to an evaluation.
type GradeRequest struct {
	StudentID    string     `json:"student_id" validate:"required,uuid"`
	EvaluationID *string    `json:"evaluation_id" validate:"omitempty,uuid"`
	CourseID     string     `json:"course_id" validate:"required_without=EvaluationID,omitempty,uuid"`
	Value        float64    `json:"value" validate:"gte=0"`
	Coefficient  float64    `json:"coefficient" validate:"omitempty,gt=0,lte=20"`
	GradedOn     *time.Time `json:"graded_on"`
}

// GradeService records grades and computes averages.
type GradeService struct {
	repo        gradeRepository
	evaluations evaluationReader
	periods     periodReader
	teachers    teacherProfileReader
	validator   *validation.Validator
	logger      *zap.Logger
	now         func() time.Time
}

// NewGradeService constructs GradeService.
func NewGradeService(repo gradeRepository, evaluations evaluationReader, periods periodReader, teachers teacherProfileReader, validate *validation.Validator, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		repo:        repo,
		evaluations: evaluations,
		periods:     periods,
		teachers:    teachers,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns grades.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error) {
	grades, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les notes")
	}
	return grades, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a grade.
func (s *GradeService) Get(ctx context.Context, id string) (*models.Grade, error) {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Note introuvable", "Impossible de charger la note")
	}
	return grade, nil
}

// Create records a grade. The value must lie in [0, maxScore] where maxScore comes from the
// evaluation, or 20 without one. Grades entered by a teacher are attributed to their profile.
func (s *GradeService) Create(ctx context.Context, req GradeRequest, actor *models.JWTClaims) (*models.Grade, error) {
	grade := &models.Grade{}
	if err := s.apply(ctx, grade, req); err != nil {
		return nil, err
	}
	if actor != nil && actor.Role == models.RoleTeacher && s.teachers != nil {
		teacher, err := s.teachers.FindByUserID(ctx, actor.UserID)
		switch {
		case err == nil:
			grade.TeacherID = &teacher.ID
		case !isNoRows(err):
			return nil, appErrors.Internal(err, "Impossible de charger le profil enseignant")
		}
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, writeError(err, "", "Élève, matière ou évaluation inexistant", "Impossible d'enregistrer la note")
	}
	s.logger.Info("grade recorded",
		zap.String("grade_id", grade.ID),
		zap.String("student_id", grade.StudentID),
		zap.Float64("value", grade.Value))
	return grade, nil
}

// Update rewrites a grade with the same bounds as Create.
func (s *GradeService) Update(ctx context.Context, id string, req GradeRequest) (*models.Grade, error) {
	grade, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, grade, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, grade); err != nil {
		return nil, writeError(err, "", "Élève, matière ou évaluation inexistant", "Impossible de mettre à jour la note")
	}
	return grade, nil
}

// Delete removes a grade.
func (s *GradeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "", "", "Impossible de supprimer la note")
	}
	return nil
}

// StudentAverage computes the weighted average of the grades a student received between the
// start and end dates of the period.
func (s *GradeService) StudentAverage(ctx context.Context, studentID, periodID string) (*models.StudentAverage, error) {
	period, err := s.periods.FindByID(ctx, periodID)
	if err != nil {
		return nil, lookupError(err, "Période introuvable", "Impossible de charger la période")
	}
	grades, err := s.repo.ListForStudentBetween(ctx, studentID, period.StartDate, period.EndDate)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de calculer la moyenne")
	}
	return &models.StudentAverage{
		StudentID:  studentID,
		PeriodID:   periodID,
		Average:    models.WeightedAverage(grades),
		GradeCount: len(grades),
	}, nil
}

func (s *GradeService) apply(ctx context.Context, grade *models.Grade, req GradeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	maxScore := models.DefaultMaxScore
	coefficient := req.Coefficient
	courseID := req.CourseID
	gradedOn := s.now()
	if req.EvaluationID != nil {
		evaluation, err := s.evaluations.FindByID(ctx, *req.EvaluationID)
		if err != nil {
			return lookupError(err, "Évaluation introuvable", "Impossible de charger l'évaluation")
		}
		maxScore = evaluation.MaxScore
		courseID = evaluation.CourseID
		gradedOn = evaluation.Date
		if coefficient == 0 {
			coefficient = evaluation.Coefficient
		}
	}
	if req.Value > maxScore {
		return appErrors.Validation("La note dépasse le barème", map[string]string{
			"value": "value doit être comprise entre 0 et " + formatScore(maxScore),
		})
	}
	if coefficient == 0 {
		coefficient = 1
	}
	if req.GradedOn != nil {
		gradedOn = *req.GradedOn
	}
	grade.StudentID = req.StudentID
	grade.EvaluationID = req.EvaluationID
	grade.CourseID = courseID
	grade.Value = req.Value
	grade.Coefficient = coefficient
	grade.GradedOn = gradedOn
	return nil
}
