package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/database"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
	FindConflictWithTx(ctx context.Context, tx *sqlx.Tx, classID, teacherID, timeSlotID string) (*models.ScheduleConflict, error)
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type timeSlotReader interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

// ScheduleRequest places a course in a time slot for a class and a teacher.
type ScheduleRequest struct {
	ClassID    string `json:"class_id" validate:"required,uuid"`
	CourseID   string `json:"course_id" validate:"required,uuid"`
	TeacherID  string `json:"teacher_id" validate:"required,uuid"`
	TimeSlotID string `json:"time_slot_id" validate:"required,uuid"`
	Room       string `json:"room" validate:"max=64"`
}

// ScheduleDeps groups the collaborators of ScheduleService.
type ScheduleDeps struct {
	Repo     scheduleRepository
	Classes  classReader
	Courses  courseReader
	Teachers teacherReader
	Slots    timeSlotReader
	Tx       txProvider
}

// ScheduleService books weekly timetable entries. A class and a teacher can each hold at most one
// schedule per time slot.
type ScheduleService struct {
	deps      ScheduleDeps
	validator *validation.Validator
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(deps ScheduleDeps, validate *validation.Validator, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{deps: deps, validator: validate, logger: logger}
}

// List returns timetable entries.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	entries, err := s.deps.Repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de charger l'emploi du temps")
	}
	return entries, nil
}

// Create books a schedule after checking every referenced record exists and that neither the
// class nor the teacher is already busy in the slot.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleRequest) (schedule *models.Schedule, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.deps.Classes.FindByID(ctx, req.ClassID); err != nil {
		return nil, lookupError(err, "Classe introuvable", "Impossible de charger la classe")
	}
	if _, err := s.deps.Courses.FindByID(ctx, req.CourseID); err != nil {
		return nil, lookupError(err, "Matière introuvable", "Impossible de charger la matière")
	}
	if _, err := s.deps.Teachers.FindByID(ctx, req.TeacherID); err != nil {
		return nil, lookupError(err, "Enseignant introuvable", "Impossible de charger l'enseignant")
	}
	if _, err := s.deps.Slots.FindByID(ctx, req.TimeSlotID); err != nil {
		return nil, lookupError(err, "Créneau introuvable", "Impossible de charger le créneau")
	}

	tx, err := s.deps.Tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de démarrer la transaction")
	}
	defer rollback(tx, &err)

	conflict, err := s.deps.Repo.FindConflictWithTx(ctx, tx, req.ClassID, req.TeacherID, req.TimeSlotID)
	if err != nil {
		return nil, appErrors.Internal(err, "Impossible de vérifier les conflits")
	}
	if conflict != nil {
		return nil, conflictError(conflict.Dimension)
	}
	schedule = &models.Schedule{
		ClassID:    req.ClassID,
		CourseID:   req.CourseID,
		TeacherID:  req.TeacherID,
		TimeSlotID: req.TimeSlotID,
		Room:       req.Room,
	}
	if err = s.deps.Repo.CreateWithTx(ctx, tx, schedule); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, conflictError(dimensionFromConstraint(database.ConstraintName(err)))
		}
		return nil, writeError(err, "", "Référence inexistante", "Impossible de créer l'emploi du temps")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "Impossible de valider l'emploi du temps")
	}
	s.logger.Info("schedule created",
		zap.String("schedule_id", schedule.ID),
		zap.String("class_id", schedule.ClassID),
		zap.String("time_slot_id", schedule.TimeSlotID))
	return schedule, nil
}

// Delete removes a schedule.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.deps.Repo.Delete(ctx, id); err != nil {
		return writeError(err, "", "", "Impossible de supprimer l'emploi du temps")
	}
	return nil
}

func conflictError(dimension string) error {
	subject := "La classe"
	if dimension == "TEACHER" {
		subject = "L'enseignant"
	}
	return appErrors.Clone(appErrors.ErrScheduleConflict, fmt.Sprintf("%s a déjà un cours sur ce créneau", subject))
}

func dimensionFromConstraint(name string) string {
	if name == "schedules_teacher_slot_key" {
		return "TEACHER"
	}
	return "CLASS"
}
