package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

const gradeColumns = `id, student_id, evaluation_id, course_id, teacher_id, value, coefficient, graded_on, created_at, updated_at`

// GradeRepository persists grade entries.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grades matching the filter.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.EvaluationID != "" {
		conditions = append(conditions, fmt.Sprintf("evaluation_id = $%d", len(args)+1))
		args = append(args, filter.EvaluationID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("graded_on >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("graded_on <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	base := "FROM grades WHERE " + strings.Join(conditions, " AND ")
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY graded_on DESC, created_at DESC LIMIT %d OFFSET %d", gradeColumns, base, limit, offset)

	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return grades, total, nil
}

// ListForStudentBetween returns every grade of a student recorded within [from, to].
func (r *GradeRepository) ListForStudentBetween(ctx context.Context, studentID string, from, to time.Time) ([]models.Grade, error) {
	query := `SELECT ` + gradeColumns + ` FROM grades WHERE student_id = $1 AND graded_on BETWEEN $2 AND $3 ORDER BY graded_on ASC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}

// FindByID returns a grade.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, `SELECT `+gradeColumns+` FROM grades WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get grade: %w", err)
	}
	return &grade, nil
}

// Create inserts a grade.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	grade.CreatedAt = now
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, evaluation_id, course_id, teacher_id, value, coefficient, graded_on, created_at, updated_at)
        VALUES (:id, :student_id, :evaluation_id, :course_id, :teacher_id, :value, :coefficient, :graded_on, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update modifies the value, weight and date of a grade.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET value = :value, coefficient = :coefficient, graded_on = :graded_on, teacher_id = :teacher_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete removes a grade.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, "delete grade", `DELETE FROM grades WHERE id = $1`, id)
}
