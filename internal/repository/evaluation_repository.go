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

const evaluationColumns = `id, title, date, max_score, coefficient, course_id, class_id, created_at, updated_at`

// EvaluationRepository persists graded events.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs an EvaluationRepository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// List returns evaluations.
func (r *EvaluationRepository) List(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	base := "FROM evaluations WHERE " + strings.Join(conditions, " AND ")
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY date DESC LIMIT %d OFFSET %d", evaluationColumns, base, limit, offset)

	var evaluations []models.Evaluation
	if err := r.db.SelectContext(ctx, &evaluations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list evaluations: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count evaluations: %w", err)
	}
	return evaluations, total, nil
}

// FindByID returns an evaluation by ID.
func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.db.GetContext(ctx, &evaluation, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return &evaluation, nil
}

// Create inserts an evaluation.
func (r *EvaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	evaluation.CreatedAt = now
	evaluation.UpdatedAt = now
	const query = `INSERT INTO evaluations (id, title, date, max_score, coefficient, course_id, class_id, created_at, updated_at)
        VALUES (:id, :title, :date, :max_score, :coefficient, :course_id, :class_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, evaluation); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

// Update modifies an evaluation.
func (r *EvaluationRepository) Update(ctx context.Context, evaluation *models.Evaluation) error {
	evaluation.UpdatedAt = time.Now().UTC()
	const query = `UPDATE evaluations SET title = :title, date = :date, max_score = :max_score, coefficient = :coefficient,
        course_id = :course_id, class_id = :class_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, evaluation); err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	return nil
}

// Delete removes an evaluation and, by cascade, its grades.
func (r *EvaluationRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, "delete evaluation", `DELETE FROM evaluations WHERE id = $1`, id)
}
