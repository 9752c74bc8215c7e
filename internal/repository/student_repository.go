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
	"github.com/lib/pq"

	"github.com/noah-isme/school-admin-api/internal/models"
)

const studentColumns = `id, user_id, class_id, parent_id, first_name, last_name, birth_date, created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.ParentID != "" {
		conditions = append(conditions, fmt.Sprintf("parent_id = $%d", len(args)+1))
		args = append(args, filter.ParentID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(first_name || ' ' || last_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	base := "FROM students WHERE " + strings.Join(conditions, " AND ")

	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY last_name ASC, first_name ASC LIMIT %d OFFSET %d", studentColumns, base, limit, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// ExistingIDs returns the subset of ids that exist.
func (r *StudentRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	if err := r.db.SelectContext(ctx, &found, `SELECT id FROM students WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("check students: %w", err)
	}
	return found, nil
}

// IDsForUser resolves the student profiles a STUDENT or PARENT account may see.
func (r *StudentRepository) IDsForUser(ctx context.Context, userID string, role models.UserRole) ([]string, error) {
	var query string
	switch role {
	case models.RoleStudent:
		query = `SELECT id FROM students WHERE user_id = $1`
	case models.RoleParent:
		query = `SELECT s.id FROM students s JOIN parents p ON p.id = s.parent_id WHERE p.user_id = $1`
	default:
		return nil, nil
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("resolve students for user: %w", err)
	}
	return ids, nil
}

// ParentContacts returns the mailing details of the parents of the given students. Students
// without a parent or a parent without an email are skipped.
func (r *StudentRepository) ParentContacts(ctx context.Context, studentIDs []string) ([]models.ParentContact, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT s.id AS student_id, s.first_name || ' ' || s.last_name AS student_name,
        p.first_name || ' ' || p.last_name AS parent_name, p.email
        FROM students s JOIN parents p ON p.id = s.parent_id
        WHERE s.id = ANY($1) AND p.email <> ''`
	var contacts []models.ParentContact
	if err := r.db.SelectContext(ctx, &contacts, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list parent contacts: %w", err)
	}
	return contacts, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, class_id, parent_id, first_name, last_name, birth_date, created_at, updated_at)
        VALUES (:id, :user_id, :class_id, :parent_id, :first_name, :last_name, :birth_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET user_id = :user_id, class_id = :class_id, parent_id = :parent_id, first_name = :first_name,
        last_name = :last_name, birth_date = :birth_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student. Grades, report cards and billing rows cascade.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, "delete student", `DELETE FROM students WHERE id = $1`, id)
}
