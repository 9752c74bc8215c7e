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

const parentColumns = `id, user_id, first_name, last_name, email, phone, created_at, updated_at`

// ParentRepository handles persistence for parents and guardians.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// List returns parents matching the filter.
func (r *ParentRepository) List(ctx context.Context, filter models.PersonFilter) ([]models.Parent, int, error) {
	base := "FROM parents WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		base += " AND (LOWER(first_name || ' ' || last_name) LIKE $1 OR LOWER(email) LIKE $1)"
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY last_name ASC, first_name ASC LIMIT %d OFFSET %d", parentColumns, base, limit, offset)

	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list parents: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count parents: %w", err)
	}
	return parents, total, nil
}

// FindByID fetches a parent.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, `SELECT `+parentColumns+` FROM parents WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get parent: %w", err)
	}
	return &parent, nil
}

// FindByUserID returns the parent profile attached to an account.
func (r *ParentRepository) FindByUserID(ctx context.Context, userID string) (*models.Parent, error) {
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, `SELECT `+parentColumns+` FROM parents WHERE user_id = $1 LIMIT 1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get parent by user: %w", err)
	}
	return &parent, nil
}

// Create inserts a parent.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	parent.CreatedAt = now
	parent.UpdatedAt = now
	const query = `INSERT INTO parents (id, user_id, first_name, last_name, email, phone, created_at, updated_at)
        VALUES (:id, :user_id, :first_name, :last_name, :email, :phone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}

// Update modifies a parent.
func (r *ParentRepository) Update(ctx context.Context, parent *models.Parent) error {
	parent.UpdatedAt = time.Now().UTC()
	const query = `UPDATE parents SET user_id = :user_id, first_name = :first_name, last_name = :last_name, email = :email,
        phone = :phone, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	return nil
}

// Delete removes a parent. Linked students keep their record with parent_id cleared.
func (r *ParentRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, "delete parent", `DELETE FROM parents WHERE id = $1`, id)
}
