package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

const schoolDayColumns = `id, day_of_week, day_start, day_end, break_start, break_end, created_at, updated_at`

// SchoolDayConfigRepository persists the per-weekday opening hours.
type SchoolDayConfigRepository struct {
	db *sqlx.DB
}

// NewSchoolDayConfigRepository constructs a SchoolDayConfigRepository.
func NewSchoolDayConfigRepository(db *sqlx.DB) *SchoolDayConfigRepository {
	return &SchoolDayConfigRepository{db: db}
}

// List returns every configured day ordered Monday first.
func (r *SchoolDayConfigRepository) List(ctx context.Context) ([]models.SchoolDayConfig, error) {
	var configs []models.SchoolDayConfig
	if err := r.db.SelectContext(ctx, &configs, `SELECT `+schoolDayColumns+` FROM school_day_configs ORDER BY day_of_week ASC`); err != nil {
		return nil, fmt.Errorf("list school day configs: %w", err)
	}
	return configs, nil
}

// FindByID returns a configuration.
func (r *SchoolDayConfigRepository) FindByID(ctx context.Context, id string) (*models.SchoolDayConfig, error) {
	var cfg models.SchoolDayConfig
	if err := r.db.GetContext(ctx, &cfg, `SELECT `+schoolDayColumns+` FROM school_day_configs WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get school day config: %w", err)
	}
	return &cfg, nil
}

// Upsert creates the configuration of a weekday or replaces the existing one.
func (r *SchoolDayConfigRepository) Upsert(ctx context.Context, cfg *models.SchoolDayConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	const query = `INSERT INTO school_day_configs (id, day_of_week, day_start, day_end, break_start, break_end, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
        ON CONFLICT ON CONSTRAINT school_day_configs_day_key DO UPDATE SET
            day_start = EXCLUDED.day_start, day_end = EXCLUDED.day_end,
            break_start = EXCLUDED.break_start, break_end = EXCLUDED.break_end, updated_at = EXCLUDED.updated_at
        RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, cfg.ID, cfg.DayOfWeek, cfg.DayStart, cfg.DayEnd, cfg.BreakStart, cfg.BreakEnd, now)
	if err := row.Scan(&cfg.ID, &cfg.CreatedAt); err != nil {
		return fmt.Errorf("upsert school day config: %w", err)
	}
	return nil
}

// Delete removes a configuration.
func (r *SchoolDayConfigRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, "delete school day config", `DELETE FROM school_day_configs WHERE id = $1`, id)
}
