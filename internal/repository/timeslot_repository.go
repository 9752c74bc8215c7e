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

const timeSlotColumns = `id, day_of_week, start_time, end_time, created_at`

// TimeSlotRepository persists recurring weekly slots.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs a TimeSlotRepository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// List returns slots, optionally for one weekday.
func (r *TimeSlotRepository) List(ctx context.Context, dayOfWeek int) ([]models.TimeSlot, error) {
	query := `SELECT ` + timeSlotColumns + ` FROM time_slots`
	var args []interface{}
	if dayOfWeek != 0 {
		query += ` WHERE day_of_week = $1`
		args = append(args, dayOfWeek)
	}
	query += ` ORDER BY day_of_week ASC, start_time ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// FindByID returns a slot.
func (r *TimeSlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, `SELECT `+timeSlotColumns+` FROM time_slots WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get time slot: %w", err)
	}
	return &slot, nil
}

// Create inserts a slot. A duplicate (day, start, end) surfaces as a unique violation.
func (r *TimeSlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	slot.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO time_slots (id, day_of_week, start_time, end_time, created_at) VALUES (:id, :day_of_week, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create time slot: %w", err)
	}
	return nil
}

// InsertIfAbsentWithTx inserts the slot unless one with the same day, start and end exists. It
// reports whether a row was created.
func (r *TimeSlotRepository) InsertIfAbsentWithTx(ctx context.Context, tx *sqlx.Tx, slot *models.TimeSlot) (bool, error) {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	slot.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO time_slots (id, day_of_week, start_time, end_time, created_at) VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT ON CONSTRAINT time_slots_day_start_end_key DO NOTHING`
	res, err := tx.ExecContext(ctx, query, slot.ID, slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert time slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert time slot rows affected: %w", err)
	}
	return affected == 1, nil
}

// Delete removes a slot. Schedules referencing it block the delete.
func (r *TimeSlotRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, "delete time slot", `DELETE FROM time_slots WHERE id = $1`, id)
}
