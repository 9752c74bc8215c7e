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

const scheduleEntrySelect = `SELECT sc.id, sc.class_id, sc.course_id, sc.teacher_id, sc.time_slot_id, sc.room, sc.created_at, sc.updated_at,
        ts.day_of_week, ts.start_time, ts.end_time, co.name AS course_name
        FROM schedules sc
        JOIN time_slots ts ON ts.id = sc.time_slot_id
        JOIN courses co ON co.id = sc.course_id`

// ScheduleRepository provides persistence for class schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules joined with their slot, ordered by day and start time.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("sc.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("sc.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.DayOfWeek != 0 {
		conditions = append(conditions, fmt.Sprintf("ts.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	query := fmt.Sprintf("%s WHERE %s ORDER BY ts.day_of_week ASC, ts.start_time ASC", scheduleEntrySelect, strings.Join(conditions, " AND "))

	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return entries, nil
}

// FindConflictWithTx returns the schedule already occupying the slot for the class or the teacher.
// It returns nil when the slot is free for both.
func (r *ScheduleRepository) FindConflictWithTx(ctx context.Context, tx *sqlx.Tx, classID, teacherID, timeSlotID string) (*models.ScheduleConflict, error) {
	const query = `SELECT id, CASE WHEN class_id = $1 THEN 'CLASS' ELSE 'TEACHER' END AS dimension
        FROM schedules WHERE time_slot_id = $3 AND (class_id = $1 OR teacher_id = $2)
        ORDER BY dimension ASC LIMIT 1`
	var row struct {
		ID        string `db:"id"`
		Dimension string `db:"dimension"`
	}
	if err := tx.GetContext(ctx, &row, query, classID, teacherID, timeSlotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find schedule conflict: %w", err)
	}
	return &models.ScheduleConflict{ScheduleID: row.ID, Dimension: row.Dimension}, nil
}

// CreateWithTx stores a schedule inside the caller's transaction.
func (r *ScheduleRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	const query = `INSERT INTO schedules (id, class_id, course_id, teacher_id, time_slot_id, room, created_at, updated_at)
        VALUES (:id, :class_id, :course_id, :teacher_id, :time_slot_id, :room, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule by id.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, "delete schedule", `DELETE FROM schedules WHERE id = $1`, id)
}
