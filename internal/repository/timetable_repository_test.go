package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
)

func TestInsertIfAbsentWithTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT ON CONSTRAINT time_slots_day_start_end_key DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), 1, "08:00", "09:00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT ON CONSTRAINT time_slots_day_start_end_key DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), 1, "08:00", "09:00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	created, err := repo.InsertIfAbsentWithTx(context.Background(), tx, &models.TimeSlot{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.InsertIfAbsentWithTx(context.Background(), tx, &models.TimeSlot{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"})
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindConflictWithTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE time_slot_id = $3 AND (class_id = $1 OR teacher_id = $2)")).
		WithArgs("c1", "t1", "slot1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "dimension"}).AddRow("sch1", "TEACHER"))
	mock.ExpectQuery("FROM schedules WHERE time_slot_id").
		WithArgs("c2", "t2", "slot1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	conflict, err := repo.FindConflictWithTx(context.Background(), tx, "c1", "t1", "slot1")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, "TEACHER", conflict.Dimension)

	conflict, err = repo.FindConflictWithTx(context.Background(), tx, "c2", "t2", "slot1")
	require.NoError(t, err)
	assert.Nil(t, conflict)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolDayConfigUpsertReturnsStoredID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolDayConfigRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT ON CONSTRAINT school_day_configs_day_key DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), 1, "08:00", "16:00", "12:00", "13:00", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("existing", sqlmockTime()))

	cfg := &models.SchoolDayConfig{DayOfWeek: 1, DayStart: "08:00", DayEnd: "16:00", BreakStart: "12:00", BreakEnd: "13:00"}
	require.NoError(t, repo.Upsert(context.Background(), cfg))
	assert.Equal(t, "existing", cfg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
