package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type memorySlotRepo struct {
	existing map[string]bool
	created  []models.TimeSlot
}

func (m *memorySlotRepo) List(ctx context.Context, dayOfWeek int) ([]models.TimeSlot, error) {
	return m.created, nil
}

func (m *memorySlotRepo) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	return nil, nil
}

func (m *memorySlotRepo) Create(ctx context.Context, slot *models.TimeSlot) error {
	if m.existing[slot.Key()] {
		return pqError("23505", "time_slots_day_start_end_key")
	}
	m.existing[slot.Key()] = true
	return nil
}

func (m *memorySlotRepo) InsertIfAbsentWithTx(ctx context.Context, tx *sqlx.Tx, slot *models.TimeSlot) (bool, error) {
	if m.existing[slot.Key()] {
		return false, nil
	}
	m.existing[slot.Key()] = true
	m.created = append(m.created, *slot)
	return true, nil
}

func (m *memorySlotRepo) Delete(ctx context.Context, id string) error {
	return pqError("23503", "schedules_time_slot_id_fkey")
}

type memoryDayRepo struct {
	configs  []models.SchoolDayConfig
	upserted *models.SchoolDayConfig
}

func (m *memoryDayRepo) List(ctx context.Context) ([]models.SchoolDayConfig, error) {
	return m.configs, nil
}

func (m *memoryDayRepo) Upsert(ctx context.Context, cfg *models.SchoolDayConfig) error {
	m.upserted = cfg
	return nil
}

func (m *memoryDayRepo) Delete(ctx context.Context, id string) error { return nil }

func TestGenerateTimeSlotsIsIdempotent(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	slots := &memorySlotRepo{existing: map[string]bool{"1|08:00|09:00": true}}
	days := &memoryDayRepo{configs: []models.SchoolDayConfig{
		{DayOfWeek: 1, DayStart: "08:00", BreakStart: "10:00", BreakEnd: "10:30", DayEnd: "12:30"},
	}}
	metrics := NewMetricsService()
	svc := NewTimetableService(slots, days, tx, metrics, 60, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()
	result, err := svc.GenerateTimeSlots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
	require.Len(t, result.Slots, 3)
	assert.Equal(t, "09:00", result.Slots[0].StartTime)
	assert.Equal(t, "10:30", result.Slots[1].StartTime)
	assert.Equal(t, "12:30", result.Slots[2].EndTime)

	mock.ExpectBegin()
	mock.ExpectCommit()
	result, err = svc.GenerateTimeSlots(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.NotNil(t, result.Slots)
	assert.Empty(t, result.Slots)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateTimeSlotsRejectsBrokenConfig(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	days := &memoryDayRepo{configs: []models.SchoolDayConfig{
		{DayOfWeek: 2, DayStart: "08:00", BreakStart: "13:00", BreakEnd: "12:00", DayEnd: "17:00"},
	}}
	svc := NewTimetableService(&memorySlotRepo{existing: map[string]bool{}}, days, tx, nil, 0, nil, nil)

	_, err := svc.GenerateTimeSlots(context.Background())
	assertAppError(t, err, appErrors.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertDayConfigChecksChronology(t *testing.T) {
	days := &memoryDayRepo{}
	svc := NewTimetableService(&memorySlotRepo{existing: map[string]bool{}}, days, nil, nil, 0, nil, nil)

	_, err := svc.UpsertDayConfig(context.Background(), SchoolDayConfigRequest{
		DayOfWeek: 3, DayStart: "08:00", BreakStart: "07:00", BreakEnd: "12:00", DayEnd: "17:00",
	})
	appErr := assertAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "break_start")

	_, err = svc.UpsertDayConfig(context.Background(), SchoolDayConfigRequest{
		DayOfWeek: 3, DayStart: "8h", BreakStart: "10:00", BreakEnd: "10:15", DayEnd: "17:00",
	})
	appErr = assertAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "day_start")

	cfg, err := svc.UpsertDayConfig(context.Background(), SchoolDayConfigRequest{
		DayOfWeek: 3, DayStart: "08:00", BreakStart: "10:00", BreakEnd: "10:15", DayEnd: "17:00",
	})
	require.NoError(t, err)
	assert.Equal(t, days.upserted, cfg)
}

func TestUpsertDayConfigPadsSingleDigitHours(t *testing.T) {
	days := &memoryDayRepo{}
	svc := NewTimetableService(&memorySlotRepo{existing: map[string]bool{}}, days, nil, nil, 0, nil, nil)

	cfg, err := svc.UpsertDayConfig(context.Background(), SchoolDayConfigRequest{
		DayOfWeek: 2, DayStart: "8:00", BreakStart: "9:30", BreakEnd: "10:00", DayEnd: "16:00",
	})
	require.NoError(t, err)
	require.NotNil(t, days.upserted)
	assert.Equal(t, "08:00", days.upserted.DayStart)
	assert.Equal(t, "09:30", days.upserted.BreakStart)
	assert.Equal(t, "10:00", days.upserted.BreakEnd)
	assert.Equal(t, "16:00", cfg.DayEnd)
	// The stored strings must keep the chronological order when compared as text.
	assert.Less(t, cfg.DayStart, cfg.BreakStart)
	assert.Less(t, cfg.BreakStart, cfg.BreakEnd)
	assert.Less(t, cfg.BreakEnd, cfg.DayEnd)
}

func TestCreateSlotRejectsReversedAndDuplicateSlots(t *testing.T) {
	slots := &memorySlotRepo{existing: map[string]bool{}}
	svc := NewTimetableService(slots, &memoryDayRepo{}, nil, nil, 0, nil, nil)

	_, err := svc.CreateSlot(context.Background(), TimeSlotRequest{DayOfWeek: 1, StartTime: "10:00", EndTime: "09:00"})
	appErr := assertAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "end_time")

	_, err = svc.CreateSlot(context.Background(), TimeSlotRequest{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)
	_, err = svc.CreateSlot(context.Background(), TimeSlotRequest{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"})
	assertAppError(t, err, appErrors.ErrDuplicate)

	err = svc.DeleteSlot(context.Background(), "slot-1")
	assertAppError(t, err, appErrors.ErrReferenced)
}
