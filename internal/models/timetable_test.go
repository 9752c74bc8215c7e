package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekday(day int, start, breakStart, breakEnd, end string) SchoolDayConfig {
	return SchoolDayConfig{DayOfWeek: day, DayStart: start, BreakStart: breakStart, BreakEnd: breakEnd, DayEnd: end}
}

func TestGenerateSlotsSplitsAroundBreak(t *testing.T) {
	slots, err := GenerateSlots(weekday(1, "08:00", "12:00", "13:00", "16:00"), 60)
	require.NoError(t, err)
	require.Len(t, slots, 7)

	var starts []string
	for _, s := range slots {
		starts = append(starts, s.StartTime)
		assert.Equal(t, 1, s.DayOfWeek)
		start, _ := ParseClock(s.StartTime)
		end, _ := ParseClock(s.EndTime)
		assert.False(t, start < 13*60 && end > 12*60, "slot %s-%s overlaps the break", s.StartTime, s.EndTime)
	}
	assert.Equal(t, []string{"08:00", "09:00", "10:00", "11:00", "13:00", "14:00", "15:00"}, starts)
}

func TestGenerateSlotsShortSegmentsYieldNothing(t *testing.T) {
	slots, err := GenerateSlots(weekday(2, "08:00", "08:45", "09:00", "09:50"), 60)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlotsDropsPartialTail(t *testing.T) {
	slots, err := GenerateSlots(weekday(3, "08:00", "10:30", "11:00", "12:59"), 60)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "09:00", slots[1].StartTime)
	assert.Equal(t, "11:00", slots[2].StartTime)
	assert.Equal(t, "12:00", slots[2].EndTime)
}

func TestSchoolDayConfigValidate(t *testing.T) {
	assert.NoError(t, weekday(1, "08:00", "12:00", "13:00", "16:00").Validate())
	assert.ErrorIs(t, weekday(1, "12:00", "12:00", "13:00", "16:00").Validate(), ErrInvalidDayOrder)
	assert.ErrorIs(t, weekday(1, "08:00", "12:00", "16:00", "16:00").Validate(), ErrInvalidDayOrder)
	assert.Error(t, weekday(8, "08:00", "12:00", "13:00", "16:00").Validate())
	assert.Error(t, weekday(1, "8h", "12:00", "13:00", "16:00").Validate())
}

func TestParseAndFormatClock(t *testing.T) {
	m, err := ParseClock("07:45")
	require.NoError(t, err)
	assert.Equal(t, 465, m)
	assert.Equal(t, "07:45", FormatClock(m))
}
