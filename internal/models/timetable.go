package models

import (
	"errors"
	"fmt"
	"time"
)

// ClockLayout is the wall-clock format used for all timetable times.
const ClockLayout = "15:04"

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse(ClockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes since midnight into "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SchoolDayConfig describes the opening hours and the break of one weekday.
type SchoolDayConfig struct {
	ID         string    `db:"id" json:"id"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"`
	DayStart   string    `db:"day_start" json:"day_start"`
	DayEnd     string    `db:"day_end" json:"day_end"`
	BreakStart string    `db:"break_start" json:"break_start"`
	BreakEnd   string    `db:"break_end" json:"break_end"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// TimeSlot is a recurring weekly window usable by any class/teacher pairing.
type TimeSlot struct {
	ID        string    `db:"id" json:"id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Key identifies a slot by its natural unique key.
func (t TimeSlot) Key() string {
	return fmt.Sprintf("%d|%s|%s", t.DayOfWeek, t.StartTime, t.EndTime)
}

// Schedule assigns a course and teacher to a class within a time slot.
type Schedule struct {
	ID         string    `db:"id" json:"id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	TimeSlotID string    `db:"time_slot_id" json:"time_slot_id"`
	Room       string    `db:"room" json:"room"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleEntry is a schedule joined with its slot, for timetable views.
type ScheduleEntry struct {
	Schedule
	DayOfWeek  int    `db:"day_of_week" json:"day_of_week"`
	StartTime  string `db:"start_time" json:"start_time"`
	EndTime    string `db:"end_time" json:"end_time"`
	CourseName string `db:"course_name" json:"course_name"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	ClassID   string
	TeacherID string
	DayOfWeek int
}

// ScheduleConflict describes the existing schedule blocking a new one.
type ScheduleConflict struct {
	ScheduleID string `json:"schedule_id"`
	Dimension  string `json:"dimension"`
}

// SlotGenerationResult is returned by the slot generator.
type SlotGenerationResult struct {
	Created int        `json:"created"`
	Slots   []TimeSlot `json:"slots"`
}

// DefaultSlotMinutes is the fixed lesson length used when none is configured.
const DefaultSlotMinutes = 60

// ErrInvalidDayOrder is returned when a day configuration is not chronological.
var ErrInvalidDayOrder = errors.New("dayStart < breakStart < breakEnd < dayEnd must hold")

type dayWindow struct {
	dayStart, breakStart, breakEnd, dayEnd int
}

func (c SchoolDayConfig) window() (dayWindow, error) {
	var w dayWindow
	var err error
	if w.dayStart, err = ParseClock(c.DayStart); err != nil {
		return w, err
	}
	if w.breakStart, err = ParseClock(c.BreakStart); err != nil {
		return w, err
	}
	if w.breakEnd, err = ParseClock(c.BreakEnd); err != nil {
		return w, err
	}
	if w.dayEnd, err = ParseClock(c.DayEnd); err != nil {
		return w, err
	}
	return w, nil
}

// Validate checks the clock formats, the weekday range and the chronological order.
func (c SchoolDayConfig) Validate() error {
	if c.DayOfWeek < 1 || c.DayOfWeek > 7 {
		return fmt.Errorf("day_of_week %d out of range 1..7", c.DayOfWeek)
	}
	w, err := c.window()
	if err != nil {
		return err
	}
	if !(w.dayStart < w.breakStart && w.breakStart < w.breakEnd && w.breakEnd < w.dayEnd) {
		return ErrInvalidDayOrder
	}
	return nil
}

// GenerateSlots derives the fixed-length slots of one configured day. Each segment (before and
// after the break) yields floor(length/minutes) consecutive slots; a candidate overlapping the
// break window is never emitted.
func GenerateSlots(cfg SchoolDayConfig, minutes int) ([]TimeSlot, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("slot length must be positive, got %d", minutes)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w, _ := cfg.window()

	var slots []TimeSlot
	emit := func(from, to int) {
		for i := 0; i < (to-from)/minutes; i++ {
			start := from + i*minutes
			end := start + minutes
			if start < w.breakEnd && end > w.breakStart {
				continue
			}
			slots = append(slots, TimeSlot{
				DayOfWeek: cfg.DayOfWeek,
				StartTime: FormatClock(start),
				EndTime:   FormatClock(end),
			})
		}
	}
	emit(w.dayStart, w.breakStart)
	emit(w.breakEnd, w.dayEnd)
	return slots, nil
}
