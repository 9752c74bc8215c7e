package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type timetableService interface {
	ListSlots(ctx context.Context, dayOfWeek int) ([]models.TimeSlot, error)
	CreateSlot(ctx context.Context, req service.TimeSlotRequest) (*models.TimeSlot, error)
	DeleteSlot(ctx context.Context, id string) error
	ListDayConfigs(ctx context.Context) ([]models.SchoolDayConfig, error)
	UpsertDayConfig(ctx context.Context, req service.SchoolDayConfigRequest) (*models.SchoolDayConfig, error)
	DeleteDayConfig(ctx context.Context, id string) error
	GenerateTimeSlots(ctx context.Context) (*models.SlotGenerationResult, error)
}

type scheduleService interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
	Create(ctx context.Context, req service.ScheduleRequest) (*models.Schedule, error)
	Delete(ctx context.Context, id string) error
}

// TimetableHandler groups time slots, school day configuration and class schedules.
type TimetableHandler struct {
	timetable timetableService
	schedules scheduleService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(timetable timetableService, schedules scheduleService) *TimetableHandler {
	return &TimetableHandler{timetable: timetable, schedules: schedules}
}

// ListSlots godoc
// @Summary List time slots
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param day_of_week query int false "ISO day, Monday = 1"
// @Success 200 {object} response.Envelope
// @Router /timetable/timeslots [get]
func (h *TimetableHandler) ListSlots(c *gin.Context) {
	day, err := intQuery(c, "day_of_week")
	if err != nil {
		response.Error(c, err)
		return
	}
	slots, err := h.timetable.ListSlots(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, slots, nil)
}

// CreateSlot godoc
// @Summary Create a time slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.TimeSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Router /timetable/timeslots [post]
func (h *TimetableHandler) CreateSlot(c *gin.Context) {
	var req service.TimeSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	slot, err := h.timetable.CreateSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// DeleteSlot godoc
// @Summary Delete a time slot
// @Tags Timetable
// @Security BearerAuth
// @Param id path string true "Slot ID"
// @Success 204
// @Router /timetable/timeslots/{id} [delete]
func (h *TimetableHandler) DeleteSlot(c *gin.Context) {
	if err := h.timetable.DeleteSlot(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GenerateSlots godoc
// @Summary Generate time slots from the school day configuration
// @Description Slots that already exist are not created again.
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /timetable/generate-timeslots [post]
func (h *TimetableHandler) GenerateSlots(c *gin.Context) {
	result, err := h.timetable.GenerateTimeSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListDayConfigs godoc
// @Summary List school day configurations
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /timetable/schoolday-config [get]
func (h *TimetableHandler) ListDayConfigs(c *gin.Context) {
	configs, err := h.timetable.ListDayConfigs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, configs, nil)
}

// UpsertDayConfig godoc
// @Summary Create or replace the configuration of a day
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SchoolDayConfigRequest true "Day payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetable/schoolday-config [post]
func (h *TimetableHandler) UpsertDayConfig(c *gin.Context) {
	var req service.SchoolDayConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.timetable.UpsertDayConfig(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, cfg, nil)
}

// DeleteDayConfig godoc
// @Summary Delete a school day configuration
// @Tags Timetable
// @Security BearerAuth
// @Param id path string true "Config ID"
// @Success 204
// @Router /timetable/schoolday-config/{id} [delete]
func (h *TimetableHandler) DeleteDayConfig(c *gin.Context) {
	if err := h.timetable.DeleteDayConfig(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSchedules godoc
// @Summary List schedule entries
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param class_id query string false "Filter by class"
// @Param teacher_id query string false "Filter by teacher"
// @Param day_of_week query int false "ISO day, Monday = 1"
// @Success 200 {object} response.Envelope
// @Router /timetable/schedule [get]
func (h *TimetableHandler) ListSchedules(c *gin.Context) {
	day, err := intQuery(c, "day_of_week")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.ScheduleFilter{ClassID: c.Query("class_id"), TeacherID: c.Query("teacher_id"), DayOfWeek: day}
	entries, err := h.schedules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, entries, nil)
}

// CreateSchedule godoc
// @Summary Book a class, course and teacher into a time slot
// @Description A class or a teacher can hold a single booking per slot.
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/schedule [post]
func (h *TimetableHandler) CreateSchedule(c *gin.Context) {
	var req service.ScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.schedules.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// DeleteSchedule godoc
// @Summary Delete a schedule entry
// @Tags Timetable
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /timetable/schedule/{id} [delete]
func (h *TimetableHandler) DeleteSchedule(c *gin.Context) {
	if err := h.schedules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
