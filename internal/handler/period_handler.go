package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type periodService interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Period, error)
	Create(ctx context.Context, req service.PeriodRequest) (*models.Period, error)
	Update(ctx context.Context, id string, req service.PeriodRequest) (*models.Period, error)
	Delete(ctx context.Context, id string) error
}

// PeriodHandler exposes grading period endpoints.
type PeriodHandler struct {
	service periodService
}

// NewPeriodHandler constructs a period handler.
func NewPeriodHandler(svc periodService) *PeriodHandler {
	return &PeriodHandler{service: svc}
}

// List godoc
// @Summary List periods
// @Tags Periods
// @Produce json
// @Security BearerAuth
// @Param school_year query string false "Filter by school year"
// @Param status query string false "UPCOMING, ACTIVE or CLOSED"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	filter := models.PeriodFilter{
		SchoolYear: c.Query("school_year"),
		Status:     models.PeriodStatus(strings.ToUpper(c.Query("status"))),
	}
	filter.Page, filter.PageSize = pageParams(c)

	periods, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, periods, pagination)
}

// Get godoc
// @Summary Get period
// @Tags Periods
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, period, nil)
}

// Create godoc
// @Summary Create period
// @Tags Periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.PeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Router /periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req service.PeriodRequest
	if !bindJSON(c, &req) {
		return
	}
	period, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update period
// @Tags Periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Param payload body service.PeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	var req service.PeriodRequest
	if !bindJSON(c, &req) {
		return
	}
	period, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, period, nil)
}

// Delete godoc
// @Summary Delete period
// @Tags Periods
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Success 204
// @Router /periods/{id} [delete]
func (h *PeriodHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
