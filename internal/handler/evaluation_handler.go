package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type evaluationService interface {
	List(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Evaluation, error)
	Create(ctx context.Context, req service.EvaluationRequest) (*models.Evaluation, error)
	Update(ctx context.Context, id string, req service.EvaluationRequest) (*models.Evaluation, error)
	Delete(ctx context.Context, id string) error
}

// EvaluationHandler exposes evaluation CRUD endpoints.
type EvaluationHandler struct {
	service evaluationService
}

// NewEvaluationHandler constructs an evaluation handler.
func NewEvaluationHandler(svc evaluationService) *EvaluationHandler {
	return &EvaluationHandler{service: svc}
}

// List godoc
// @Summary List evaluations
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param course_id query string false "Filter by course"
// @Param class_id query string false "Filter by class"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /evaluations [get]
func (h *EvaluationHandler) List(c *gin.Context) {
	filter := models.EvaluationFilter{CourseID: c.Query("course_id"), ClassID: c.Query("class_id")}
	filter.Page, filter.PageSize = pageParams(c)

	evaluations, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, evaluations, pagination)
}

// Get godoc
// @Summary Get evaluation
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Evaluation ID"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id} [get]
func (h *EvaluationHandler) Get(c *gin.Context) {
	evaluation, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, evaluation, nil)
}

// Create godoc
// @Summary Create evaluation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EvaluationRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Router /evaluations [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req service.EvaluationRequest
	if !bindJSON(c, &req) {
		return
	}
	evaluation, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, evaluation)
}

// Update godoc
// @Summary Update evaluation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Evaluation ID"
// @Param payload body service.EvaluationRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id} [put]
func (h *EvaluationHandler) Update(c *gin.Context) {
	var req service.EvaluationRequest
	if !bindJSON(c, &req) {
		return
	}
	evaluation, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, evaluation, nil)
}

// Delete godoc
// @Summary Delete evaluation
// @Tags Evaluations
// @Security BearerAuth
// @Param id path string true "Evaluation ID"
// @Success 204
// @Router /evaluations/{id} [delete]
func (h *EvaluationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
