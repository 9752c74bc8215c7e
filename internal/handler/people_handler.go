package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type teacherService interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, req service.TeacherRequest) (*models.Teacher, error)
	Update(ctx context.Context, id string, req service.TeacherRequest) (*models.Teacher, error)
	Delete(ctx context.Context, id string) error
}

type parentService interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Parent, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Parent, error)
	Create(ctx context.Context, req service.ParentRequest) (*models.Parent, error)
	Update(ctx context.Context, id string, req service.ParentRequest) (*models.Parent, error)
	Delete(ctx context.Context, id string) error
}

func personFilter(c *gin.Context) models.PersonFilter {
	filter := models.PersonFilter{Search: search(c)}
	filter.Page, filter.PageSize = pageParams(c)
	return filter
}

// TeacherHandler exposes teacher directory endpoints.
type TeacherHandler struct {
	service teacherService
}

// NewTeacherHandler constructs a teacher handler.
func NewTeacherHandler(svc teacherService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name, email or specialty"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	teachers, pagination, err := h.service.List(c.Request.Context(), personFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, teachers, pagination)
}

// Get godoc
// @Summary Get teacher
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	teacher, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, teacher, nil)
}

// Create godoc
// @Summary Create teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.TeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req service.TeacherRequest
	if !bindJSON(c, &req) {
		return
	}
	teacher, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Update godoc
// @Summary Update teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Param payload body service.TeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	var req service.TeacherRequest
	if !bindJSON(c, &req) {
		return
	}
	teacher, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, teacher, nil)
}

// Delete godoc
// @Summary Delete teacher
// @Tags Teachers
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ParentHandler exposes parent directory endpoints.
type ParentHandler struct {
	service parentService
}

// NewParentHandler constructs a parent handler.
func NewParentHandler(svc parentService) *ParentHandler {
	return &ParentHandler{service: svc}
}

// List godoc
// @Summary List parents
// @Tags Parents
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /parents [get]
func (h *ParentHandler) List(c *gin.Context) {
	parents, pagination, err := h.service.List(c.Request.Context(), personFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, parents, pagination)
}

// Get godoc
// @Summary Get parent
// @Tags Parents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent ID"
// @Success 200 {object} response.Envelope
// @Router /parents/{id} [get]
func (h *ParentHandler) Get(c *gin.Context) {
	parent, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, parent, nil)
}

// Create godoc
// @Summary Create parent
// @Tags Parents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ParentRequest true "Parent payload"
// @Success 201 {object} response.Envelope
// @Router /parents [post]
func (h *ParentHandler) Create(c *gin.Context) {
	var req service.ParentRequest
	if !bindJSON(c, &req) {
		return
	}
	parent, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}

// Update godoc
// @Summary Update parent
// @Tags Parents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent ID"
// @Param payload body service.ParentRequest true "Parent payload"
// @Success 200 {object} response.Envelope
// @Router /parents/{id} [put]
func (h *ParentHandler) Update(c *gin.Context) {
	var req service.ParentRequest
	if !bindJSON(c, &req) {
		return
	}
	parent, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, parent, nil)
}

// Delete godoc
// @Summary Delete parent
// @Tags Parents
// @Security BearerAuth
// @Param id path string true "Parent ID"
// @Success 204
// @Router /parents/{id} [delete]
func (h *ParentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
