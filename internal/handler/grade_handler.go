package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type gradeService interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Grade, error)
	Create(ctx context.Context, req service.GradeRequest, actor *models.JWTClaims) (*models.Grade, error)
	Update(ctx context.Context, id string, req service.GradeRequest) (*models.Grade, error)
	Delete(ctx context.Context, id string) error
	StudentAverage(ctx context.Context, studentID, periodID string) (*models.StudentAverage, error)
}

// studentAccess resolves which students a STUDENT or PARENT caller may read.
type studentAccess interface {
	VisibleTo(ctx context.Context, claims *models.JWTClaims, studentID string) (bool, error)
	OwnedBy(ctx context.Context, claims *models.JWTClaims) ([]string, error)
}

// GradeHandler exposes grades and the weighted average.
type GradeHandler struct {
	service gradeService
	access  studentAccess
}

// NewGradeHandler constructs a grade handler.
func NewGradeHandler(svc gradeService, access studentAccess) *GradeHandler {
	return &GradeHandler{service: svc, access: access}
}

// List godoc
// @Summary List grades
// @Description Students and parents only see their own grades or their children's.
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Filter by student"
// @Param course_id query string false "Filter by course"
// @Param evaluation_id query string false "Filter by evaluation"
// @Param from query string false "Graded on or after (YYYY-MM-DD)"
// @Param to query string false "Graded on or before (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	filter := models.GradeFilter{
		StudentID:    c.Query("student_id"),
		CourseID:     c.Query("course_id"),
		EvaluationID: c.Query("evaluation_id"),
	}
	filter.Page, filter.PageSize = pageParams(c)
	var err error
	if filter.From, err = dateQuery(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.To, err = dateQuery(c, "to"); err != nil {
		response.Error(c, err)
		return
	}

	owned, err := h.access.OwnedBy(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if owned != nil {
		switch {
		case filter.StudentID != "":
			if !contains(owned, filter.StudentID) {
				response.Error(c, appErrors.ErrForbidden)
				return
			}
		case len(owned) == 0:
			ok(c, []models.Grade{}, models.NewPagination(filter.Page, filter.PageSize, 0))
			return
		case len(owned) == 1:
			filter.StudentID = owned[0]
		default:
			response.Error(c, appErrors.Validation("Paramètre manquant", map[string]string{"student_id": "student_id est obligatoire"}))
			return
		}
	}

	grades, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, grades, pagination)
}

// Get godoc
// @Summary Get grade
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	grade, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.visible(c, grade.StudentID) {
		return
	}
	ok(c, grade, nil)
}

// Average godoc
// @Summary Weighted average of a student over a period
// @Description Sum of value times coefficient divided by the sum of coefficients, 0 without grades.
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param student_id query string true "Student ID"
// @Param period_id query string true "Period ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/average [get]
func (h *GradeHandler) Average(c *gin.Context) {
	studentID, periodID := c.Query("student_id"), c.Query("period_id")
	fields := map[string]string{}
	if studentID == "" {
		fields["student_id"] = "student_id est obligatoire"
	}
	if periodID == "" {
		fields["period_id"] = "period_id est obligatoire"
	}
	if len(fields) > 0 {
		response.Error(c, appErrors.Validation("Paramètres manquants", fields))
		return
	}
	if !h.visible(c, studentID) {
		return
	}
	avg, err := h.service.StudentAverage(c.Request.Context(), studentID, periodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, avg, nil)
}

// Create godoc
// @Summary Record grade
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	var req service.GradeRequest
	if !bindJSON(c, &req) {
		return
	}
	grade, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Update godoc
// @Summary Update grade
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grade ID"
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [put]
func (h *GradeHandler) Update(c *gin.Context) {
	var req service.GradeRequest
	if !bindJSON(c, &req) {
		return
	}
	grade, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, grade, nil)
}

// Delete godoc
// @Summary Delete grade
// @Tags Grades
// @Security BearerAuth
// @Param id path string true "Grade ID"
// @Success 204
// @Router /grades/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// visible writes 403 and returns false when the caller may not read studentID.
func (h *GradeHandler) visible(c *gin.Context, studentID string) bool {
	allowed, err := h.access.VisibleTo(c.Request.Context(), claimsFromContext(c), studentID)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if !allowed {
		response.Error(c, appErrors.ErrForbidden)
		return false
	}
	return true
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
