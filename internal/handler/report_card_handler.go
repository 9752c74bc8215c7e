package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/export"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type reportCardService interface {
	List(ctx context.Context, filter models.ReportCardFilter, claims *models.JWTClaims) ([]models.ReportCardDetail, *models.Pagination, error)
	ByStudent(ctx context.Context, studentID string, claims *models.JWTClaims) ([]models.ReportCardDetail, error)
	Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.ReportCardDetail, error)
	Create(ctx context.Context, req service.CreateReportCardRequest) (*models.ReportCard, error)
	BatchCreate(ctx context.Context, req service.BatchCreateReportCardsRequest) ([]models.ReportCard, error)
	Update(ctx context.Context, id string, req service.UpdateReportCardRequest) (*models.ReportCard, error)
	BatchUpdateStatus(ctx context.Context, req service.BatchStatusRequest) (*models.BatchResult, error)
	BatchDelete(ctx context.Context, req service.BatchDeleteRequest) (*models.BatchResult, error)
	Delete(ctx context.Context, id string) error
	ClassSummary(ctx context.Context, classID, periodID string, claims *models.JWTClaims) (*models.ClassReportSummary, bool, error)
	Document(ctx context.Context, id string, claims *models.JWTClaims) (*models.ReportCardDocument, error)
}

// ReportCardHandler exposes the report card lifecycle.
type ReportCardHandler struct {
	service    reportCardService
	schoolName string
}

// NewReportCardHandler constructs a report card handler. schoolName heads generated bulletins.
func NewReportCardHandler(svc reportCardService, schoolName string) *ReportCardHandler {
	return &ReportCardHandler{service: svc, schoolName: schoolName}
}

// List godoc
// @Summary List report cards
// @Tags ReportCards
// @Produce json
// @Security BearerAuth
// @Param period_id query string false "Filter by period"
// @Param student_id query string false "Filter by student"
// @Param class_id query string false "Filter by class"
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /report-cards [get]
func (h *ReportCardHandler) List(c *gin.Context) {
	filter := models.ReportCardFilter{
		PeriodID:  periodParam(c),
		StudentID: c.Query("student_id"),
		ClassID:   c.Query("class_id"),
		Status:    models.ReportCardStatus(strings.ToUpper(c.Query("status"))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.Error(c, appErrors.Validation("Paramètre invalide", map[string]string{"status": "status doit être DRAFT, PUBLISHED ou ARCHIVED"}))
		return
	}
	filter.Page, filter.PageSize = pageParams(c)

	cards, pagination, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, cards, pagination)
}

// Get godoc
// @Summary Get report card
// @Tags ReportCards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report card ID"
// @Success 200 {object} response.Envelope
// @Router /report-cards/{id} [get]
func (h *ReportCardHandler) Get(c *gin.Context) {
	card, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, card, nil)
}

// ByStudent godoc
// @Summary Report cards of one student
// @Tags ReportCards
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /report-cards/student/{studentId} [get]
func (h *ReportCardHandler) ByStudent(c *gin.Context) {
	cards, err := h.service.ByStudent(c.Request.Context(), c.Param("studentId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, cards, nil)
}

// ClassSummary godoc
// @Summary Ranked class summary for a period
// @Description Students ordered by average; tied averages share a rank. meta.cache_hit tells whether Redis served it.
// @Tags ReportCards
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param periodId query string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /report-cards/class/{classId} [get]
func (h *ReportCardHandler) ClassSummary(c *gin.Context) {
	summary, found := h.classSummary(c)
	if !found {
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, middleware.ResponseMeta(c))
}

// ExportClass godoc
// @Summary Export the class summary as CSV
// @Tags ReportCards
// @Produce text/csv
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param periodId query string true "Period ID"
// @Success 200 {file} file
// @Router /report-cards/class/{classId}/export [get]
func (h *ReportCardHandler) ExportClass(c *gin.Context) {
	summary, found := h.classSummary(c)
	if !found {
		return
	}
	body, err := export.RenderCSV(export.ClassSummaryDataset(summary))
	if err != nil {
		response.Error(c, appErrors.Internal(err, "Impossible de générer l'export"))
		return
	}
	filename := fmt.Sprintf("classe-%s-%s.csv", summary.ClassID, summary.PeriodID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

// PDF godoc
// @Summary Download a report card bulletin
// @Tags ReportCards
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Report card ID"
// @Success 200 {file} file
// @Router /report-cards/{id}/pdf [get]
func (h *ReportCardHandler) PDF(c *gin.Context) {
	doc, err := h.service.Document(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := export.RenderBulletin(doc, h.schoolName)
	if err != nil {
		response.Error(c, appErrors.Internal(err, "Impossible de générer le bulletin"))
		return
	}
	filename := fmt.Sprintf("bulletin-%s.pdf", doc.Card.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", body)
}

// Create godoc
// @Summary Create a draft report card
// @Tags ReportCards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateReportCardRequest true "Report card payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /report-cards [post]
func (h *ReportCardHandler) Create(c *gin.Context) {
	var req service.CreateReportCardRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, card)
}

// BatchCreate godoc
// @Summary Create report cards for many students at once
// @Description Every student is validated before any write; all cards are inserted in one transaction.
// @Tags ReportCards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.BatchCreateReportCardsRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Router /report-cards/batch [post]
func (h *ReportCardHandler) BatchCreate(c *gin.Context) {
	var req service.BatchCreateReportCardsRequest
	if !bindJSON(c, &req) {
		return
	}
	cards, err := h.service.BatchCreate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cards)
}

// Update godoc
// @Summary Update appreciation or status
// @Description Status only moves DRAFT to PUBLISHED to ARCHIVED.
// @Tags ReportCards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report card ID"
// @Param payload body service.UpdateReportCardRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /report-cards/{id} [put]
func (h *ReportCardHandler) Update(c *gin.Context) {
	var req service.UpdateReportCardRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, card, nil)
}

// BatchStatus godoc
// @Summary Set the status of many report cards
// @Tags ReportCards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.BatchStatusRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /report-cards/batch/status [put]
func (h *ReportCardHandler) BatchStatus(c *gin.Context) {
	var req service.BatchStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.BatchUpdateStatus(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, result, nil)
}

// BatchDelete godoc
// @Summary Delete many report cards
// @Tags ReportCards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.BatchDeleteRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /report-cards/batch/delete [post]
func (h *ReportCardHandler) BatchDelete(c *gin.Context) {
	var req service.BatchDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.BatchDelete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, result, nil)
}

// Delete godoc
// @Summary Delete report card
// @Tags ReportCards
// @Security BearerAuth
// @Param id path string true "Report card ID"
// @Success 204
// @Router /report-cards/{id} [delete]
func (h *ReportCardHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ReportCardHandler) classSummary(c *gin.Context) (*models.ClassReportSummary, bool) {
	periodID := periodParam(c)
	if periodID == "" {
		response.Error(c, appErrors.Validation("Paramètre manquant", map[string]string{"periodId": "periodId est obligatoire"}))
		return nil, false
	}
	summary, hit, err := h.service.ClassSummary(c.Request.Context(), c.Param("classId"), periodID, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	middleware.SetCacheHit(c, hit)
	return summary, true
}

// periodParam accepts both periodId and period_id.
func periodParam(c *gin.Context) string {
	if v := strings.TrimSpace(c.Query("periodId")); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query("period_id"))
}
