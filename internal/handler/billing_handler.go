package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type billingService interface {
	ListFeeTypes(ctx context.Context) ([]models.FeeType, error)
	CreateFeeType(ctx context.Context, req service.FeeTypeRequest) (*models.FeeType, error)
	ListAssignments(ctx context.Context, filter models.BillingFilter, claims *models.JWTClaims) ([]models.FeeAssignment, *models.Pagination, error)
	CreateAssignment(ctx context.Context, req service.FeeAssignmentRequest) (*models.FeeAssignment, error)
	ListInvoices(ctx context.Context, filter models.BillingFilter, claims *models.JWTClaims) ([]models.Invoice, *models.Pagination, error)
	GetInvoice(ctx context.Context, id string, claims *models.JWTClaims) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, req service.InvoiceRequest) (*models.Invoice, error)
	RecordPayment(ctx context.Context, invoiceID string, req service.PaymentRequest) (*models.Invoice, error)
	PaymentConfig(ctx context.Context) (*models.PaymentConfig, error)
	UpdatePaymentConfig(ctx context.Context, req service.PaymentConfigRequest) (*models.PaymentConfig, error)
}

// BillingHandler exposes fees, invoices, payments and the late payment policy.
type BillingHandler struct {
	service billingService
}

// NewBillingHandler constructs a billing handler.
func NewBillingHandler(svc billingService) *BillingHandler {
	return &BillingHandler{service: svc}
}

func billingFilter(c *gin.Context) models.BillingFilter {
	filter := models.BillingFilter{
		StudentID: c.Query("student_id"),
		Status:    models.PaymentStatus(strings.ToUpper(c.Query("status"))),
	}
	filter.Page, filter.PageSize = pageParams(c)
	return filter
}

// ListFeeTypes godoc
// @Summary List fee types
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /fee-types [get]
func (h *BillingHandler) ListFeeTypes(c *gin.Context) {
	types, err := h.service.ListFeeTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, types, nil)
}

// CreateFeeType godoc
// @Summary Create fee type
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.FeeTypeRequest true "Fee type payload"
// @Success 201 {object} response.Envelope
// @Router /fee-types [post]
func (h *BillingHandler) CreateFeeType(c *gin.Context) {
	var req service.FeeTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	feeType, err := h.service.CreateFeeType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, feeType)
}

// ListAssignments godoc
// @Summary List fee assignments
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Filter by student"
// @Param status query string false "PENDING, PARTIAL, PAID or LATE"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /fee-assignments [get]
func (h *BillingHandler) ListAssignments(c *gin.Context) {
	assignments, pagination, err := h.service.ListAssignments(c.Request.Context(), billingFilter(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, assignments, pagination)
}

// CreateAssignment godoc
// @Summary Assign a fee to a student
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.FeeAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /fee-assignments [post]
func (h *BillingHandler) CreateAssignment(c *gin.Context) {
	var req service.FeeAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.service.CreateAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// ListInvoices godoc
// @Summary List invoices
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Filter by student"
// @Param status query string false "PENDING, PARTIAL, PAID or LATE"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	invoices, pagination, err := h.service.ListInvoices(c.Request.Context(), billingFilter(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, invoices, pagination)
}

// GetInvoice godoc
// @Summary Get invoice
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id} [get]
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.service.GetInvoice(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, invoice, nil)
}

// CreateInvoice godoc
// @Summary Issue an invoice
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.InvoiceRequest true "Invoice payload"
// @Success 201 {object} response.Envelope
// @Router /invoices [post]
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req service.InvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	invoice, err := h.service.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invoice)
}

// RecordPayment godoc
// @Summary Record a payment against an invoice
// @Description Moves the invoice to PARTIAL or PAID. Overpayment is rejected.
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param payload body service.PaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Router /invoices/{id}/payments [post]
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	var req service.PaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	invoice, err := h.service.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, invoice, nil)
}

// PaymentConfig godoc
// @Summary Late payment policy
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /payment-config [get]
func (h *BillingHandler) PaymentConfig(c *gin.Context) {
	cfg, err := h.service.PaymentConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, cfg, nil)
}

// UpdatePaymentConfig godoc
// @Summary Update late payment policy
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.PaymentConfigRequest true "Policy payload"
// @Success 200 {object} response.Envelope
// @Router /payment-config [put]
func (h *BillingHandler) UpdatePaymentConfig(c *gin.Context) {
	var req service.PaymentConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.service.UpdatePaymentConfig(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, cfg, nil)
}
