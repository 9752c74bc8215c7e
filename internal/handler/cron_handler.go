package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type paymentRunner interface {
	Run(ctx context.Context) (*models.PaymentPropagationResult, error)
}

// CronHandler exposes maintenance jobs triggered by an external scheduler.
type CronHandler struct {
	payments paymentRunner
}

// NewCronHandler constructs a cron handler.
func NewCronHandler(payments paymentRunner) *CronHandler {
	return &CronHandler{payments: payments}
}

// UpdatePaymentStatus godoc
// @Summary Propagate overdue invoices and apply late fees
// @Description Marks overdue invoices, their fee assignments and report cards LATE, then applies late fees, in one transaction.
// @Tags Cron
// @Produce json
// @Param secret query string false "Shared cron secret (or X-Cron-Secret header)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /cron/updatePaymentStatus [get]
func (h *CronHandler) UpdatePaymentStatus(c *gin.Context) {
	result, err := h.payments.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, result, nil)
}
