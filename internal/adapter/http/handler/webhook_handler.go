package handler

import (
	"encoding/json"

	"github.com/Andorta/payments-reliability-milestone/internal/adapter/http/dto"
	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"
	"github.com/Andorta/payments-reliability-milestone/pkg/apperror"
	"github.com/Andorta/payments-reliability-milestone/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebhookHandler handles inbound provider callbacks.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// HandleProviderEvent handles POST /api/v1/webhooks/provider.
func (h *WebhookHandler) HandleProviderEvent(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		response.Error(c, apperror.Validation("order_id must be a valid UUID"))
		return
	}

	// Anything other than PAID finalizes the order as failed.
	outcome := domain.WebhookOutcomeFailed
	if req.Outcome == string(domain.WebhookOutcomePaid) {
		outcome = domain.WebhookOutcomePaid
	}

	payload, _ := json.Marshal(req)
	result, err := h.webhookSvc.ProcessEvent(c.Request.Context(), ports.WebhookInput{
		EventID: req.EventID,
		OrderID: orderID,
		Outcome: outcome,
		Payload: payload,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WebhookResponse{
		Duplicate: result.Duplicate,
		Status:    string(result.Status),
	})
}
