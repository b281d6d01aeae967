package handler

import (
	"github.com/Andorta/payments-reliability-milestone/internal/adapter/http/dto"
	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"
	"github.com/Andorta/payments-reliability-milestone/pkg/apperror"
	"github.com/Andorta/payments-reliability-milestone/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplayed marks a response served from a stored execution.
const HeaderIdempotentReplayed = "Idempotent-Replayed"

// CheckoutHandler handles the checkout endpoint.
type CheckoutHandler struct {
	checkoutSvc ports.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutSvc ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutSvc: checkoutSvc}
}

// Checkout handles POST /api/v1/checkout.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	key := c.GetHeader(HeaderIdempotencyKey)
	if key == "" {
		response.Error(c, apperror.Validation("Idempotency-Key header is required"))
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.checkoutSvc.Checkout(c.Request.Context(), ports.CheckoutInput{
		IdempotencyKey: key,
		BuyerID:        req.BuyerID,
		SellerID:       req.SellerID,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		BuyerTrust:     domain.BuyerTrust(req.BuyerTrust),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Replayed {
		c.Header(HeaderIdempotentReplayed, "true")
	}
	response.Status(c, result.StatusCode, dto.CheckoutResponse{
		OrderID:     result.OrderID.String(),
		Status:      string(result.Status),
		ReadyToShip: result.ReadyToShip,
	})
}
