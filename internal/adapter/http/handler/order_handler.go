package handler

import (
	"net/http"
	"time"

	"github.com/Andorta/payments-reliability-milestone/internal/adapter/http/dto"
	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"
	"github.com/Andorta/payments-reliability-milestone/pkg/apperror"
	"github.com/Andorta/payments-reliability-milestone/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles order lookup endpoints.
type OrderHandler struct {
	orderSvc ports.OrderQueryService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc ports.OrderQueryService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// GetOrder handles GET /api/v1/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("order id must be a valid UUID"))
		return
	}

	order, err := h.orderSvc.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOrderResponse(order))
}

// toOrderResponse converts domain.Order to its DTO.
func toOrderResponse(o *domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:          o.ID.String(),
		BuyerID:     o.BuyerID,
		SellerID:    o.SellerID,
		AmountCents: o.AmountCents,
		Currency:    o.Currency,
		BuyerTrust:  string(o.BuyerTrust),
		Status:      string(o.Status),
		ReadyToShip: o.ReadyToShip,
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   o.UpdatedAt.Format(time.RFC3339),
	}
}

// HealthCheck handles GET /health — deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
