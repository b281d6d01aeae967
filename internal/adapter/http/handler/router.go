package handler

import (
	"github.com/Andorta/payments-reliability-milestone/internal/adapter/http/middleware"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	CheckoutSvc    ports.CheckoutService
	WebhookSvc     ports.WebhookService
	OrderSvc       ports.OrderQueryService
	HealthCheckers []ports.HealthChecker
	// ProviderCharge mounts the charge simulator when non-nil. Disabled in
	// deployments that point at an external provider endpoint.
	ProviderCharge gin.HandlerFunc
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	checkoutHandler := NewCheckoutHandler(deps.CheckoutSvc)
	v1.POST("/checkout", checkoutHandler.Checkout)

	webhookHandler := NewWebhookHandler(deps.WebhookSvc)
	v1.POST("/webhooks/provider", webhookHandler.HandleProviderEvent)

	orderHandler := NewOrderHandler(deps.OrderSvc)
	v1.GET("/orders/:id", orderHandler.GetOrder)

	// Simulated provider, same process for local and test runs.
	if deps.ProviderCharge != nil {
		r.POST("/_provider/charge", deps.ProviderCharge)
	}

	return r
}
