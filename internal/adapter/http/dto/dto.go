package dto

// CheckoutRequest is the request body for POST /api/v1/checkout. The
// idempotency key travels in the Idempotency-Key header, not the body.
type CheckoutRequest struct {
	BuyerID     string `json:"buyer_id" binding:"required,max=100"`
	SellerID    string `json:"seller_id" binding:"required,max=100"`
	AmountCents int64  `json:"amount_cents" binding:"min=0"`
	Currency    string `json:"currency" binding:"required,len=3"`
	BuyerTrust  string `json:"buyer_trust" binding:"required"`
}

// CheckoutResponse is the response body for a checkout result.
type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	ReadyToShip bool   `json:"ready_to_ship"`
}

// WebhookRequest is the request body for POST /api/v1/webhooks/provider.
type WebhookRequest struct {
	EventID string `json:"event_id" binding:"required,max=100"`
	OrderID string `json:"order_id" binding:"required,uuid"`
	Outcome string `json:"outcome" binding:"required"`
}

// WebhookResponse acknowledges a provider callback.
type WebhookResponse struct {
	Duplicate bool   `json:"duplicate"`
	Status    string `json:"status,omitempty"`
}

// OrderResponse is the response body for GET /api/v1/orders/:id.
type OrderResponse struct {
	ID          string `json:"id"`
	BuyerID     string `json:"buyer_id"`
	SellerID    string `json:"seller_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	BuyerTrust  string `json:"buyer_trust"`
	Status      string `json:"status"`
	ReadyToShip bool   `json:"ready_to_ship"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
