package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BuyerTrust classifies how much payment risk a buyer is allowed to carry
// during a provider outage.
type BuyerTrust string

const (
	BuyerTrustTrusted BuyerTrust = "trusted"
	BuyerTrustNew     BuyerTrust = "new"
)

// Valid reports whether the trust tier is a known value.
func (b BuyerTrust) Valid() bool {
	return b == BuyerTrustTrusted || b == BuyerTrustNew
}

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusFailed         OrderStatus = "FAILED"
)

// Order represents a checkout attempt and its payment outcome.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	BuyerID     string      `json:"buyer_id"`
	SellerID    string      `json:"seller_id"`
	AmountCents int64       `json:"amount_cents"` // In minor units, never negative
	Currency    string      `json:"currency"`     // ISO 4217, upper case
	BuyerTrust  BuyerTrust  `json:"buyer_trust"`
	Status      OrderStatus `json:"status"`
	ReadyToShip bool        `json:"ready_to_ship"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewOrder creates an order with its initial status as decided by the
// payment decision engine. ReadyToShip is true only for orders born PAID.
func NewOrder(buyerID, sellerID string, amountCents int64, currency string, trust BuyerTrust, status OrderStatus) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:          uuid.New(),
		BuyerID:     buyerID,
		SellerID:    sellerID,
		AmountCents: amountCents,
		Currency:    currency,
		BuyerTrust:  trust,
		Status:      status,
		ReadyToShip: status == OrderStatusPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsTerminal returns true if the order is in a final state. Terminal orders
// never transition again.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusFailed
}

// TransitionResult reports how a requested status change was handled.
type TransitionResult int

const (
	// TransitionApplied means the order moved to the requested status.
	TransitionApplied TransitionResult = iota
	// TransitionAlreadyFinal means the order was already terminal and the
	// request was a no-op. Retried finalizations report success, not failure.
	TransitionAlreadyFinal
)

// Transition moves a pending order to a terminal status. Entering PAID sets
// ready_to_ship; entering FAILED clears it. Calling Transition on an order
// that is already terminal leaves it untouched and reports AlreadyFinal.
func (o *Order) Transition(to OrderStatus) (TransitionResult, error) {
	if o.IsTerminal() {
		return TransitionAlreadyFinal, nil
	}

	switch to {
	case OrderStatusPaid:
		o.Status = OrderStatusPaid
		o.ReadyToShip = true
	case OrderStatusFailed:
		o.Status = OrderStatusFailed
		o.ReadyToShip = false
	default:
		return 0, fmt.Errorf("invalid transition target %q", to)
	}

	o.UpdatedAt = time.Now().UTC()
	return TransitionApplied, nil
}
