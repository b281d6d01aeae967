package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Provider port ---

// ProviderStatus is the simulated provider's verdict on a charge.
type ProviderStatus string

const (
	ProviderStatusSucceeded ProviderStatus = "SUCCEEDED"
	ProviderStatusDeclined  ProviderStatus = "DECLINED"
)

// ErrProviderTimeout signals that the provider did not answer within the
// bounded deadline (or was unreachable). It is an internal signal for the
// decision engine, never surfaced to callers as an error.
var ErrProviderTimeout = errors.New("payment provider timed out")

// ChargeRequest carries the order details the provider charges against.
type ChargeRequest struct {
	BuyerID     string     `json:"buyer_id"`
	SellerID    string     `json:"seller_id"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	BuyerTrust  string     `json:"buyer_trust"`
	OrderRef    *uuid.UUID `json:"order_ref,omitempty"`
}

// ChargeResult is the provider's response to a charge attempt.
type ChargeResult struct {
	Status            ProviderStatus `json:"provider_status"`
	ProviderPaymentID *string        `json:"provider_payment_id,omitempty"`
}

// PaymentProvider is the simulated external payment provider. Charge blocks
// for at most the configured timeout; expiry is reported as
// ErrProviderTimeout.
type PaymentProvider interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// --- Response cache port ---

// ResponseCache is the redis fast path for completed idempotency responses.
// Postgres stays the source of truth; the cache only ever holds responses
// that are already durably committed.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service ports (business logic) ---

// CheckoutInput holds validated input for an idempotent checkout.
type CheckoutInput struct {
	IdempotencyKey string
	BuyerID        string
	SellerID       string
	AmountCents    int64
	Currency       string
	BuyerTrust     domain.BuyerTrust
}

// CheckoutResult is the durable outcome of a checkout; replays of the same
// key return the first execution's result with Replayed set.
type CheckoutResult struct {
	OrderID     uuid.UUID          `json:"order_id"`
	Status      domain.OrderStatus `json:"status"`
	ReadyToShip bool               `json:"ready_to_ship"`
	Replayed    bool               `json:"-"`
	StatusCode  int                `json:"-"`
}

// CheckoutService executes checkout under the idempotency guard: at most one
// execution of the guarded operation per key, conflicts on body mismatch.
type CheckoutService interface {
	Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
}

// WebhookInput holds a validated provider callback.
type WebhookInput struct {
	EventID string
	OrderID uuid.UUID
	Outcome domain.WebhookOutcome
	Payload []byte
}

// WebhookResult acknowledges a callback. Duplicate deliveries are a normal
// outcome, reported via the flag rather than an error.
type WebhookResult struct {
	Duplicate bool               `json:"duplicate"`
	Status    domain.OrderStatus `json:"status,omitempty"`
}

// WebhookService processes provider callbacks replay-safely: identical
// events delivered N times produce exactly one state change and at most one
// ledger posting.
type WebhookService interface {
	ProcessEvent(ctx context.Context, in WebhookInput) (*WebhookResult, error)
}

// LedgerPoster writes the balanced double-entry posting for a paid order
// inside the caller's transaction. Idempotent at the order level.
type LedgerPoster interface {
	Post(ctx context.Context, tx pgx.Tx, order *domain.Order) error
}

// OrderQueryService reads order state for the lookup endpoint.
type OrderQueryService interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}
