package ports

import (
	"context"
	"time"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepository defines persistence operations for orders.
// Methods accepting pgx.Tx run inside the caller's transaction.
type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// GetByIDForUpdate locks the order row for the duration of tx so that
	// concurrent finalizations serialize on it.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.OrderStatus, readyToShip bool) error
}

// IdempotencyRepository defines persistence for idempotency records.
// Claim is the atomic "insert if absent" primitive: it returns true for
// exactly one caller per key; everyone else inspects the winner's record.
type IdempotencyRepository interface {
	Claim(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) (bool, error)
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	// Complete stores the final response for a claimed key. Called exactly
	// once, inside the same transaction that produced the side effects.
	Complete(ctx context.Context, tx pgx.Tx, key string, statusCode int, responseJSON []byte) error
}

// WebhookEventRepository defines persistence for inbound provider events.
type WebhookEventRepository interface {
	// Claim inserts the event if its id is unseen; false means replay.
	Claim(ctx context.Context, tx pgx.Tx, evt *domain.WebhookEvent) (bool, error)
	Get(ctx context.Context, eventID string) (*domain.WebhookEvent, error)
	MarkProcessed(ctx context.Context, tx pgx.Tx, eventID string, processedAt time.Time) error
}

// LedgerRepository defines persistence for ledger transactions and entries.
type LedgerRepository interface {
	// ChargeExists reports whether a CHARGE transaction already exists for
	// the order, within the caller's transaction.
	ChargeExists(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error)
	// CreatePosting inserts the transaction and all its entries; the rows
	// share the caller's transaction and commit or roll back together.
	CreatePosting(ctx context.Context, tx pgx.Tx, posting domain.Posting) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Posting, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
