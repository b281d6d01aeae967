package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

const orderColumns = `id, buyer_id, seller_id, amount_cents, currency, buyer_trust, status, ready_to_ship, created_at, updated_at`

// Create inserts a new order within a database transaction.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `INSERT INTO orders (id, buyer_id, seller_id, amount_cents, currency, buyer_trust, status, ready_to_ship, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.BuyerID, o.SellerID, o.AmountCents, o.Currency,
		o.BuyerTrust, o.Status, o.ReadyToShip, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID fetches an order by UUID. Returns nil, nil if not found.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches an order and locks its row until tx ends, so that
// concurrent finalizations of the same order serialize.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return scanOrder(tx.QueryRow(ctx, query, id))
}

// UpdateStatus persists a state-machine transition within a database transaction.
func (r *OrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.OrderStatus, readyToShip bool) error {
	query := `UPDATE orders SET status = $1, ready_to_ship = $2, updated_at = $3 WHERE id = $4`

	tag, err := tx.Exec(ctx, query, status, readyToShip, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %s", id)
	}
	return nil
}

// scanOrder is a helper to scan a single row into an Order.
func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID, &o.BuyerID, &o.SellerID, &o.AmountCents, &o.Currency,
		&o.BuyerTrust, &o.Status, &o.ReadyToShip, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}
