package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// ChargeExists reports whether a CHARGE transaction has already been posted
// for the order. Checked inside the webhook transaction, after the order row
// is locked, so a duplicate delivery cannot double-post.
func (r *LedgerRepo) ChargeExists(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM ledger_transactions WHERE order_id = $1 AND type = $2
	)`

	var exists bool
	if err := tx.QueryRow(ctx, query, orderID, domain.LedgerTypeCharge).Scan(&exists); err != nil {
		return false, fmt.Errorf("check charge exists: %w", err)
	}
	return exists, nil
}

// CreatePosting inserts the transaction row and its entries atomically. The
// posting must already be validated; the partial unique index on
// (order_id) WHERE type = 'CHARGE' backstops the ChargeExists check.
func (r *LedgerRepo) CreatePosting(ctx context.Context, tx pgx.Tx, posting domain.Posting) error {
	txnQuery := `INSERT INTO ledger_transactions (id, order_id, type, currency, amount_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	txn := posting.Transaction
	_, err := tx.Exec(ctx, txnQuery, txn.ID, txn.OrderID, txn.Type, txn.Currency, txn.AmountCents, txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}

	entryQuery := `INSERT INTO ledger_entries (id, txn_id, account, direction, currency, amount_cents)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, e := range posting.Entries {
		_, err := tx.Exec(ctx, entryQuery, e.ID, e.TxnID, e.Account, e.Direction, e.Currency, e.AmountCents)
		if err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
	}
	return nil
}

// GetByOrderID returns the CHARGE posting for an order, or nil, nil when the
// order has no ledger activity yet.
func (r *LedgerRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Posting, error) {
	txnQuery := `SELECT id, order_id, type, currency, amount_cents, created_at
		FROM ledger_transactions WHERE order_id = $1 AND type = $2`

	posting := &domain.Posting{}
	txn := &posting.Transaction
	err := r.pool.QueryRow(ctx, txnQuery, orderID, domain.LedgerTypeCharge).Scan(
		&txn.ID, &txn.OrderID, &txn.Type, &txn.Currency, &txn.AmountCents, &txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger transaction: %w", err)
	}

	entryQuery := `SELECT id, txn_id, account, direction, currency, amount_cents
		FROM ledger_entries WHERE txn_id = $1 ORDER BY direction`

	rows, err := r.pool.Query(ctx, entryQuery, txn.ID)
	if err != nil {
		return nil, fmt.Errorf("get ledger entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.TxnID, &e.Account, &e.Direction, &e.Currency, &e.AmountCents); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		posting.Entries = append(posting.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return posting, nil
}
