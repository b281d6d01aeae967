package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Claim atomically reserves an idempotency key within a database transaction.
// Exactly one concurrent claimer gets true; the rest observe the winner's
// record. A concurrent claimer blocks on the primary-key insert until the
// winner's transaction resolves, which is the serialization the guard needs.
func (r *IdempotencyRepo) Claim(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) (bool, error) {
	query := `INSERT INTO idempotency_keys (idem_key, request_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (idem_key) DO NOTHING`

	tag, err := tx.Exec(ctx, query, rec.Key, rec.RequestHash, rec.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get fetches an idempotency record by key. Returns nil, nil if not found.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT idem_key, request_hash, status_code, response_json, created_at, updated_at
		FROM idempotency_keys WHERE idem_key = $1`

	rec := &domain.IdempotencyRecord{}
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&rec.Key, &rec.RequestHash, &rec.StatusCode, &rec.ResponseJSON, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return rec, nil
}

// Complete stores the final response for a claimed key, in the same
// transaction that committed the guarded side effects.
func (r *IdempotencyRepo) Complete(ctx context.Context, tx pgx.Tx, key string, statusCode int, responseJSON []byte) error {
	query := `UPDATE idempotency_keys SET status_code = $1, response_json = $2, updated_at = $3
		WHERE idem_key = $4`

	tag, err := tx.Exec(ctx, query, statusCode, responseJSON, time.Now().UTC(), key)
	if err != nil {
		return fmt.Errorf("complete idempotency record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("idempotency key not claimed: %s", key)
	}
	return nil
}
