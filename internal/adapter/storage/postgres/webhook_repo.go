package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// WebhookEventRepo implements ports.WebhookEventRepository.
type WebhookEventRepo struct {
	pool Pool
}

// NewWebhookEventRepo creates a new WebhookEventRepo.
func NewWebhookEventRepo(pool Pool) *WebhookEventRepo {
	return &WebhookEventRepo{pool: pool}
}

// Claim reserves a webhook event id for processing. Returns false when the
// event was already claimed by an earlier delivery.
func (r *WebhookEventRepo) Claim(ctx context.Context, tx pgx.Tx, event *domain.WebhookEvent) (bool, error) {
	query := `INSERT INTO webhook_events (event_id, order_id, payload, received_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING`

	tag, err := tx.Exec(ctx, query, event.EventID, event.OrderID, event.Payload, event.ReceivedAt)
	if err != nil {
		return false, fmt.Errorf("claim webhook event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get fetches a webhook event by id. Returns nil, nil if not found.
func (r *WebhookEventRepo) Get(ctx context.Context, eventID string) (*domain.WebhookEvent, error) {
	query := `SELECT event_id, order_id, payload, received_at, processed_at
		FROM webhook_events WHERE event_id = $1`

	event := &domain.WebhookEvent{}
	err := r.pool.QueryRow(ctx, query, eventID).Scan(
		&event.EventID, &event.OrderID, &event.Payload, &event.ReceivedAt, &event.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get webhook event: %w", err)
	}
	return event, nil
}

// MarkProcessed records that the event's side effects have been applied.
func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, eventID string, processedAt time.Time) error {
	query := `UPDATE webhook_events SET processed_at = $1 WHERE event_id = $2`

	tag, err := tx.Exec(ctx, query, processedAt, eventID)
	if err != nil {
		return fmt.Errorf("mark webhook event processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}
	return nil
}
