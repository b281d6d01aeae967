package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookOutcome is the provider's verdict carried by a callback.
type WebhookOutcome string

const (
	WebhookOutcomePaid   WebhookOutcome = "PAID"
	WebhookOutcomeFailed WebhookOutcome = "FAILED"
)

// WebhookEvent records one inbound provider callback. The event id is the
// dedup key: an id is processed at most once, replays are acknowledged
// without reprocessing.
type WebhookEvent struct {
	EventID     string     `json:"event_id"`
	OrderID     uuid.UUID  `json:"order_id"`
	Payload     []byte     `json:"payload"`
	ReceivedAt  time.Time  `json:"received_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}
