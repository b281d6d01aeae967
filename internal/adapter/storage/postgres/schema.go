package postgres

import (
	"context"
	"fmt"
)

// schema is the persisted state layout. Uniqueness of idempotency keys,
// webhook event ids, and the per-order CHARGE transaction is enforced here
// because the store is the only synchronization point shared by concurrent
// process instances.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id UUID PRIMARY KEY,
	buyer_id TEXT NOT NULL,
	seller_id TEXT NOT NULL,
	amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
	currency CHAR(3) NOT NULL,
	buyer_trust TEXT NOT NULL CHECK (buyer_trust IN ('trusted', 'new')),
	status TEXT NOT NULL CHECK (status IN ('PENDING_PAYMENT', 'PAID', 'FAILED')),
	ready_to_ship BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	idem_key TEXT PRIMARY KEY,
	request_hash TEXT NOT NULL,
	status_code INT,
	response_json JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS webhook_events (
	event_id TEXT PRIMARY KEY,
	order_id UUID NOT NULL REFERENCES orders(id),
	payload JSONB NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	processed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS ledger_transactions (
	id UUID PRIMARY KEY,
	order_id UUID NOT NULL REFERENCES orders(id),
	type TEXT NOT NULL CHECK (type IN ('CHARGE')),
	currency CHAR(3) NOT NULL,
	amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id UUID PRIMARY KEY,
	txn_id UUID NOT NULL REFERENCES ledger_transactions(id),
	account TEXT NOT NULL CHECK (account IN ('cash', 'seller_payable')),
	direction TEXT NOT NULL CHECK (direction IN ('DEBIT', 'CREDIT')),
	currency CHAR(3) NOT NULL,
	amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0)
);

CREATE UNIQUE INDEX IF NOT EXISTS ledger_transactions_order_charge_idx
	ON ledger_transactions (order_id) WHERE type = 'CHARGE';
`

// Bootstrap creates the schema if it does not exist yet. Idempotent; safe to
// run on every startup.
func Bootstrap(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("bootstrapping schema: %w", err)
	}
	return nil
}
