package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *inMemoryOrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *inMemoryOrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryOrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.OrderStatus, readyToShip bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order not found: %s", id)
	}
	o.Status = status
	o.ReadyToShip = readyToShip
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Idempotency Repo ---

// inMemoryIdempotencyRepo mimics the database's claim semantics: a claim on
// a key held by an in-flight execution blocks until that execution
// completes, the way a unique-index insert waits on the owning transaction.
type inMemoryIdempotencyRepo struct {
	mu      sync.Mutex
	records map[string]*domain.IdempotencyRecord
	done    map[string]chan struct{}
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{
		records: make(map[string]*domain.IdempotencyRecord),
		done:    make(map[string]chan struct{}),
	}
}

func (r *inMemoryIdempotencyRepo) Claim(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) (bool, error) {
	r.mu.Lock()
	if _, ok := r.records[rec.Key]; !ok {
		cp := *rec
		r.records[rec.Key] = &cp
		r.done[rec.Key] = make(chan struct{})
		r.mu.Unlock()
		return true, nil
	}
	ch := r.done[rec.Key]
	r.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	return false, nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *inMemoryIdempotencyRepo) Complete(ctx context.Context, tx pgx.Tx, key string, statusCode int, responseJSON []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return fmt.Errorf("idempotency key not claimed: %s", key)
	}
	now := time.Now().UTC()
	rec.StatusCode = &statusCode
	rec.ResponseJSON = responseJSON
	rec.UpdatedAt = &now
	close(r.done[key])
	return nil
}

// --- In-Memory Webhook Event Repo ---

type inMemoryWebhookRepo struct {
	mu     sync.Mutex
	events map[string]*domain.WebhookEvent
}

func newInMemoryWebhookRepo() *inMemoryWebhookRepo {
	return &inMemoryWebhookRepo{events: make(map[string]*domain.WebhookEvent)}
}

func (r *inMemoryWebhookRepo) Claim(ctx context.Context, tx pgx.Tx, evt *domain.WebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[evt.EventID]; ok {
		return false, nil
	}
	cp := *evt
	r.events[evt.EventID] = &cp
	return true, nil
}

func (r *inMemoryWebhookRepo) Get(ctx context.Context, eventID string) (*domain.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt, ok := r.events[eventID]
	if !ok {
		return nil, nil
	}
	cp := *evt
	return &cp, nil
}

func (r *inMemoryWebhookRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, eventID string, processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}
	evt.ProcessedAt = &processedAt
	return nil
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu       sync.Mutex
	postings map[uuid.UUID]*domain.Posting // by order id
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{postings: make(map[uuid.UUID]*domain.Posting)}
}

func (r *inMemoryLedgerRepo) ChargeExists(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.postings[orderID]
	return ok, nil
}

func (r *inMemoryLedgerRepo) CreatePosting(ctx context.Context, tx pgx.Tx, posting domain.Posting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.postings[posting.Transaction.OrderID]; ok {
		return fmt.Errorf("duplicate charge posting for order %s", posting.Transaction.OrderID)
	}
	cp := posting
	r.postings[posting.Transaction.OrderID] = &cp
	return nil
}

func (r *inMemoryLedgerRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Posting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.postings[orderID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

// --- Scripted Provider ---

// scriptedProvider returns queued outcomes in order, then repeats the last
// one. Tests drive the decision engine with injected outcomes instead of
// randomness.
type scriptedProvider struct {
	mu       sync.Mutex
	outcomes []providerOutcome
	calls    int
}

type providerOutcome struct {
	status  ports.ProviderStatus
	timeout bool
}

func succeedOutcome() providerOutcome { return providerOutcome{status: ports.ProviderStatusSucceeded} }
func declineOutcome() providerOutcome { return providerOutcome{status: ports.ProviderStatusDeclined} }
func timeoutOutcome() providerOutcome { return providerOutcome{timeout: true} }

func newScriptedProvider(outcomes ...providerOutcome) *scriptedProvider {
	return &scriptedProvider{outcomes: outcomes}
}

func (p *scriptedProvider) chargeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *scriptedProvider) Charge(ctx context.Context, req ports.ChargeRequest) (*ports.ChargeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	out := p.outcomes[0]
	if len(p.outcomes) > 1 {
		p.outcomes = p.outcomes[1:]
	}
	if out.timeout {
		return nil, ports.ErrProviderTimeout
	}
	return &ports.ChargeResult{Status: out.status}, nil
}
