package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"
	"github.com/Andorta/payments-reliability-milestone/pkg/apperror"

	"github.com/rs/zerolog"
)

const responseCacheTTL = 24 * time.Hour

// cachedResponse is the redis-side shadow of a completed idempotency record.
// It carries the request hash so the conflict check also works on the fast
// path, without a database read.
type cachedResponse struct {
	RequestHash string          `json:"request_hash"`
	StatusCode  int             `json:"status_code"`
	Body        json.RawMessage `json:"body"`
}

// CheckoutServiceImpl implements ports.CheckoutService. The guarded
// operation — decide, create order, post ledger if paid, store response —
// runs inside one database transaction together with the key claim, so a
// crash mid-execution leaves the key unclaimed and the retry path clean.
type CheckoutServiceImpl struct {
	orderRepo  ports.OrderRepository
	idempRepo  ports.IdempotencyRepository
	respCache  ports.ResponseCache
	decision   *DecisionEngine
	ledger     ports.LedgerPoster
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewCheckoutService creates a new CheckoutServiceImpl.
func NewCheckoutService(
	orderRepo ports.OrderRepository,
	idempRepo ports.IdempotencyRepository,
	respCache ports.ResponseCache,
	decision *DecisionEngine,
	ledger ports.LedgerPoster,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		orderRepo:  orderRepo,
		idempRepo:  idempRepo,
		respCache:  respCache,
		decision:   decision,
		ledger:     ledger,
		transactor: transactor,
		log:        log,
	}
}

// Checkout executes an idempotent checkout. At most one execution of the
// payment decision happens per key; replays return the stored first result.
func (s *CheckoutServiceImpl) Checkout(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutResult, error) {
	if in.AmountCents < 0 {
		return nil, apperror.Validation("amount_cents must be non-negative")
	}
	if !in.BuyerTrust.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown buyer trust tier %q", in.BuyerTrust))
	}
	// Normalize before hashing so "eur" and "EUR" are the same request.
	in.Currency = strings.ToUpper(in.Currency)

	hash := domain.CanonicalRequestHash(in.BuyerID, in.SellerID, in.AmountCents, in.Currency, in.BuyerTrust)

	// Layer 1: redis fast path. Only completed, committed responses live here.
	cached, err := s.respCache.Get(ctx, in.IdempotencyKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", in.IdempotencyKey).Msg("redis replay check failed, falling through to DB")
	}
	if cached != nil {
		return s.replayCached(in.IdempotencyKey, hash, cached)
	}

	// Layer 2: DB source of truth.
	rec, err := s.idempRepo.Get(ctx, in.IdempotencyKey)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("idempotency check: %w", err))
	}
	if rec != nil {
		return s.replayRecord(in.IdempotencyKey, hash, rec)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	claimed, err := s.idempRepo.Claim(ctx, dbTx, &domain.IdempotencyRecord{
		Key:         in.IdempotencyKey,
		RequestHash: hash,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("claim key: %w", err))
	}
	if !claimed {
		// Lost the race. The insert above blocked until the winner's
		// transaction resolved, so the committed record is readable now.
		rec, err := s.idempRepo.Get(ctx, in.IdempotencyKey)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("read winner record: %w", err))
		}
		if rec == nil {
			return nil, apperror.ErrRequestInProgress()
		}
		return s.replayRecord(in.IdempotencyKey, hash, rec)
	}

	// Won the claim: run the guarded operation. The provider call is the
	// only suspension point and is bounded by the client timeout.
	status, err := s.decision.Decide(ctx, in)
	if err != nil {
		return nil, err
	}

	order := domain.NewOrder(in.BuyerID, in.SellerID, in.AmountCents, in.Currency, in.BuyerTrust, status)
	if err := s.orderRepo.Create(ctx, dbTx, order); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create order: %w", err))
	}

	if order.Status == domain.OrderStatusPaid {
		if err := s.ledger.Post(ctx, dbTx, order); err != nil {
			return nil, err
		}
	}

	result := &ports.CheckoutResult{
		OrderID:     order.ID,
		Status:      order.Status,
		ReadyToShip: order.ReadyToShip,
		StatusCode:  http.StatusCreated,
	}
	respJSON, err := json.Marshal(result)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}

	if err := s.idempRepo.Complete(ctx, dbTx, in.IdempotencyKey, result.StatusCode, respJSON); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("complete key: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-commit: shadow the response in redis, best effort.
	shadow, err := json.Marshal(cachedResponse{RequestHash: hash, StatusCode: result.StatusCode, Body: respJSON})
	if err == nil {
		if err := s.respCache.Set(ctx, in.IdempotencyKey, shadow, responseCacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", in.IdempotencyKey).Msg("failed to cache checkout response")
		}
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Str("key", in.IdempotencyKey).
		Int64("amount_cents", order.AmountCents).
		Msg("checkout executed")

	return result, nil
}

// replayCached serves a replay from the redis shadow.
func (s *CheckoutServiceImpl) replayCached(key, hash string, raw []byte) (*ports.CheckoutResult, error) {
	var shadow cachedResponse
	if err := json.Unmarshal(raw, &shadow); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached response: %w", err))
	}
	if shadow.RequestHash != hash {
		return nil, apperror.ErrIdempotencyConflict()
	}
	result, err := unmarshalResult(shadow.Body)
	if err != nil {
		return nil, err
	}
	result.Replayed = true
	result.StatusCode = shadow.StatusCode
	s.log.Info().Str("key", key).Msg("checkout replayed from cache")
	return result, nil
}

// replayRecord serves a replay from the durable idempotency record.
func (s *CheckoutServiceImpl) replayRecord(key, hash string, rec *domain.IdempotencyRecord) (*ports.CheckoutResult, error) {
	if rec.RequestHash != hash {
		return nil, apperror.ErrIdempotencyConflict()
	}
	if !rec.Completed() {
		// Claim committed without a response only if the writer crashed in
		// the complete step, which the single-transaction protocol rules
		// out. Treated as in flight rather than replayed half-baked.
		return nil, apperror.ErrRequestInProgress()
	}
	result, err := unmarshalResult(rec.ResponseJSON)
	if err != nil {
		return nil, err
	}
	result.Replayed = true
	result.StatusCode = *rec.StatusCode
	s.log.Info().Str("key", key).Msg("checkout replayed from store")
	return result, nil
}

func unmarshalResult(body []byte) (*ports.CheckoutResult, error) {
	result := &ports.CheckoutResult{}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal stored response: %w", err))
	}
	return result, nil
}
