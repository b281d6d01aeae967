package service

import (
	"context"
	"fmt"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"
	"github.com/Andorta/payments-reliability-milestone/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// LedgerPosterImpl implements ports.LedgerPoster.
type LedgerPosterImpl struct {
	ledgerRepo ports.LedgerRepository
	log        zerolog.Logger
}

// NewLedgerPoster creates a new LedgerPosterImpl.
func NewLedgerPoster(ledgerRepo ports.LedgerRepository, log zerolog.Logger) *LedgerPosterImpl {
	return &LedgerPosterImpl{ledgerRepo: ledgerRepo, log: log}
}

// Post writes the balanced CHARGE posting for a paid order inside the
// caller's transaction. A second call for the same order is a no-op, so a
// duplicated invocation can never double-post. A balance-check failure is
// fatal and must abort the caller's transaction.
func (s *LedgerPosterImpl) Post(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	exists, err := s.ledgerRepo.ChargeExists(ctx, tx, order.ID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("charge exists check: %w", err))
	}
	if exists {
		s.log.Debug().Str("order_id", order.ID.String()).Msg("charge already posted, skipping")
		return nil
	}

	posting := domain.NewChargePosting(order)
	if err := posting.Validate(); err != nil {
		return apperror.ErrLedgerImbalance(err)
	}

	if err := s.ledgerRepo.CreatePosting(ctx, tx, posting); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("create posting: %w", err))
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Int64("amount_cents", order.AmountCents).
		Str("currency", order.Currency).
		Msg("ledger charge posted")
	return nil
}
