package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"
	"github.com/Andorta/payments-reliability-milestone/pkg/apperror"

	"github.com/rs/zerolog"
)

// DecisionEngine maps a provider charge attempt to an initial order status.
// A timeout is never an error here: it resolves to PENDING_PAYMENT when the
// outage policy approves the buyer, FAILED otherwise. Callers invoke Decide
// at most once per idempotency key, so its nondeterminism can never show a
// retried request a different outcome.
type DecisionEngine struct {
	provider        ports.PaymentProvider
	pendingCapCents int64
	log             zerolog.Logger
}

// NewDecisionEngine creates a new DecisionEngine.
func NewDecisionEngine(provider ports.PaymentProvider, pendingCapCents int64, log zerolog.Logger) *DecisionEngine {
	return &DecisionEngine{
		provider:        provider,
		pendingCapCents: pendingCapCents,
		log:             log,
	}
}

// Decide attempts the charge and returns the resulting order status.
func (e *DecisionEngine) Decide(ctx context.Context, in ports.CheckoutInput) (domain.OrderStatus, error) {
	result, err := e.provider.Charge(ctx, ports.ChargeRequest{
		BuyerID:     in.BuyerID,
		SellerID:    in.SellerID,
		AmountCents: in.AmountCents,
		Currency:    in.Currency,
		BuyerTrust:  string(in.BuyerTrust),
	})
	if err != nil {
		if errors.Is(err, ports.ErrProviderTimeout) {
			if domain.EligibleForPending(in.BuyerTrust, in.AmountCents, e.pendingCapCents) {
				e.log.Info().
					Str("buyer_id", in.BuyerID).
					Int64("amount_cents", in.AmountCents).
					Msg("provider timeout, outage policy approved pending payment")
				return domain.OrderStatusPendingPayment, nil
			}
			e.log.Info().
				Str("buyer_id", in.BuyerID).
				Str("buyer_trust", string(in.BuyerTrust)).
				Int64("amount_cents", in.AmountCents).
				Msg("provider timeout, outage policy rejected order")
			return domain.OrderStatusFailed, nil
		}
		return "", apperror.InternalError(fmt.Errorf("provider charge: %w", err))
	}

	switch result.Status {
	case ports.ProviderStatusSucceeded:
		return domain.OrderStatusPaid, nil
	case ports.ProviderStatusDeclined:
		return domain.OrderStatusFailed, nil
	default:
		return "", apperror.InternalError(fmt.Errorf("unknown provider status %q", result.Status))
	}
}
