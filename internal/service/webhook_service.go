package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"
	"github.com/Andorta/payments-reliability-milestone/pkg/apperror"

	"github.com/rs/zerolog"
)

// WebhookServiceImpl implements ports.WebhookService. Event claim, state
// transition, ledger posting and the processed mark share one database
// transaction: a crash mid-handling leaves the event unclaimed and the
// provider's redelivery retries cleanly.
type WebhookServiceImpl struct {
	orderRepo   ports.OrderRepository
	webhookRepo ports.WebhookEventRepository
	ledger      ports.LedgerPoster
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewWebhookService creates a new WebhookServiceImpl.
func NewWebhookService(
	orderRepo ports.OrderRepository,
	webhookRepo ports.WebhookEventRepository,
	ledger ports.LedgerPoster,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WebhookServiceImpl {
	return &WebhookServiceImpl{
		orderRepo:   orderRepo,
		webhookRepo: webhookRepo,
		ledger:      ledger,
		transactor:  transactor,
		log:         log,
	}
}

// ProcessEvent handles one provider callback. The same event id delivered N
// times produces exactly one state change and at most one ledger posting;
// replays are acknowledged with the duplicate flag.
func (s *WebhookServiceImpl) ProcessEvent(ctx context.Context, in ports.WebhookInput) (*ports.WebhookResult, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock the order row first: concurrent deliveries for the same order
	// serialize here, and an unknown order fails before the event claim
	// can commit.
	order, err := s.orderRepo.GetByIDForUpdate(ctx, dbTx, in.OrderID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound()
	}

	now := time.Now().UTC()
	claimed, err := s.webhookRepo.Claim(ctx, dbTx, &domain.WebhookEvent{
		EventID:    in.EventID,
		OrderID:    in.OrderID,
		Payload:    in.Payload,
		ReceivedAt: now,
	})
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("claim event: %w", err))
	}
	if !claimed {
		s.log.Info().
			Str("event_id", in.EventID).
			Str("order_id", in.OrderID.String()).
			Msg("duplicate webhook event acknowledged")
		return &ports.WebhookResult{Duplicate: true, Status: order.Status}, nil
	}

	target := domain.OrderStatusFailed
	if in.Outcome == domain.WebhookOutcomePaid {
		target = domain.OrderStatusPaid
	}

	transition, err := order.Transition(target)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("apply transition: %w", err))
	}

	if transition == domain.TransitionApplied {
		if err := s.orderRepo.UpdateStatus(ctx, dbTx, order.ID, order.Status, order.ReadyToShip); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("update order status: %w", err))
		}
		if order.Status == domain.OrderStatusPaid {
			if err := s.ledger.Post(ctx, dbTx, order); err != nil {
				return nil, err
			}
		}
	}

	if err := s.webhookRepo.MarkProcessed(ctx, dbTx, in.EventID, time.Now().UTC()); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mark event processed: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("event_id", in.EventID).
		Str("order_id", in.OrderID.String()).
		Str("status", string(order.Status)).
		Bool("already_final", transition == domain.TransitionAlreadyFinal).
		Msg("webhook event applied")

	return &ports.WebhookResult{Duplicate: false, Status: order.Status}, nil
}
