package service

import (
	"context"
	"fmt"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"
	"github.com/Andorta/payments-reliability-milestone/internal/core/ports"
	"github.com/Andorta/payments-reliability-milestone/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderQueryServiceImpl implements ports.OrderQueryService.
type OrderQueryServiceImpl struct {
	orderRepo ports.OrderRepository
	log       zerolog.Logger
}

// NewOrderQueryService creates a new OrderQueryServiceImpl.
func NewOrderQueryService(orderRepo ports.OrderRepository, log zerolog.Logger) *OrderQueryServiceImpl {
	return &OrderQueryServiceImpl{orderRepo: orderRepo, log: log}
}

// GetOrder returns the order by id.
func (s *OrderQueryServiceImpl) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound()
	}
	return order, nil
}
