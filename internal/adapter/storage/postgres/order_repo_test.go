package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Andorta/payments-reliability-milestone/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	order := &domain.Order{
		ID:          uuid.New(),
		BuyerID:     "buyer-1",
		SellerID:    "seller-1",
		AmountCents: 12500,
		Currency:    "USD",
		BuyerTrust:  domain.BuyerTrustTrusted,
		Status:      domain.OrderStatusPendingPayment,
		ReadyToShip: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(order.ID, order.BuyerID, order.SellerID, order.AmountCents, order.Currency,
			order.BuyerTrust, order.Status, order.ReadyToShip, order.CreatedAt, order.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, order)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM orders WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "buyer_id", "seller_id", "amount_cents", "currency",
			"buyer_trust", "status", "ready_to_ship", "created_at", "updated_at",
		}).AddRow(id, "buyer-1", "seller-1", int64(12500), "USD",
			domain.BuyerTrustNew, domain.OrderStatusPaid, true, now, now))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.OrderStatusPaid, result.Status)
	assert.True(t, result.ReadyToShip)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM orders WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "buyer_id", "seller_id", "amount_cents", "currency",
			"buyer_trust", "status", "ready_to_ship", "created_at", "updated_at",
		}))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM orders WHERE id = .+ FOR UPDATE").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "buyer_id", "seller_id", "amount_cents", "currency",
			"buyer_trust", "status", "ready_to_ship", "created_at", "updated_at",
		}).AddRow(id, "buyer-1", "seller-1", int64(900), "USD",
			domain.BuyerTrustTrusted, domain.OrderStatusPendingPayment, false, now, now))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, id)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.OrderStatusPendingPayment, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusPaid, true, pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateStatus(context.Background(), tx, id, domain.OrderStatusPaid, true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_UpdateStatus_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusFailed, false, pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateStatus(context.Background(), tx, id, domain.OrderStatusFailed, false)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
