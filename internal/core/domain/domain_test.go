package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_InitialState(t *testing.T) {
	tests := []struct {
		name            string
		status          OrderStatus
		wantReadyToShip bool
	}{
		{"paid order ships", OrderStatusPaid, true},
		{"pending order does not ship", OrderStatusPendingPayment, false},
		{"failed order does not ship", OrderStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrder("buyer-1", "seller-1", 5000, "EUR", BuyerTrustTrusted, tt.status)
			assert.NotEqual(t, "", o.ID.String())
			assert.Equal(t, tt.status, o.Status)
			assert.Equal(t, tt.wantReadyToShip, o.ReadyToShip)
			assert.False(t, o.CreatedAt.IsZero())
		})
	}
}

func TestOrder_Transition_FromPending(t *testing.T) {
	o := NewOrder("b", "s", 5000, "EUR", BuyerTrustTrusted, OrderStatusPendingPayment)

	res, err := o.Transition(OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, TransitionApplied, res)
	assert.Equal(t, OrderStatusPaid, o.Status)
	assert.True(t, o.ReadyToShip)
}

func TestOrder_Transition_ToFailedClearsReadyToShip(t *testing.T) {
	o := NewOrder("b", "s", 5000, "EUR", BuyerTrustNew, OrderStatusPendingPayment)

	res, err := o.Transition(OrderStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, TransitionApplied, res)
	assert.Equal(t, OrderStatusFailed, o.Status)
	assert.False(t, o.ReadyToShip)
}

func TestOrder_Transition_TerminalIsNoOp(t *testing.T) {
	for _, terminal := range []OrderStatus{OrderStatusPaid, OrderStatusFailed} {
		o := NewOrder("b", "s", 5000, "EUR", BuyerTrustTrusted, terminal)
		before := o.Status

		// Terminal states absorb every further transition attempt.
		for _, target := range []OrderStatus{OrderStatusPaid, OrderStatusFailed, OrderStatusPendingPayment} {
			res, err := o.Transition(target)
			require.NoError(t, err)
			assert.Equal(t, TransitionAlreadyFinal, res)
			assert.Equal(t, before, o.Status)
		}
	}
}

func TestOrder_Transition_InvalidTarget(t *testing.T) {
	o := NewOrder("b", "s", 5000, "EUR", BuyerTrustTrusted, OrderStatusPendingPayment)

	_, err := o.Transition(OrderStatusPendingPayment)
	assert.Error(t, err)
	assert.Equal(t, OrderStatusPendingPayment, o.Status)

	_, err = o.Transition(OrderStatus("SHIPPED"))
	assert.Error(t, err)
}

func TestBuyerTrust_Valid(t *testing.T) {
	assert.True(t, BuyerTrustTrusted.Valid())
	assert.True(t, BuyerTrustNew.Valid())
	assert.False(t, BuyerTrust("vip").Valid())
	assert.False(t, BuyerTrust("").Valid())
}

func TestEligibleForPending(t *testing.T) {
	const cap = 20000

	tests := []struct {
		name   string
		trust  BuyerTrust
		amount int64
		want   bool
	}{
		{"trusted under cap", BuyerTrustTrusted, 19999, true},
		{"trusted at cap is excluded", BuyerTrustTrusted, 20000, false},
		{"trusted over cap", BuyerTrustTrusted, 50000, false},
		{"new buyer under cap", BuyerTrustNew, 100, false},
		{"new buyer over cap", BuyerTrustNew, 50000, false},
		{"trusted zero amount", BuyerTrustTrusted, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EligibleForPending(tt.trust, tt.amount, cap))
		})
	}
}

func TestCanonicalRequestHash_Stable(t *testing.T) {
	h1 := CanonicalRequestHash("buyer-1", "seller-1", 5000, "EUR", BuyerTrustTrusted)
	h2 := CanonicalRequestHash("buyer-1", "seller-1", 5000, "EUR", BuyerTrustTrusted)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // sha256 hex
}

func TestCanonicalRequestHash_SensitiveToEveryField(t *testing.T) {
	base := CanonicalRequestHash("buyer-1", "seller-1", 5000, "EUR", BuyerTrustTrusted)

	assert.NotEqual(t, base, CanonicalRequestHash("buyer-2", "seller-1", 5000, "EUR", BuyerTrustTrusted))
	assert.NotEqual(t, base, CanonicalRequestHash("buyer-1", "seller-2", 5000, "EUR", BuyerTrustTrusted))
	assert.NotEqual(t, base, CanonicalRequestHash("buyer-1", "seller-1", 6000, "EUR", BuyerTrustTrusted))
	assert.NotEqual(t, base, CanonicalRequestHash("buyer-1", "seller-1", 5000, "USD", BuyerTrustTrusted))
	assert.NotEqual(t, base, CanonicalRequestHash("buyer-1", "seller-1", 5000, "EUR", BuyerTrustNew))
}

func TestIdempotencyRecord_Completed(t *testing.T) {
	rec := &IdempotencyRecord{Key: "k", RequestHash: "h"}
	assert.False(t, rec.Completed())

	code := 201
	rec.StatusCode = &code
	assert.False(t, rec.Completed())

	rec.ResponseJSON = []byte(`{"order_id":"x"}`)
	assert.True(t, rec.Completed())
}

func TestNewChargePosting_Balanced(t *testing.T) {
	o := NewOrder("b", "s", 5000, "EUR", BuyerTrustTrusted, OrderStatusPaid)
	p := NewChargePosting(o)

	require.NoError(t, p.Validate())
	assert.Equal(t, LedgerTypeCharge, p.Transaction.Type)
	assert.Equal(t, o.ID, p.Transaction.OrderID)
	assert.Equal(t, int64(5000), p.Transaction.AmountCents)

	require.Len(t, p.Entries, 2)
	assert.Equal(t, AccountCash, p.Entries[0].Account)
	assert.Equal(t, DirectionDebit, p.Entries[0].Direction)
	assert.Equal(t, AccountSellerPayable, p.Entries[1].Account)
	assert.Equal(t, DirectionCredit, p.Entries[1].Direction)
	for _, e := range p.Entries {
		assert.Equal(t, p.Transaction.ID, e.TxnID)
		assert.Equal(t, "EUR", e.Currency)
		assert.Equal(t, int64(5000), e.AmountCents)
	}
}

func TestPosting_Validate_Failures(t *testing.T) {
	o := NewOrder("b", "s", 5000, "EUR", BuyerTrustTrusted, OrderStatusPaid)

	t.Run("unbalanced amounts", func(t *testing.T) {
		p := NewChargePosting(o)
		p.Entries[1].AmountCents = 4999
		assert.Error(t, p.Validate())
	})

	t.Run("currency mismatch", func(t *testing.T) {
		p := NewChargePosting(o)
		p.Entries[0].Currency = "USD"
		assert.Error(t, p.Validate())
	})

	t.Run("unknown direction", func(t *testing.T) {
		p := NewChargePosting(o)
		p.Entries[0].Direction = EntryDirection("SIDEWAYS")
		assert.Error(t, p.Validate())
	})

	t.Run("negative amount", func(t *testing.T) {
		p := NewChargePosting(o)
		p.Entries[0].AmountCents = -5000
		p.Entries[1].AmountCents = -5000
		assert.Error(t, p.Validate())
	})
}
