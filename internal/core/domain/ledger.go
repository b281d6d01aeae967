package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LedgerAccount names an account in the fixed two-account chart.
type LedgerAccount string

const (
	AccountCash          LedgerAccount = "cash"
	AccountSellerPayable LedgerAccount = "seller_payable"
)

// EntryDirection is the side of a double-entry posting.
type EntryDirection string

const (
	DirectionDebit  EntryDirection = "DEBIT"
	DirectionCredit EntryDirection = "CREDIT"
)

// LedgerTransactionType is the kind of money movement a ledger transaction
// records. The system only finalizes payments, so CHARGE is the sole type.
type LedgerTransactionType string

const LedgerTypeCharge LedgerTransactionType = "CHARGE"

// LedgerTransaction represents one finalized payment event for an order.
// At most one CHARGE transaction ever exists per order.
type LedgerTransaction struct {
	ID          uuid.UUID             `json:"id"`
	OrderID     uuid.UUID             `json:"order_id"`
	Type        LedgerTransactionType `json:"type"`
	Currency    string                `json:"currency"`
	AmountCents int64                 `json:"amount_cents"`
	CreatedAt   time.Time             `json:"created_at"`
}

// LedgerEntry is one side of a double-entry posting. Entries are immutable.
type LedgerEntry struct {
	ID          uuid.UUID      `json:"id"`
	TxnID       uuid.UUID      `json:"txn_id"`
	Account     LedgerAccount  `json:"account"`
	Direction   EntryDirection `json:"direction"`
	Currency    string         `json:"currency"`
	AmountCents int64          `json:"amount_cents"`
}

// Posting is a ledger transaction together with its entries. All rows of a
// posting commit together or not at all.
type Posting struct {
	Transaction LedgerTransaction
	Entries     []LedgerEntry
}

// NewChargePosting builds the balanced posting for a paid order:
// DEBIT cash, CREDIT seller_payable, both for the order amount and currency.
func NewChargePosting(o *Order) Posting {
	txnID := uuid.New()
	txn := LedgerTransaction{
		ID:          txnID,
		OrderID:     o.ID,
		Type:        LedgerTypeCharge,
		Currency:    o.Currency,
		AmountCents: o.AmountCents,
		CreatedAt:   time.Now().UTC(),
	}
	entries := []LedgerEntry{
		{
			ID:          uuid.New(),
			TxnID:       txnID,
			Account:     AccountCash,
			Direction:   DirectionDebit,
			Currency:    o.Currency,
			AmountCents: o.AmountCents,
		},
		{
			ID:          uuid.New(),
			TxnID:       txnID,
			Account:     AccountSellerPayable,
			Direction:   DirectionCredit,
			Currency:    o.Currency,
			AmountCents: o.AmountCents,
		},
	}
	return Posting{Transaction: txn, Entries: entries}
}

// Validate checks the double-entry invariant: per transaction, total debits
// equal total credits and every entry carries the transaction's currency.
// A failure here must abort the enclosing unit of work.
func (p Posting) Validate() error {
	var debits, credits int64
	for _, e := range p.Entries {
		if e.Currency != p.Transaction.Currency {
			return fmt.Errorf("entry currency %s does not match transaction currency %s", e.Currency, p.Transaction.Currency)
		}
		if e.AmountCents < 0 {
			return fmt.Errorf("entry amount %d is negative", e.AmountCents)
		}
		switch e.Direction {
		case DirectionDebit:
			debits += e.AmountCents
		case DirectionCredit:
			credits += e.AmountCents
		default:
			return fmt.Errorf("unknown entry direction %q", e.Direction)
		}
	}
	if debits != credits {
		return fmt.Errorf("unbalanced posting: debits %d != credits %d", debits, credits)
	}
	return nil
}
