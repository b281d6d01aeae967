package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// IdempotencyRecord binds a caller-supplied key to exactly one request-body
// hash and, once the guarded operation commits, its response. Records are
// permanent dedup state, not a cache: they are never deleted.
type IdempotencyRecord struct {
	Key          string     `json:"key"`
	RequestHash  string     `json:"request_hash"`
	StatusCode   *int       `json:"status_code,omitempty"`
	ResponseJSON []byte     `json:"response_json,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Completed reports whether the guarded operation finished and stored its
// response. A claimed-but-incomplete record means the first execution is
// still in flight (or crashed before commit, in which case the claim itself
// rolled back and the record does not exist).
func (r *IdempotencyRecord) Completed() bool {
	return r.StatusCode != nil && r.ResponseJSON != nil
}

// CanonicalRequestHash computes the sha256 hex digest of the normalized
// checkout body, serialized as compact JSON with lexically sorted keys.
// Two requests are "the same" for idempotency purposes iff their hashes match.
func CanonicalRequestHash(buyerID, sellerID string, amountCents int64, currency string, trust BuyerTrust) string {
	payload := map[string]any{
		"amount_cents": amountCents,
		"buyer_id":     buyerID,
		"buyer_trust":  string(trust),
		"currency":     currency,
		"seller_id":    sellerID,
	}
	// encoding/json emits map keys sorted and compact by default.
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
