package domain

// EligibleForPending decides whether an order may be parked as
// PENDING_PAYMENT while the payment provider is unreachable, instead of
// failing outright. Only trusted buyers with amounts strictly under the cap
// qualify; this bounds financial exposure taken on during an outage.
//
// Pure function: no state, no side effects.
func EligibleForPending(trust BuyerTrust, amountCents, capCents int64) bool {
	return trust == BuyerTrustTrusted && amountCents < capCents
}
