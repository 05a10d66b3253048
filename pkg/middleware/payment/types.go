package payment

import "context"

// PaymentInfo holds information about a processed payment, made available to
// the wrapped handler through the request context.
type PaymentInfo struct {
	// PaymentID correlates the proof with the demand it answered.
	PaymentID string

	// AmountPaid is the settled amount as a decimal string. "0" for free
	// requests.
	AmountPaid string

	// Signature is the ledger transaction reference of the payment.
	Signature string

	// PublicKey is the payer's ledger identity.
	PublicKey string

	// Verified reports whether the proof was checked against ledger history.
	Verified bool
}

// contextKey is a private type for context keys.
type contextKey string

// PaymentKey is the context key for payment info.
const PaymentKey contextKey = "payment_info"

// GetPaymentInfoFromContext retrieves payment info from context.
func GetPaymentInfoFromContext(ctx context.Context) (*PaymentInfo, bool) {
	info, ok := ctx.Value(PaymentKey).(*PaymentInfo)
	return info, ok
}
