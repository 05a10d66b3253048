package payment

// HTTP header constants.
const (
	// HeaderAmountPaid reports the settled amount on a successfully paid
	// response.
	HeaderAmountPaid = "X-Payment-Amount-Paid"
)

// Error codes returned in JSON error envelopes.
const (
	// ErrCodeServerMisconfigured indicates middleware configuration issues.
	ErrCodeServerMisconfigured = "ERR_SERVER_MISCONFIGURED"

	// ErrCodePaymentInternal indicates internal payment processing errors.
	ErrCodePaymentInternal = "ERR_PAYMENT_INTERNAL"

	// ErrCodePaymentRequired indicates payment is needed for the resource.
	ErrCodePaymentRequired = "ERR_PAYMENT_REQUIRED"

	// ErrCodeMalformedPayment indicates an undecodable payment proof header.
	ErrCodeMalformedPayment = "ERR_MALFORMED_PAYMENT"

	// ErrCodeReplayDetected indicates an already-consumed payment proof.
	ErrCodeReplayDetected = "ERR_REPLAY_DETECTED"

	// ErrCodePaymentFailed indicates a proof that did not verify.
	ErrCodePaymentFailed = "ERR_PAYMENT_FAILED"
)
