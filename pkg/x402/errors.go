package x402

import (
	"errors"
	"fmt"
)

// Kind classifies a protocol failure.
type Kind string

// All failure classes surfaced by the engine.
const (
	KindPaymentRequired             Kind = "PaymentRequired"
	KindPaymentExpired              Kind = "PaymentExpired"
	KindInsufficientFunds           Kind = "InsufficientFunds"
	KindPaymentVerification         Kind = "PaymentVerification"
	KindTransactionBroadcast        Kind = "TransactionBroadcast"
	KindInvalidPaymentRequest       Kind = "InvalidPaymentRequest"
	KindInvalidPaymentAuthorization Kind = "InvalidPaymentAuthorization"
	KindConfiguration               Kind = "Configuration"
	KindNetworkError                Kind = "NetworkError"
	KindLedgerError                 Kind = "LedgerError"
	KindSerializationError          Kind = "SerializationError"
)

// Code returns the stable machine code for the kind.
func (k Kind) Code() string {
	switch k {
	case KindPaymentRequired:
		return "PAYMENT_REQUIRED"
	case KindPaymentExpired:
		return "PAYMENT_EXPIRED"
	case KindInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case KindPaymentVerification:
		return "PAYMENT_VERIFICATION"
	case KindTransactionBroadcast:
		return "TRANSACTION_BROADCAST"
	case KindInvalidPaymentRequest:
		return "INVALID_PAYMENT_REQUEST"
	case KindInvalidPaymentAuthorization:
		return "INVALID_PAYMENT_AUTHORIZATION"
	case KindConfiguration:
		return "CONFIGURATION"
	case KindNetworkError:
		return "NETWORK_ERROR"
	case KindLedgerError:
		return "LEDGER_ERROR"
	case KindSerializationError:
		return "SERIALIZATION_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Error is the typed failure returned by every engine operation.
// It carries a human-readable message and a stable machine code via Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "[" + e.Kind.Code() + "] " + e.Message
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality, so errors.Is can match bare-kind sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates a typed error with a formatted message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a typed error wrapping an underlying cause.
func WrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err is (or wraps) a typed error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
