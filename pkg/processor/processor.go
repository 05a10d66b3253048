// Package processor defines the abstract payment-processor contract and its
// ledger realizations. The contract keeps the protocol and retry logic
// independent of any specific ledger SDK: any implementation that can create
// a payment for a demand and verify a proof against ledger history is
// interchangeable with any other.
package processor

import (
	"context"

	"github.com/openlibx402/go-x402/pkg/x402"
)

// PaymentProcessor is the capability a payer or a resource guard plugs in to
// settle and check payments. The signing credential of the payer side is
// injected when the concrete realization is constructed.
type PaymentProcessor interface {
	// CreatePayment settles the demand on the ledger and returns the proof.
	// It submits an irreversible value transfer and awaits its finality
	// before returning. The realization always pays exactly the demand's
	// max_amount_required. Failures after broadcast are reported as
	// TransactionBroadcast and are never retried here; retry policy belongs
	// to the caller.
	CreatePayment(ctx context.Context, demand *x402.PaymentDemand) (*x402.PaymentProof, error)

	// VerifyPayment checks the proof's transaction against ledger history.
	// It returns true only when the transaction exists, succeeded, and
	// transferred at least expectedAmount (a decimal string). A transaction
	// that cannot be found, failed, or paid less yields PaymentVerification.
	VerifyPayment(ctx context.Context, proof *x402.PaymentProof, expectedAmount string) (bool, error)
}
