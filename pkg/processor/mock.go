package processor

import (
	"context"

	"github.com/rs/xid"

	"github.com/openlibx402/go-x402/pkg/x402"
)

// MockProcessor implements PaymentProcessor against a fake in-memory ledger
// for testing. It honors the same preconditions as a real realization
// (expiry, balance, amount parsing) without any network.
type MockProcessor struct {
	// Balance is the payer's spendable balance in minor units.
	Balance uint64

	// PublicKey is reported as the payer identity on minted proofs.
	PublicKey string

	// CreateErr and VerifyErr, when set, are returned instead of the normal
	// behavior.
	CreateErr error
	VerifyErr error

	// CreateCalls and VerifyCalls count invocations.
	CreateCalls int
	VerifyCalls int

	// Payments holds every proof minted so far.
	Payments []*x402.PaymentProof
}

// NewMockProcessor creates a mock with a 100-token balance.
func NewMockProcessor() *MockProcessor {
	return &MockProcessor{
		Balance:   100 * 1_000_000,
		PublicKey: "mock-payer-public-key",
	}
}

// CreatePayment implements PaymentProcessor. It debits the mock balance and
// mints a proof with a unique mock signature.
func (m *MockProcessor) CreatePayment(_ context.Context, demand *x402.PaymentDemand) (*x402.PaymentProof, error) {
	m.CreateCalls++

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if demand.Expired() {
		return nil, x402.NewError(x402.KindPaymentExpired,
			"payment demand %s expired at %s", demand.PaymentID, demand.ExpiresAt)
	}

	amount, err := x402.ParseAmount(demand.MaxAmountRequired)
	if err != nil {
		return nil, err
	}
	if amount > m.Balance {
		return nil, x402.NewError(x402.KindInsufficientFunds,
			"insufficient funds: need %s, have %s",
			demand.MaxAmountRequired, x402.FormatAmount(m.Balance))
	}
	m.Balance -= amount

	proof := x402.NewProof(x402.ProofParams{
		PaymentID:      demand.PaymentID,
		ActualAmount:   demand.MaxAmountRequired,
		PaymentAddress: demand.PaymentAddress,
		AssetAddress:   demand.AssetAddress,
		Network:        demand.Network,
		Signature:      "mock-tx-" + xid.New().String(),
		PublicKey:      m.PublicKey,
	})
	m.Payments = append(m.Payments, proof)
	return proof, nil
}

// VerifyPayment implements PaymentProcessor. Every minted signature is
// considered present and successful on the fake ledger; only the amount
// check can fail.
func (m *MockProcessor) VerifyPayment(_ context.Context, proof *x402.PaymentProof, expectedAmount string) (bool, error) {
	m.VerifyCalls++

	if m.VerifyErr != nil {
		return false, m.VerifyErr
	}
	if proof.Signature == "" {
		return false, x402.NewError(x402.KindInvalidPaymentAuthorization, "proof has no signature")
	}

	expected, err := x402.ParseAmount(expectedAmount)
	if err != nil {
		return false, err
	}
	actual, err := x402.ParseAmount(proof.ActualAmount)
	if err != nil {
		return false, x402.WrapError(x402.KindInvalidPaymentAuthorization, err,
			"invalid actual amount %q", proof.ActualAmount)
	}
	if actual < expected {
		return false, x402.NewError(x402.KindPaymentVerification,
			"payment amount %s is less than required %s", proof.ActualAmount, expectedAmount)
	}
	return true, nil
}
