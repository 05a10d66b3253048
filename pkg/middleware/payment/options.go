package payment

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/openlibx402/go-x402/pkg/processor"
	"github.com/openlibx402/go-x402/pkg/replay"
)

// Common configuration errors.
var (
	ErrNoPaymentAddress = errors.New("a payment address must be supplied to the payment middleware")
	ErrNoAssetAddress   = errors.New("an asset address must be supplied to the payment middleware")
	ErrNoPrice          = errors.New("a price or a price function must be supplied to the payment middleware")
)

// Options configures the payment middleware.
type Options struct {
	// PaymentAddress is the ledger address that must receive funds.
	PaymentAddress string

	// AssetAddress identifies the fungible token payments are made in.
	AssetAddress string

	// Network is the logical ledger identifier. Defaults to the devnet.
	Network string

	// Price is the cost of every guarded request, as a decimal string.
	// Either Price or CalculateRequestPrice must be set.
	Price string

	// Description is an optional human-readable note on issued demands.
	Description string

	// ExpiresIn is the validity horizon of issued demands, also used as the
	// replay retention window. Defaults to the protocol default of 300s.
	ExpiresIn time.Duration

	// CalculateRequestPrice determines the cost per request, overriding
	// Price. Returning "0" or "" grants free access.
	CalculateRequestPrice func(r *http.Request) (string, error)

	// Processor, when set, verifies every proof against ledger history
	// before the request is served.
	Processor processor.PaymentProcessor

	// Replay, when set, rejects proofs that were already consumed.
	Replay replay.Store

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}
