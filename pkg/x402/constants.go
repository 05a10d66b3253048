package x402

import "time"

// HTTP surface constants.
const (
	// HeaderPaymentAuthorization carries the base64-encoded payment proof on
	// a retried request.
	HeaderPaymentAuthorization = "X-Payment-Authorization"
)

// Protocol defaults.
const (
	// AssetTypeSPL is the default fungible-token kind tag.
	AssetTypeSPL = "SPL"

	// NetworkMainnet and friends are the logical ledger identifiers the
	// engine knows default endpoints for.
	NetworkMainnet = "solana-mainnet"
	NetworkDevnet  = "solana-devnet"
	NetworkTestnet = "solana-testnet"

	// DefaultExpiry is the horizon applied to a fresh demand when the caller
	// does not override it.
	DefaultExpiry = 300 * time.Second
)
