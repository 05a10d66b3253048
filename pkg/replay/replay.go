// Package replay provides the replay-protection capability a resource guard
// injects into the payment middleware. The engine generates nonces but does
// not track them itself; a guard wanting strict replay prevention persists
// consumed proofs here, with retention bounded by the demand expiry.
package replay

import (
	"context"
	"time"
)

// Store records consumed payment proofs. Consume returns true exactly once
// per (paymentID, token) pair; subsequent calls within the retention window
// return false. Implementations must be safe for concurrent use.
type Store interface {
	Consume(ctx context.Context, paymentID, token string, retainFor time.Duration) (bool, error)
}
