// internal/engine/errors.go
package engine

import "errors"

var (
	// ErrInvalidAmount rejects non-positive, NaN or infinite trade amounts
	// before any state is touched.
	ErrInvalidAmount = errors.New("trade amount must be a positive finite number")

	// ErrInvalidInput rejects malformed token or comment parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientBalance rejects sells that exceed the trader's held
	// tokens at the current price.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrConcurrentModification marks an optimistic-concurrency conflict on
	// the token's market state. The engine retries these internally; callers
	// only see it wrapped in ErrTradeFailed once retries are exhausted.
	ErrConcurrentModification = errors.New("token state modified concurrently")

	// ErrTradeFailed is the terminal failure surfaced to callers; it always
	// wraps the underlying cause.
	ErrTradeFailed = errors.New("trade failed")
)
