package mixer

import (
	"errors"
	"fmt"
)

// Error kinds a mix run can terminate with. Every pipeline step either
// returns valid output or one of these; nothing is retried above the
// step that failed.
var (
	// ErrConfiguration marks caller or environment misconfiguration,
	// detected before any funds move.
	ErrConfiguration = errors.New("configuration error")

	// ErrCustody marks a failed chain custody call. Funds remain
	// wherever the failing call left them.
	ErrCustody = errors.New("custody operation failed")

	// ErrPaymentNotConfirmed marks Lightning settlement that was not
	// observed after one bounded recheck.
	ErrPaymentNotConfirmed = errors.New("lightning payment not confirmed")

	// ErrInsufficientProofs marks a proof pool that cannot cover a
	// required redemption. No partial distribution is attempted.
	ErrInsufficientProofs = errors.New("insufficient ecash proofs")

	// ErrSwapFailed marks a swap the provider rejected or that timed
	// out. One refund is attempted before this propagates.
	ErrSwapFailed = errors.New("swap failed")

	// ErrInvariantViolation marks an internal consistency check
	// failure. Always fatal, never retried.
	ErrInvariantViolation = errors.New("invariant violation")
)

func configurationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func custodyError(cause error, op string) error {
	return fmt.Errorf("%w: %s: %v", ErrCustody, op, cause)
}

func paymentNotConfirmed(detail string) error {
	return fmt.Errorf("%w: %s", ErrPaymentNotConfirmed, detail)
}

func insufficientProofs(have, need uint64) error {
	return fmt.Errorf("%w: have %d, need %d", ErrInsufficientProofs, have, need)
}

func swapFailed(cause error, detail string) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrSwapFailed, detail, cause)
	}
	return fmt.Errorf("%w: %s", ErrSwapFailed, detail)
}

func invariantViolation(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, detail)
}
