package signing

import (
	"errors"
	"fmt"

	"github.com/binance-chain/wallet-mpc-signer/internal/party"
)

var (
	// ErrDegenerateNonce is returned when the combined nonce point R lands
	// at infinity (probability ~0 but checked). The driver never retries
	// on its own; the coordinator owns the retry budget.
	ErrDegenerateNonce = errors.New("signing: degenerate nonce, R is the point at infinity")

	// ErrUnknownCulprit is returned by identifiable abort when the final
	// signature failed to verify but every round-6 proof still checks
	// out — nobody could be blamed.
	ErrUnknownCulprit = errors.New("signing: signature invalid but no culprit identified")

	// ErrTimeout is returned when the session's context deadline elapses
	// while waiting on a peer.
	ErrTimeout = errors.New("signing: session deadline exceeded")
)

// CulpritError is returned when identifiable abort (S6) pins the failure
// on one or more specific peers.
type CulpritError struct {
	Culprits []*party.ID
}

func (e *CulpritError) Error() string {
	return fmt.Sprintf("signing: identified culprit(s): %v", e.Culprits)
}

// ProtocolViolationError wraps a round check that failed for a reason
// other than a bad proof (e.g. an equality check the protocol requires),
// without attributing blame to a specific party.
type ProtocolViolationError struct {
	cause error
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("signing: protocol violation: %s", e.cause)
}

func (e *ProtocolViolationError) Unwrap() error { return e.cause }

func newProtocolViolation(format string, args ...interface{}) *ProtocolViolationError {
	return &ProtocolViolationError{cause: fmt.Errorf(format, args...)}
}
