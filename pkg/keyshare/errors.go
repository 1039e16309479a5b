package keyshare

import "errors"

var (
	// ErrCorruptShare is returned by Load when any account's share fails
	// the g^x_i = X_i check. A single bad entry fails the whole load:
	// a Store is all-or-nothing, never partially populated.
	ErrCorruptShare = errors.New("keyshare: corrupt share: g^x_i != X_i")

	// ErrUnknownAccount is returned by Lookup for an account_id the
	// Store was never loaded with.
	ErrUnknownAccount = errors.New("keyshare: unknown account")
)
