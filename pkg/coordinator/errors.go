package coordinator

import "errors"

var (
	// ErrUnknownAccount mirrors keyshare.ErrUnknownAccount at the
	// coordinator boundary, surfaced to the RPC caller.
	ErrUnknownAccount = errors.New("coordinator: unknown account_id")

	// ErrRoomExists is returned when Sign is called with a tx_id whose
	// room is already in use — the caller must retry with a fresh id.
	ErrRoomExists = errors.New("coordinator: room already exists for this tx_id")

	// ErrPeerUnreachable is returned when the peer participant does not
	// accept or respond to the sign request.
	ErrPeerUnreachable = errors.New("coordinator: peer participant unreachable")

	// ErrInvalidDigest is returned when the digest is not exactly 32
	// bytes, before any room is created.
	ErrInvalidDigest = errors.New("coordinator: digest must be exactly 32 bytes")
)
