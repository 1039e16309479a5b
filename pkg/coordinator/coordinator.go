// Package coordinator is the Sign Coordinator: it turns a (tx_id,
// account_id, digest) request into a completed CGGMP21 signing session,
// owning both ends of the Protocol Driver's Transport — the local
// Room Bus subscription and the peer RPC dispatch.
package coordinator

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/binance-chain/wallet-mpc-signer/internal/log"
	"github.com/binance-chain/wallet-mpc-signer/internal/party"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/gateway"
	"github.com/binance-chain/wallet-mpc-signer/pkg/keyshare"
	"github.com/binance-chain/wallet-mpc-signer/pkg/signing"
	"github.com/binance-chain/wallet-mpc-signer/pkg/wire"
)

var logger = log.Named("coordinator")

// PeerClient is how a Coordinator asks its co-signer to join a session.
// The one concrete implementation, httpPeerClient, speaks plain
// HTTP+JSON to the peer's /sign endpoint.
type PeerClient interface {
	RequestSign(ctx context.Context, msg wire.SignMessage) (*wire.SignatureMessage, error)
}

// Config is the fixed, per-deployment shape of the two-participant
// session this Coordinator drives.
type Config struct {
	// SelfIndex/PeerIndex are this deployment's two session-local party
	// indices (0 and 1 in either order); Ks[SelfIndex]/Ks[PeerIndex] of
	// the resolved share pick the VSS shares that correspond to them.
	SelfIndex, PeerIndex int
	// PeerBusAddr is the peer's Room Bus HTTP base address, where this
	// process's driver posts its outbound round messages.
	PeerBusAddr string
	// SessionTimeout bounds how long one Sign call may run.
	SessionTimeout time.Duration
	// DegenerateNonceRetries bounds restart attempts after ErrDegenerateNonce.
	DegenerateNonceRetries int
}

// Coordinator is the process-local sign-request entry point.
type Coordinator struct {
	cfg   Config
	store *keyshare.Store
	bus   *gateway.Bus
	peer  PeerClient

	instanceID uint16
	counter    uint32

	mu     sync.Mutex
	active map[int32]struct{}
}

// New builds a Coordinator. instanceID is seeded once at construction
// from the current time mixed with crypto/rand, per spec's tx_id scheme.
func New(cfg Config, store *keyshare.Store, bus *gateway.Bus, peer PeerClient) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		store:      store,
		bus:        bus,
		peer:       peer,
		instanceID: newInstanceID(),
		active:     make(map[int32]struct{}),
	}
}

func newInstanceID() uint16 {
	var b [2]byte
	_, _ = rand.Read(b[:])
	mix := uint16(time.Now().UnixNano()) ^ uint16(b[0])<<8 ^ uint16(b[1])
	return mix
}

// NewTxID assembles a fresh tx_id: (instance_id << 16) | counter, with
// counter a monotonic per-instance 16-bit value that wraps.
func (c *Coordinator) NewTxID() int32 {
	n := atomic.AddUint32(&c.counter, 1)
	counter16 := uint16(n)
	return int32(uint32(c.instanceID)<<16 | uint32(counter16))
}

// Sign runs sign(tx_id, account_id, digest) -> (r, s, v) to completion as
// the initiating participant: it resolves the share, derives room_id,
// launches the local driver against a bus-backed Transport, dispatches
// the same request to the peer, and pumps until the driver finishes or
// the session deadline fires.
func (c *Coordinator) Sign(ctx context.Context, txID int32, accountID string, digest []byte) (*signing.Signature, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidDigest
	}
	if !c.claim(txID) {
		return nil, ErrRoomExists
	}
	defer c.release(txID)

	var sig *signing.Signature
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s, derr := c.runSessionWithRetry(gctx, txID, accountID, digest)
		if derr != nil {
			return derr
		}
		sig = s
		return nil
	})
	group.Go(func() error {
		execID := make([]byte, 16)
		_, _ = rand.Read(execID)
		msg := wire.SignMessage{TxID: txID, ExecutionID: execID, Data: digest, AccountID: accountID}
		if _, perr := c.peer.RequestSign(gctx, msg); perr != nil {
			return fmt.Errorf("%w: %s", ErrPeerUnreachable, perr)
		}
		return nil
	})

	if werr := group.Wait(); werr != nil {
		return nil, werr
	}
	return sig, nil
}

// Join runs the same session as the responding participant, in answer
// to a peer's SignMessage arriving over the RPC surface — it mirrors
// Sign's local steps without dispatching a peer request of its own.
func (c *Coordinator) Join(ctx context.Context, txID int32, accountID string, digest []byte) (*signing.Signature, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidDigest
	}
	if !c.claim(txID) {
		return nil, ErrRoomExists
	}
	defer c.release(txID)
	return c.runSessionWithRetry(ctx, txID, accountID, digest)
}

// runSessionWithRetry restarts the session with fresh randomness on a
// degenerate nonce (R = O), up to Config.DegenerateNonceRetries times,
// before giving up with ErrDegenerateNonce — the driver itself never
// retries, per signing.ErrDegenerateNonce's doc comment. Each attempt
// gets its own room, since a closed room never resurrects.
func (c *Coordinator) runSessionWithRetry(ctx context.Context, txID int32, accountID string, digest []byte) (*signing.Signature, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.DegenerateNonceRetries; attempt++ {
		sig, err := c.runSession(ctx, txID, accountID, digest, attempt)
		if err == nil {
			return sig, nil
		}
		if !errors.Is(err, signing.ErrDegenerateNonce) {
			return nil, err
		}
		lastErr = err
		logger.Warnf("tx %d: degenerate nonce on attempt %d, retrying", txID, attempt)
	}
	return nil, lastErr
}

// runSession resolves the share, builds the bus-backed Transport, and
// drives one CGGMP21 signing session to completion. Shared by Sign
// (initiator) and Join (responder); the caller is responsible for
// claiming/releasing txID. attempt distinguishes a degenerate-nonce
// restart's room from the one a prior attempt already closed.
func (c *Coordinator) runSession(ctx context.Context, txID int32, accountID string, digest []byte, attempt int) (*signing.Signature, error) {
	share, err := c.store.Lookup(accountID)
	if err != nil {
		return nil, ErrUnknownAccount
	}

	roomID := fmt.Sprintf("signing_%d", uint32(txID))
	if attempt > 0 {
		roomID = fmt.Sprintf("signing_%d_retry%d", uint32(txID), attempt)
	}

	sessionCtx := ctx
	if c.cfg.SessionTimeout > 0 {
		var cancel context.CancelFunc
		sessionCtx, cancel = context.WithTimeout(ctx, c.cfg.SessionTimeout)
		defer cancel()
	}
	defer func() {
		if cerr := c.bus.Close(roomID); cerr != nil {
			logger.Warnf("room %s close: %s", roomID, cerr)
		}
	}()

	sortedIDs, ourIdx := sessionParties(share, c.cfg.SelfIndex, c.cfg.PeerIndex)
	partyCtx := party.NewContext(party.UnsortedIDs(sortedIDs), ourIdx)
	params := party.NewParameters(curve.Secp256k1, partyCtx, sortedIDs[ourIdx], share.PartyCount, share.Threshold)

	transport, err := newBusTransport(sessionCtx, c.bus, roomID, sortedIDs, ourIdx, c.cfg.PeerBusAddr)
	if err != nil {
		return nil, err
	}

	driver := signing.NewDriver(params, share, transport, digest)
	return driver.Run(sessionCtx)
}

func (c *Coordinator) claim(txID int32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.active[txID]; exists {
		return false
	}
	c.active[txID] = struct{}{}
	return true
}

func (c *Coordinator) release(txID int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, txID)
}

// sessionParties builds the two-party ordering the Protocol Driver needs
// from the resolved share's VSS index set, returning our position within
// the sorted set.
func sessionParties(share *keyshare.Share, selfKsIdx, peerKsIdx int) (party.SortedIDs, int) {
	ks := share.VSSSetup.Ks
	unsorted := party.UnsortedIDs{
		party.New(fmt.Sprintf("party-%d", selfKsIdx), "self", ks[selfKsIdx]),
		party.New(fmt.Sprintf("party-%d", peerKsIdx), "peer", ks[peerKsIdx]),
	}
	sorted := party.SortIDs(unsorted)
	ourIdx := 0
	for i, id := range sorted {
		if id.KeyInt().Cmp(ks[selfKsIdx]) == 0 {
			ourIdx = i
		}
	}
	return sorted, ourIdx
}
