package signing

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binance-chain/wallet-mpc-signer/internal/party"
	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/keyshare"
	"github.com/binance-chain/wallet-mpc-signer/pkg/paillier"
	"github.com/binance-chain/wallet-mpc-signer/pkg/vss"
	"github.com/binance-chain/wallet-mpc-signer/pkg/wire"
)

// testModulusBits is small on purpose: these tests exercise protocol
// correctness, not the 3072-bit paillier.MinModulusBits floor that
// PublicKey.Validate checks (pkg/keyshare's Load does not call Validate).
const testModulusBits = 512

// chanTransport is an in-memory Transport backed by a pair of channels,
// one per direction, wired up by newChanTransports below.
type chanTransport struct {
	inbound chan wire.Envelope
	peers   map[uint16]chan wire.Envelope
}

func (t *chanTransport) Send(ctx context.Context, env wire.Envelope) error {
	if env.Receiver != nil {
		select {
		case t.peers[*env.Receiver] <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}
	for _, ch := range t.peers {
		select {
		case ch <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (t *chanTransport) Recv(ctx context.Context) (wire.Envelope, error) {
	select {
	case env := <-t.inbound:
		return env, nil
	case <-ctx.Done():
		return wire.Envelope{}, ctx.Err()
	}
}

// newChanTransports builds n Transports, one per party index, each able
// to send to and receive from every other.
func newChanTransports(n int) []*chanTransport {
	inboxes := make(map[uint16]chan wire.Envelope, n)
	for i := 0; i < n; i++ {
		inboxes[uint16(i)] = make(chan wire.Envelope, 256)
	}
	transports := make([]*chanTransport, n)
	for i := 0; i < n; i++ {
		peers := make(map[uint16]chan wire.Envelope, n-1)
		for j, ch := range inboxes {
			if int(j) == i {
				continue
			}
			peers[j] = ch
		}
		transports[i] = &chanTransport{inbound: inboxes[uint16(i)], peers: peers}
	}
	return transports
}

func genRingPedersen(t *testing.T) (nCap, h1, h2 *big.Int) {
	t.Helper()
	sk, _, err := paillier.GenerateKeyPair(context.Background(), testModulusBits)
	require.NoError(t, err)
	lambda := bignum.RandomPositiveInt(sk.PhiN)
	r := bignum.RandomRelativelyPrimeInt(sk.N)
	h1 = new(big.Int).Exp(r, big.NewInt(2), sk.N)
	h2 = new(big.Int).Exp(h1, lambda, sk.N)
	return sk.N, h1, h2
}

// newTwoPartyShares builds a consistent 2-of-2 keyshare.Share pair: both
// parties' effective shares reconstruct the same shared private key via
// the Lagrange coefficients pkg/vss already implements.
func newTwoPartyShares(t *testing.T) (shares []*keyshare.Share, ids party.SortedIDs) {
	t.Helper()
	order := curve.Order()

	unsorted := party.UnsortedIDs{
		party.New("p0", "alice", big.NewInt(1)),
		party.New("p1", "bob", big.NewInt(2)),
	}
	ids = party.SortIDs(unsorted)
	ks := []*big.Int{ids[0].KeyInt(), ids[1].KeyInt()}

	x0, err := curve.Secp256k1.RandomScalar(nil)
	require.NoError(t, err)
	x1, err := curve.Secp256k1.RandomScalar(nil)
	require.NoError(t, err)
	xis := []*big.Int{x0, x1}

	// Reconstructed secret, via the same Lagrange machinery the driver
	// uses at S0 — this is what makes (x0, x1) a valid 2-of-2 sharing.
	secretKey := new(big.Int)
	for i, xi := range xis {
		lambda := vss.LagrangeCoefficient(ks[i], ks)
		term := new(big.Int).Mul(lambda, xi)
		secretKey.Add(secretKey, term)
	}
	secretKey.Mod(secretKey, order)

	sharedPub := curve.ScalarBaseMult(secretKey)
	publicShares := []*curve.Point{curve.ScalarBaseMult(x0), curve.ScalarBaseMult(x1)}

	sks := make([]*paillier.PrivateKey, 2)
	pks := make([]*paillier.PublicKey, 2)
	for i := range sks {
		sk, pk, err := paillier.GenerateKeyPair(context.Background(), testModulusBits)
		require.NoError(t, err)
		sks[i] = sk
		pks[i] = pk
	}

	nCaps := make([]*big.Int, 2)
	h1s := make([]*big.Int, 2)
	h2s := make([]*big.Int, 2)
	for i := range nCaps {
		nCaps[i], h1s[i], h2s[i] = genRingPedersen(t)
	}

	shares = make([]*keyshare.Share, 2)
	for i := range shares {
		shares[i] = &keyshare.Share{
			AccountID:       "acct-1",
			I:               i,
			Threshold:       2,
			PartyCount:      2,
			SharedPublicKey: sharedPub,
			PublicShares:    publicShares,
			Xi:              xis[i],
			VSSSetup:        &keyshare.VSSSetup{Ks: ks},
			Aux: &keyshare.AuxInfo{
				PaillierSK:  sks[i],
				PaillierPKs: pks,
				NCap:        nCaps,
				H1:          h1s,
				H2:          h2s,
				OurNCap:     nCaps[i],
				OurH1:       h1s[i],
				OurH2:       h2s[i],
			},
		}
	}
	return shares, ids
}

func TestDriverTwoPartySignProducesValidSignature(t *testing.T) {
	shares, ids := newTwoPartyShares(t)
	transports := newChanTransports(2)

	digest := sha256.Sum256([]byte("message to sign"))

	var wg sync.WaitGroup
	results := make([]*Signature, 2)
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			ctxParty := party.NewContext(party.UnsortedIDs(ids), i)
			params := party.NewParameters(curve.Secp256k1, ctxParty, ids[i], 2, 2)
			driver := NewDriver(params, shares[i], transports[i], digest[:])
			sig, err := driver.Run(ctx)
			results[i] = sig
			errs[i] = err
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])

	assert.Equal(t, 0, results[0].R.Cmp(results[1].R))
	assert.Equal(t, 0, results[0].S.Cmp(results[1].S))
	assert.Equal(t, results[0].V, results[1].V)

	pub := &ecdsa.PublicKey{Curve: btcec.S256(), X: shares[0].SharedPublicKey.X(), Y: shares[0].SharedPublicKey.Y()}
	assert.True(t, ecdsa.Verify(pub, digest[:], results[0].R, results[0].S))
}
