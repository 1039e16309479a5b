package coordinator

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/gateway"
	"github.com/binance-chain/wallet-mpc-signer/pkg/keyshare"
	"github.com/binance-chain/wallet-mpc-signer/pkg/paillier"
	"github.com/binance-chain/wallet-mpc-signer/pkg/signing"
	"github.com/binance-chain/wallet-mpc-signer/pkg/wire"
)

const timeoutTestModulusBits = 512

// ackingPeerClient answers every RequestSign as if the peer accepted the
// session, without ever actually running a driver against it — modeling a
// peer that's reachable but then goes silent after S1.
type ackingPeerClient struct{}

func (ackingPeerClient) RequestSign(ctx context.Context, msg wire.SignMessage) (*wire.SignatureMessage, error) {
	return &wire.SignatureMessage{}, nil
}

// genTimeoutTestRingPedersen mirrors pkg/signing's genRingPedersen test
// helper: a real ring-Pedersen parameter set usable by the enc/affg/dec
// proofs S1-S3 and S6 construct.
func genTimeoutTestRingPedersen(t *testing.T) (nCap, h1, h2 *big.Int) {
	t.Helper()
	sk, _, err := paillier.GenerateKeyPair(context.Background(), timeoutTestModulusBits)
	require.NoError(t, err)
	lambda := bignum.RandomPositiveInt(sk.PhiN)
	r := bignum.RandomRelativelyPrimeInt(sk.N)
	h1 = new(big.Int).Exp(r, big.NewInt(2), sk.N)
	h2 = new(big.Int).Exp(h1, lambda, sk.N)
	return sk.N, h1, h2
}

// realTwoPartyStore builds a loadable one-account keyshare.Store backed by
// genuine Paillier keys (big enough to run real S1 crypto, unlike
// singleAccountStore's toy primes), for account "acct-1", index 0.
func realTwoPartyStore(t *testing.T) *keyshare.Store {
	t.Helper()

	xi, err := curve.Secp256k1.RandomScalar(nil)
	require.NoError(t, err)
	pub := curve.ScalarBaseMult(xi)
	peerXi, err := curve.Secp256k1.RandomScalar(nil)
	require.NoError(t, err)
	peerPub := curve.ScalarBaseMult(peerXi)

	selfSK, _, err := paillier.GenerateKeyPair(context.Background(), timeoutTestModulusBits)
	require.NoError(t, err)
	_, peerPK, err := paillier.GenerateKeyPair(context.Background(), timeoutTestModulusBits)
	require.NoError(t, err)

	nCap0, h10, h20 := genTimeoutTestRingPedersen(t)
	nCap1, h11, h21 := genTimeoutTestRingPedersen(t)

	doc := shareJSON{
		I:          0,
		Threshold:  2,
		PartyCount: 2,
		SharedPublicKey: pointJSON{
			X: hexOf(pub.X()),
			Y: hexOf(pub.Y()),
		},
		PublicShares: []pointJSON{
			{X: hexOf(pub.X()), Y: hexOf(pub.Y())},
			{X: hexOf(peerPub.X()), Y: hexOf(peerPub.Y())},
		},
		ChainCode: hex.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		Xi:        hexOf(xi),
		Ks:        []string{hexOf(big.NewInt(1)), hexOf(big.NewInt(2))},
		PaillierSK: paillierSKJSON{
			N:       hexOf(selfSK.N),
			LambdaN: hexOf(selfSK.LambdaN),
			PhiN:    hexOf(selfSK.PhiN),
		},
		PaillierPKs: []paillierPKJSON{
			{N: hexOf(selfSK.N)},
			{N: hexOf(peerPK.N)},
		},
		NCap:    []string{hexOf(nCap0), hexOf(nCap1)},
		H1:      []string{hexOf(h10), hexOf(h11)},
		H2:      []string{hexOf(h20), hexOf(h21)},
		OurNCap: hexOf(nCap0),
		OurH1:   hexOf(h10),
		OurH2:   hexOf(h20),
	}

	body, err := json.Marshal(map[string]shareJSON{"acct-1": doc})
	require.NoError(t, err)

	store, err := keyshare.Load(bytes.NewReader(body))
	require.NoError(t, err)
	return store
}

// TestSignTimesOutWhenPeerGoesSilentAfterS1 drives a genuine Coordinator.Sign
// call against a real local Room Bus and a real (but unsubscribed) peer bus:
// the local driver's S1 broadcast lands successfully, but nothing ever
// answers back, so the session must fail with signing.ErrTimeout once
// SessionTimeout elapses rather than hang forever.
func TestSignTimesOutWhenPeerGoesSilentAfterS1(t *testing.T) {
	store := realTwoPartyStore(t)

	localBus := gateway.NewBus(gateway.Config{})
	t.Cleanup(func() { _ = localBus.CloseAll() })

	peerBus := gateway.NewBus(gateway.Config{})
	peerServer := httptest.NewServer(gateway.NewServer(peerBus))
	t.Cleanup(peerServer.Close)
	t.Cleanup(func() { _ = peerBus.CloseAll() })

	cfg := Config{
		SelfIndex:      0,
		PeerIndex:      1,
		PeerBusAddr:    peerServer.URL,
		SessionTimeout: 2 * time.Second,
	}
	c := New(cfg, store, localBus, ackingPeerClient{})

	digest := make([]byte, 32)
	for i := range digest {
		digest[i] = byte(i + 1)
	}

	start := time.Now()
	_, err := c.Sign(context.Background(), c.NewTxID(), "acct-1", digest)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, signing.ErrTimeout)
	assert.Less(t, elapsed, 10*time.Second, "Sign must not hang past SessionTimeout")
}
