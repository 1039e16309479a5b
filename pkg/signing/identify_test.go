package signing

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/binance-chain/wallet-mpc-signer/internal/party"
	"github.com/binance-chain/wallet-mpc-signer/internal/protoround"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/wire"
)

// corruptingTransport wraps a Transport and tampers with every outbound
// round-6 identify payload, simulating a party that sends doctored
// identifiable-abort evidence about itself.
type corruptingTransport struct {
	Transport
	corrupt func(p *identify6Payload)
}

func (t *corruptingTransport) Send(ctx context.Context, env wire.Envelope) error {
	if env.Round == 6 {
		var p identify6Payload
		if err := wire.Unpack(env, &p); err == nil {
			t.corrupt(&p)
			if packed, perr := wire.Pack(env.Sender, env.Receiver, env.Round, &p); perr == nil {
				env = packed
			}
		}
	}
	return t.Transport.Send(ctx, env)
}

// runThroughS4 drives a Driver through S1-S4 (everything protoround's
// Engine chains together) without running Driver.Run's finalize/scrub, so
// the test can call runIdentify directly against live, unscrubbed state.
func runThroughS4(t *testing.T, ctx context.Context, d *Driver) {
	t.Helper()
	d.ctx = ctx
	i := d.params.PartyID().Index
	w, bigWs := prepareForSigning(i, d.share.Xi, d.share.VSSSetup.Ks, d.share.PublicShares)
	d.state.w = w
	d.state.bigWs = bigWs

	first := newPresign1Round(d)
	engine := protoround.NewEngine(first)
	require.NoError(t, engine.Start())

	for {
		env, rerr := d.transport.Recv(ctx)
		require.NoError(t, rerr)
		msg, derr := d.decode(env)
		require.NoError(t, derr)
		finished, uerr := engine.Update(msg)
		require.NoError(t, uerr)
		if finished {
			return
		}
	}
}

// TestRunIdentifyPinsCulpritOnTamperedDecryptionProof drives two parties
// through a normal presign/sign (S1-S4), then tampers with the delta-share
// ciphertext party 1 sends in its S6 evidence — a field the earlier rounds
// never independently prove — and checks party 0's runIdentify call names
// party 1 as the culprit.
func TestRunIdentifyPinsCulpritOnTamperedDecryptionProof(t *testing.T) {
	shares, ids := newTwoPartyShares(t)
	transports := newChanTransports(2)

	digest := make([]byte, 32)
	for i := range digest {
		digest[i] = byte(i)
	}

	drivers := make([]*Driver, 2)
	for i := 0; i < 2; i++ {
		ctxParty := party.NewContext(party.UnsortedIDs(ids), i)
		params := party.NewParameters(curve.Secp256k1, ctxParty, ids[i], 2, 2)
		var tr Transport = transports[i]
		if i == 1 {
			tr = &corruptingTransport{
				Transport: transports[i],
				corrupt: func(p *identify6Payload) {
					p.DeltaShareEnc = new(big.Int).Add(p.DeltaShareEnc, big.NewInt(1))
				},
			}
		}
		drivers[i] = NewDriver(params, shares[i], tr, digest)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			runThroughS4(t, ctx, drivers[i])
		}(i)
	}
	wg.Wait()

	var party0Err, party1Err error
	var wg2 sync.WaitGroup
	wg2.Add(2)
	go func() {
		defer wg2.Done()
		party0Err = drivers[0].runIdentify(ctx)
	}()
	go func() {
		defer wg2.Done()
		party1Err = drivers[1].runIdentify(ctx)
	}()
	wg2.Wait()

	culpritErr, ok := party0Err.(*CulpritError)
	require.True(t, ok, "expected party 0 to return *CulpritError, got %v", party0Err)
	require.Len(t, culpritErr.Culprits, 1)
	require.Equal(t, ids[1].Index, culpritErr.Culprits[0].Index)

	// Party 1 received an untampered round-6 message from party 0, so its
	// own identify run finds no culprit.
	require.ErrorIs(t, party1Err, ErrUnknownCulprit)
}
