package signing

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/binance-chain/wallet-mpc-signer/internal/mpcerr"
	"github.com/binance-chain/wallet-mpc-signer/internal/party"
	"github.com/binance-chain/wallet-mpc-signer/internal/protoround"
	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
)

// sign4Round is S4: verify every peer's S3 proof, check the delta
// consistency equation, derive the combined nonce point R, and broadcast
// this party's partial signature sigma_i.
type sign4Round struct {
	protoround.Base
	d *Driver
}

func newSign4Round(d *Driver) *sign4Round {
	r := &sign4Round{d: d}
	r.Base = protoround.NewBase(d.params, taskName, 4)
	return r
}

func (r *sign4Round) Start() *mpcerr.Error {
	r.Started = true
	d := r.d
	i := d.params.PartyID().Index
	r.OK[i] = true

	group := d.params.Group()
	order := group.Order()
	aux := d.share.Aux

	delta := d.state.deltaShare
	bigDelta := d.state.bigDeltaShare

	var culprits []*party.ID
	for j, pid := range d.params.Parties().IDs {
		if j == i {
			continue
		}
		ok := d.state.r3ProofLogstar[j].Verify(order, aux.PaillierPKs[j], d.state.r1K[j], d.state.r3BigDeltaShare[j], d.state.bigGamma, aux.OurNCap, aux.OurH1, aux.OurH2)
		if !ok {
			culprits = append(culprits, pid)
			continue
		}
		delta = bignum.Mod(order).Add(delta, d.state.r3DeltaShare[j])
		bigDelta = bigDelta.Add(d.state.r3BigDeltaShare[j])
	}
	if len(culprits) > 0 {
		return r.WrapError(newProtocolViolation("round4: logstar proof verify failed"), culprits...)
	}

	if !curve.ScalarBaseMult(delta).Equal(bigDelta) {
		return r.WrapError(newProtocolViolation("round4: delta*G != BigDelta"))
	}

	deltaInverse := bignum.Mod(order).ModInverse(delta)
	bigR := d.state.bigGamma.ScalarMult(deltaInverse)
	if bigR.IsInfinity() {
		return r.WrapError(ErrDegenerateNonce)
	}
	rx := new(big.Int).Mod(bigR.X(), order)

	sigmaShare := bignum.Mod(order).Add(
		bignum.Mod(order).Mul(d.state.kShare, d.state.digest),
		bignum.Mod(order).Mul(rx, d.state.chiShare),
	)

	if err := d.broadcast(4, &sign4Payload{SigmaShare: sigmaShare}); err != nil {
		return r.WrapError(err)
	}

	d.state.bigR = bigR
	d.state.rx = rx
	d.state.sigmaShare = sigmaShare
	return nil
}

func (r *sign4Round) Update(msg protoround.Msg) (bool, *mpcerr.Error) {
	m, ok := msg.(*inMsg)
	if !ok {
		return false, nil
	}
	p, ok := m.body.(*sign4Payload)
	if !ok {
		return false, nil
	}
	j := m.sender.Index
	r.d.state.r4SigmaShare[j] = p.SigmaShare
	r.OK[j] = true
	return true, nil
}

func (r *sign4Round) CanAccept(msg protoround.Msg) bool {
	m, ok := msg.(*inMsg)
	if !ok || m.round != 4 || !m.IsBroadcast() {
		return false
	}
	_, ok = m.body.(*sign4Payload)
	return ok
}

// NextRound is nil: S4 is terminal for the happy path. Driver.finalize
// runs S5 combination/verification and falls back to S6 on failure.
func (r *sign4Round) NextRound() protoround.Round {
	return nil
}

// finalize is S5: combine every partial signature into (r, s), canonicalize
// to low-s, and verify against the account's shared public key. On
// verification failure it falls back to S6 identifiable abort.
func (d *Driver) finalize(ctx context.Context) (*Signature, error) {
	group := d.params.Group()
	order := group.Order()

	s := d.state.sigmaShare
	for j, v := range d.state.r4SigmaShare {
		if j == d.params.PartyID().Index || v == nil {
			continue
		}
		s = bignum.Mod(order).Add(s, v)
	}
	r := d.state.rx

	halfOrder := new(big.Int).Rsh(order, 1)
	recoveryParity := d.state.bigR.Y().Bit(0)
	if s.Cmp(halfOrder) > 0 {
		s = new(big.Int).Sub(order, s)
		recoveryParity ^= 1
	}

	pubKey := ecdsaPublicKey(d.share.SharedPublicKey)
	if !ecdsa.Verify(pubKey, d.state.digest.Bytes(), r, s) {
		return nil, d.runIdentify(ctx)
	}

	sig := &Signature{R: r, S: s, V: byte(recoveryParity)}
	return sig, nil
}

func ecdsaPublicKey(p *curve.Point) *ecdsa.PublicKey {
	return &ecdsa.PublicKey{Curve: btcec.S256(), X: p.X(), Y: p.Y()}
}
