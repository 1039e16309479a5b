package signing

import (
	"github.com/binance-chain/wallet-mpc-signer/internal/mpcerr"
	"github.com/binance-chain/wallet-mpc-signer/internal/protoround"
	"github.com/binance-chain/wallet-mpc-signer/pkg/commitments"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/enc"
)

// presign1Round is S1: every party samples k_i/gamma_i, Paillier-encrypts
// both, proves the K_i ciphertext well-formed to every other party, and
// hash-commits to the point Gamma_i = gamma_i*G it will reveal in S2.
type presign1Round struct {
	protoround.Base
	d *Driver
}

func newPresign1Round(d *Driver) *presign1Round {
	r := &presign1Round{d: d}
	r.Base = protoround.NewBase(d.params, taskName, 1)
	return r
}

func (r *presign1Round) Start() *mpcerr.Error {
	r.Started = true
	d := r.d
	i := d.params.PartyID().Index
	r.OK[i] = true

	group := d.params.Group()
	kShare, err := group.RandomScalar(d.params.Rand())
	if err != nil {
		return r.WrapError(err)
	}
	gammaShare, err := group.RandomScalar(d.params.Rand())
	if err != nil {
		return r.WrapError(err)
	}

	sk := d.share.Aux.PaillierSK
	K, kNonce, err := sk.EncryptFresh(kShare)
	if err != nil {
		return r.WrapError(err)
	}
	G, gNonce, err := sk.EncryptFresh(gammaShare)
	if err != nil {
		return r.WrapError(err)
	}

	bigGammaShare := curve.ScalarBaseMult(gammaShare)
	commitment, decommitment, err := commitments.Commit(bigGammaShare.X(), bigGammaShare.Y())
	if err != nil {
		return r.WrapError(err)
	}

	order := group.Order()
	for j, pid := range d.params.Parties().IDs {
		if j == i {
			continue
		}
		proof, err := enc.NewProof(order, &sk.PublicKey, K, d.share.Aux.NCap[j], d.share.Aux.H1[j], d.share.Aux.H2[j], kShare, kNonce)
		if err != nil {
			return r.WrapError(err)
		}
		payload := &preSign1Payload{K: K, G: G, Proof: proof, Commitment: commitment}
		if err := d.sendTo(pid, 1, payload); err != nil {
			return r.WrapError(err)
		}
	}

	d.state.kShare = kShare
	d.state.gammaShare = gammaShare
	d.state.k = K
	d.state.g = G
	d.state.kNonce = kNonce
	d.state.gNonce = gNonce
	d.state.bigGammaShare = bigGammaShare
	d.state.gammaDecommit = decommitment
	return nil
}

func (r *presign1Round) Update(msg protoround.Msg) (bool, *mpcerr.Error) {
	m, ok := msg.(*inMsg)
	if !ok {
		return false, nil
	}
	p, ok := m.body.(*preSign1Payload)
	if !ok {
		return false, nil
	}
	j := m.sender.Index
	r.d.state.r1K[j] = p.K
	r.d.state.r1G[j] = p.G
	r.d.state.r1Proof[j] = p.Proof
	r.d.state.r1GammaCommitment[j] = p.Commitment
	r.OK[j] = true
	return true, nil
}

func (r *presign1Round) CanAccept(msg protoround.Msg) bool {
	m, ok := msg.(*inMsg)
	if !ok || m.round != 1 || m.IsBroadcast() {
		return false
	}
	_, ok = m.body.(*preSign1Payload)
	return ok
}

func (r *presign1Round) NextRound() protoround.Round {
	return newPresign2Round(r.d)
}
