package signing

import (
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/internal/mpcerr"
	"github.com/binance-chain/wallet-mpc-signer/internal/party"
	"github.com/binance-chain/wallet-mpc-signer/internal/protoround"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/logstar"
)

// presign2Round is S2: verify every peer's S1 proof, then run the two MtA
// legs (delta and chi) against each peer, reveal Gamma_i alongside the
// decommitment opening S1's hash commitment to it, and prove Gamma_i
// matches the Paillier ciphertext G from S1.
type presign2Round struct {
	protoround.Base
	d *Driver
}

func newPresign2Round(d *Driver) *presign2Round {
	r := &presign2Round{d: d}
	r.Base = protoround.NewBase(d.params, taskName, 2)
	return r
}

func (r *presign2Round) Start() *mpcerr.Error {
	r.Started = true
	d := r.d
	i := d.params.PartyID().Index
	r.OK[i] = true

	group := d.params.Group()
	order := group.Order()
	aux := d.share.Aux

	var culprits []*party.ID
	for j, pid := range d.params.Parties().IDs {
		if j == i {
			continue
		}
		ok := d.state.r1Proof[j].Verify(order, aux.PaillierPKs[j], aux.OurNCap, aux.OurH1, aux.OurH2, d.state.r1K[j])
		if !ok {
			culprits = append(culprits, pid)
		}
	}
	if len(culprits) > 0 {
		return r.WrapError(newProtocolViolation("round2: enc proof verify failed"), culprits...)
	}

	bigGammaShare := d.state.bigGammaShare
	g := curve.ScalarBaseMult(big.NewInt(1))

	for j, pid := range d.params.Parties().IDs {
		if j == i {
			continue
		}
		Kj := d.state.r1K[j]

		deltaMtA, err := runMtA(order, Kj, d.state.gammaShare, bigGammaShare, aux.PaillierPKs[j], &aux.PaillierSK.PublicKey, aux.NCap[j], aux.H1[j], aux.H2[j])
		if err != nil {
			return r.WrapError(err)
		}
		chiMtA, err := runMtA(order, Kj, d.state.w, d.state.bigWs[i], aux.PaillierPKs[j], &aux.PaillierSK.PublicKey, aux.NCap[j], aux.H1[j], aux.H2[j])
		if err != nil {
			return r.WrapError(err)
		}
		proofLogstar, err := logstar.NewProof(order, &aux.PaillierSK.PublicKey, d.state.g, bigGammaShare, g, aux.NCap[j], aux.H1[j], aux.H2[j], d.state.gammaShare, d.state.gNonce)
		if err != nil {
			return r.WrapError(err)
		}

		payload := &preSign2Payload{
			BigGammaShare: bigGammaShare,
			DeltaD:        deltaMtA.Dji,
			DeltaF:        deltaMtA.Fji,
			DeltaProof:    deltaMtA.Proof,
			ChiD:          chiMtA.Dji,
			ChiF:          chiMtA.Fji,
			ChiProof:      chiMtA.Proof,
			ProofLogstar:  proofLogstar,
			Decommitment:  d.state.gammaDecommit,
		}
		if err := d.sendTo(pid, 2, payload); err != nil {
			return r.WrapError(err)
		}

		d.state.deltaBetas[j] = deltaMtA.Beta
		d.state.chiBetas[j] = chiMtA.Beta
		d.state.deltaMtAF[j] = deltaMtA.Fji
		d.state.chiMtAF[j] = chiMtA.Fji
	}

	return nil
}

func (r *presign2Round) Update(msg protoround.Msg) (bool, *mpcerr.Error) {
	m, ok := msg.(*inMsg)
	if !ok {
		return false, nil
	}
	p, ok := m.body.(*preSign2Payload)
	if !ok {
		return false, nil
	}
	j := m.sender.Index
	s := r.d.state
	s.r2BigGammaShare[j] = p.BigGammaShare
	s.r2DeltaD[j] = p.DeltaD
	s.r2DeltaF[j] = p.DeltaF
	s.r2DeltaProof[j] = p.DeltaProof
	s.r2ChiD[j] = p.ChiD
	s.r2ChiF[j] = p.ChiF
	s.r2ChiProof[j] = p.ChiProof
	s.r2ProofLogstar[j] = p.ProofLogstar
	s.r2GammaDecommit[j] = p.Decommitment
	r.OK[j] = true
	return true, nil
}

func (r *presign2Round) CanAccept(msg protoround.Msg) bool {
	m, ok := msg.(*inMsg)
	if !ok || m.round != 2 || m.IsBroadcast() {
		return false
	}
	_, ok = m.body.(*preSign2Payload)
	return ok
}

func (r *presign2Round) NextRound() protoround.Round {
	return newPresign3Round(r.d)
}
