package signing

import (
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/internal/mpcerr"
	"github.com/binance-chain/wallet-mpc-signer/internal/party"
	"github.com/binance-chain/wallet-mpc-signer/internal/protoround"
	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/commitments"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/logstar"
)

// presign3Round is S3: verify every peer's S2 proofs and open its S1
// commitment to Gamma_i, decrypt the MtA cross-terms, and accumulate
// delta_i/chi_i/BigGamma/BigDelta_i.
type presign3Round struct {
	protoround.Base
	d *Driver
}

func newPresign3Round(d *Driver) *presign3Round {
	r := &presign3Round{d: d}
	r.Base = protoround.NewBase(d.params, taskName, 3)
	return r
}

// verifyGammaCommitment opens S1's hash commitment with S2's decommitment
// and checks it binds the coordinates of the Gamma_i that peer revealed.
func verifyGammaCommitment(c commitments.Commitment, dec commitments.Decommitment, bigGammaShare *curve.Point) bool {
	opened, ok := commitments.Verify(c, dec)
	if !ok || len(opened) != 2 {
		return false
	}
	return opened[0].Cmp(bigGammaShare.X()) == 0 && opened[1].Cmp(bigGammaShare.Y()) == 0
}

func (r *presign3Round) Start() *mpcerr.Error {
	r.Started = true
	d := r.d
	i := d.params.PartyID().Index
	r.OK[i] = true

	group := d.params.Group()
	order := group.Order()
	aux := d.share.Aux
	g := curve.ScalarBaseMult(big.NewInt(1))

	bigGamma := d.state.bigGammaShare
	var culprits []*party.ID
	for j, pid := range d.params.Parties().IDs {
		if j == i {
			continue
		}
		deltaOK := d.state.r2DeltaProof[j].Verify(order, &aux.PaillierSK.PublicKey, aux.PaillierPKs[j], aux.OurNCap, aux.OurH1, aux.OurH2, d.state.k, d.state.r2DeltaD[j], d.state.r2DeltaF[j], d.state.r2BigGammaShare[j])
		chiOK := d.state.r2ChiProof[j].Verify(order, &aux.PaillierSK.PublicKey, aux.PaillierPKs[j], aux.OurNCap, aux.OurH1, aux.OurH2, d.state.k, d.state.r2ChiD[j], d.state.r2ChiF[j], d.state.bigWs[j])
		logstarOK := d.state.r2ProofLogstar[j].Verify(order, aux.PaillierPKs[j], d.state.r1G[j], d.state.r2BigGammaShare[j], g, aux.OurNCap, aux.OurH1, aux.OurH2)
		commitOK := verifyGammaCommitment(d.state.r1GammaCommitment[j], d.state.r2GammaDecommit[j], d.state.r2BigGammaShare[j])
		if !deltaOK || !chiOK || !logstarOK || !commitOK {
			culprits = append(culprits, pid)
			continue
		}
		bigGamma = bigGamma.Add(d.state.r2BigGammaShare[j])
	}
	if len(culprits) > 0 {
		return r.WrapError(newProtocolViolation("round3: proof verify failed"), culprits...)
	}

	deltaShare := bignum.Mod(order).Mul(d.state.kShare, d.state.gammaShare)
	chiShare := bignum.Mod(order).Mul(d.state.kShare, d.state.w)

	for j := range d.params.Parties().IDs {
		if j == i {
			continue
		}
		alphaDelta, err := aux.PaillierSK.Decrypt(d.state.r2DeltaD[j])
		if err != nil {
			return r.WrapError(err)
		}
		alphaChi, err := aux.PaillierSK.Decrypt(d.state.r2ChiD[j])
		if err != nil {
			return r.WrapError(err)
		}
		alphaDelta = bignum.Center(alphaDelta, aux.PaillierSK.PublicKey.N)
		alphaChi = bignum.Center(alphaChi, aux.PaillierSK.PublicKey.N)

		deltaShare = bignum.Mod(order).Add(deltaShare, bignum.Mod(order).Add(alphaDelta, d.state.deltaBetas[j]))
		chiShare = bignum.Mod(order).Add(chiShare, bignum.Mod(order).Add(alphaChi, d.state.chiBetas[j]))
	}

	bigDeltaShare := bigGamma.ScalarMult(d.state.kShare)

	for j, pid := range d.params.Parties().IDs {
		if j == i {
			continue
		}
		proof, err := logstar.NewProof(order, &aux.PaillierSK.PublicKey, d.state.k, bigDeltaShare, bigGamma, aux.NCap[j], aux.H1[j], aux.H2[j], d.state.kShare, d.state.kNonce)
		if err != nil {
			return r.WrapError(err)
		}
		if err := d.sendTo(pid, 3, &preSign3Payload{DeltaShare: deltaShare, BigDeltaShare: bigDeltaShare, ProofLogstar: proof}); err != nil {
			return r.WrapError(err)
		}
	}

	d.state.bigGamma = bigGamma
	d.state.deltaShare = deltaShare
	d.state.chiShare = chiShare
	d.state.bigDeltaShare = bigDeltaShare
	return nil
}

func (r *presign3Round) Update(msg protoround.Msg) (bool, *mpcerr.Error) {
	m, ok := msg.(*inMsg)
	if !ok {
		return false, nil
	}
	p, ok := m.body.(*preSign3Payload)
	if !ok {
		return false, nil
	}
	j := m.sender.Index
	s := r.d.state
	s.r3DeltaShare[j] = p.DeltaShare
	s.r3BigDeltaShare[j] = p.BigDeltaShare
	s.r3ProofLogstar[j] = p.ProofLogstar
	r.OK[j] = true
	return true, nil
}

func (r *presign3Round) CanAccept(msg protoround.Msg) bool {
	m, ok := msg.(*inMsg)
	if !ok || m.round != 3 || m.IsBroadcast() {
		return false
	}
	_, ok = m.body.(*preSign3Payload)
	return ok
}

func (r *presign3Round) NextRound() protoround.Round {
	return newSign4Round(r.d)
}
