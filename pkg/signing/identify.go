package signing

import (
	"context"
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/internal/party"
	"github.com/binance-chain/wallet-mpc-signer/pkg/wire"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/dec"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/mul"
)

// runIdentify is S6: a final signature that fails to verify still has to
// be explained. Every party reveals an encryption of its delta share
// alongside proofs tying it back to the ciphertexts already exchanged in
// S1/S2, so a bad delta share can be pinned on whoever sent it.
func (d *Driver) runIdentify(ctx context.Context) error {
	group := d.params.Group()
	order := group.Order()
	aux := d.share.Aux
	i := d.params.PartyID().Index
	parties := d.params.Parties().IDs

	H, err := aux.PaillierSK.PublicKey.HomoMult(d.state.kShare, d.state.g)
	if err != nil {
		return err
	}
	proofMul, err := mul.NewProof(order, &aux.PaillierSK.PublicKey, d.state.k, d.state.g, H, d.state.kShare, d.state.kNonce)
	if err != nil {
		return err
	}

	negOne := new(big.Int).Sub(aux.PaillierSK.PublicKey.N, big.NewInt(1))
	deltaShareEnc := H
	for j := range parties {
		if j == i {
			continue
		}
		deltaShareEnc, err = aux.PaillierSK.PublicKey.HomoAdd(deltaShareEnc, d.state.r2DeltaD[j])
		if err != nil {
			return err
		}
		negF, err := aux.PaillierSK.PublicKey.HomoMult(negOne, d.state.deltaMtAF[j])
		if err != nil {
			return err
		}
		deltaShareEnc, err = aux.PaillierSK.PublicKey.HomoAdd(deltaShareEnc, negF)
		if err != nil {
			return err
		}
	}

	deltaPlain, err := aux.PaillierSK.Decrypt(deltaShareEnc)
	if err != nil {
		return err
	}
	deltaRho, err := aux.PaillierSK.Randomness(deltaShareEnc, deltaPlain)
	if err != nil {
		return err
	}

	for j, pid := range parties {
		if j == i {
			continue
		}
		proofDec, err := dec.NewProof(order, &aux.PaillierSK.PublicKey, deltaShareEnc, d.state.deltaShare, aux.NCap[j], aux.H1[j], aux.H2[j], deltaPlain, deltaRho)
		if err != nil {
			return err
		}
		payload := &identify6Payload{
			H:             H,
			ProofMul:      proofMul,
			DeltaShareEnc: deltaShareEnc,
			ProofDec:      proofDec,
		}
		if err := d.sendTo(pid, 6, payload); err != nil {
			return err
		}
	}

	received := make(map[int]*identify6Payload, len(parties)-1)
	for len(received) < len(parties)-1 {
		select {
		case <-ctx.Done():
			return ErrTimeout
		default:
		}
		env, rerr := d.transport.Recv(ctx)
		if rerr != nil {
			if ctx.Err() != nil {
				return ErrTimeout
			}
			return rerr
		}
		if env.Round != 6 {
			continue
		}
		var p identify6Payload
		if err := wire.Unpack(env, &p); err != nil {
			return err
		}
		received[int(env.Sender)] = &p
	}

	var culprits []*party.ID
	for j, pid := range parties {
		if j == i {
			continue
		}
		p := received[j]
		if p == nil {
			culprits = append(culprits, pid)
			continue
		}
		mulOK := p.ProofMul.Verify(order, aux.PaillierPKs[j], d.state.r1K[j], d.state.r1G[j], p.H)
		decOK := p.ProofDec.Verify(order, aux.PaillierPKs[j], p.DeltaShareEnc, d.state.r3DeltaShare[j], aux.OurNCap, aux.OurH1, aux.OurH2)
		if !mulOK || !decOK {
			culprits = append(culprits, pid)
		}
	}

	if len(culprits) > 0 {
		return &CulpritError{Culprits: culprits}
	}
	return ErrUnknownCulprit
}
