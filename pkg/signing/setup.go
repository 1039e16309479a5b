package signing

import (
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/commitments"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/vss"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/affg"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/enc"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/logstar"
)

// sessionState is the Protocol Driver's working memory: everything S1-S6
// read or write, discarded once the session ends. Analogous to the
// teacher's localTempData, minus the fields that belonged to rounds this
// module doesn't implement.
type sessionState struct {
	digest *big.Int // m, the message digest to sign

	// S0
	w     *big.Int       // effective (Lagrange-weighted) private share
	bigWs []*curve.Point // effective public shares, index-aligned with parties

	// S1
	kShare, gammaShare *big.Int
	k, g               *big.Int
	kNonce, gNonce     *big.Int

	// S1 commitment to Gamma_i = gamma_i*G, opened in S2
	gammaDecommit commitments.Decommitment

	// S2
	bigGammaShare *curve.Point
	deltaBetas    []*big.Int
	chiBetas      []*big.Int
	// kept for S6 identifiable abort, one entry per counterparty
	deltaMtAF, chiMtAF []*big.Int

	// inbound S1 commitments to each peer's Gamma_j, opened against r2BigGammaShare in S3
	r1GammaCommitment []commitments.Commitment
	r2GammaDecommit   []commitments.Decommitment

	// S3
	bigGamma      *curve.Point
	deltaShare    *big.Int
	chiShare      *big.Int
	bigDeltaShare *curve.Point

	// S4
	bigR       *curve.Point
	rx         *big.Int
	sigmaShare *big.Int

	// inbound per-round message slots, index-aligned with parties
	r1K, r1G []*big.Int
	r1Proof  []*enc.Proof

	r2BigGammaShare []*curve.Point
	r2DeltaD        []*big.Int
	r2DeltaF        []*big.Int
	r2DeltaProof    []*affg.Proof
	r2ChiD          []*big.Int
	r2ChiF          []*big.Int
	r2ChiProof      []*affg.Proof
	r2ProofLogstar  []*logstar.Proof

	r3DeltaShare    []*big.Int
	r3BigDeltaShare []*curve.Point
	r3ProofLogstar  []*logstar.Proof

	r4SigmaShare []*big.Int
}

// newSessionState allocates the slices above, sized to partyCount.
func newSessionState(digest *big.Int, partyCount int) *sessionState {
	return &sessionState{
		digest:            digest,
		bigWs:             make([]*curve.Point, partyCount),
		deltaBetas:        make([]*big.Int, partyCount),
		chiBetas:          make([]*big.Int, partyCount),
		deltaMtAF:         make([]*big.Int, partyCount),
		chiMtAF:           make([]*big.Int, partyCount),
		r1GammaCommitment: make([]commitments.Commitment, partyCount),
		r2GammaDecommit:   make([]commitments.Decommitment, partyCount),
		r1K:               make([]*big.Int, partyCount),
		r1G:               make([]*big.Int, partyCount),
		r1Proof:           make([]*enc.Proof, partyCount),
		r2BigGammaShare:   make([]*curve.Point, partyCount),
		r2DeltaD:          make([]*big.Int, partyCount),
		r2DeltaF:          make([]*big.Int, partyCount),
		r2DeltaProof:      make([]*affg.Proof, partyCount),
		r2ChiD:            make([]*big.Int, partyCount),
		r2ChiF:            make([]*big.Int, partyCount),
		r2ChiProof:        make([]*affg.Proof, partyCount),
		r2ProofLogstar:    make([]*logstar.Proof, partyCount),
		r3DeltaShare:      make([]*big.Int, partyCount),
		r3BigDeltaShare:   make([]*curve.Point, partyCount),
		r3ProofLogstar:    make([]*logstar.Proof, partyCount),
		r4SigmaShare:      make([]*big.Int, partyCount),
	}
}

// prepareForSigning computes the Lagrange-weighted effective share w_i and
// every party's effective public share BigW_j for the participating set,
// per CGGMP21's signing-key derivation (GG18 Fig. 14 origin).
func prepareForSigning(i int, xi *big.Int, ks []*big.Int, bigXs []*curve.Point) (w *big.Int, bigWs []*curve.Point) {
	idI := ks[i]
	w = vss.EffectiveShare(xi, idI, ks)

	bigWs = make([]*curve.Point, len(ks))
	for j := range ks {
		bigWs[j] = vss.EffectivePublicShare(bigXs[j], ks[j], ks)
	}
	return w, bigWs
}
