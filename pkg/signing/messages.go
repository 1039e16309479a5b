package signing

import (
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/internal/party"
	"github.com/binance-chain/wallet-mpc-signer/pkg/commitments"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/affg"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/dec"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/enc"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/logstar"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/mul"
)

// inMsg is what the Engine routes: a decoded round payload plus the
// sender/receiver context the wire.Envelope carried it in.
type inMsg struct {
	sender   *party.ID
	receiver *party.ID
	round    int
	body     interface{}
}

func (m *inMsg) From() *party.ID   { return m.sender }
func (m *inMsg) IsBroadcast() bool { return m.receiver == nil }

// preSign1Payload is S1's output: the Paillier commitments to k_i/gamma_i,
// a Pi^enc proof that K_i is well-formed, and a hash commitment to the
// point Gamma_i = gamma_i*G this party will reveal in S2. The commitment
// fixes Gamma_i before any party has seen another's, so no one can bias
// R by choosing its own share after the fact. Sent point-to-point.
type preSign1Payload struct {
	K, G       *big.Int
	Proof      *enc.Proof
	Commitment commitments.Commitment
}

// preSign2Payload is S2's output: one MtA leg's ciphertexts for both delta
// and chi, the aff-g proofs backing them, a log* proof binding Gamma_i to
// the Paillier ciphertext G from S1, and the decommitment opening S1's
// hash commitment to Gamma_i.
type preSign2Payload struct {
	BigGammaShare  *curve.Point
	DeltaD, DeltaF *big.Int
	DeltaProof     *affg.Proof
	ChiD, ChiF     *big.Int
	ChiProof       *affg.Proof
	ProofLogstar   *logstar.Proof
	Decommitment   commitments.Decommitment
}

// preSign3Payload is S3's output: our accumulated delta share and the
// log* proof binding it to BigDeltaShare.
type preSign3Payload struct {
	DeltaShare    *big.Int
	BigDeltaShare *curve.Point
	ProofLogstar  *logstar.Proof
}

// sign4Payload is S4's output: our partial signature. Broadcast.
type sign4Payload struct {
	SigmaShare *big.Int
}

// identify6Payload is S6's accusation evidence: the homomorphic product
// proof and the opened delta-share ciphertext, addressed to every peer so
// they can independently check our accusation.
type identify6Payload struct {
	H             *big.Int
	ProofMul      *mul.Proof
	DeltaShareEnc *big.Int
	ProofDec      *dec.Proof
}
