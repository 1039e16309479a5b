// Package enc implements CGGMP21's Pi^enc: a proof that a Paillier
// ciphertext encrypts a value inside a bounded range, used by S1 to back
// the K_i ciphertext before any MtA leg consumes it.
package enc

import (
	"fmt"
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/hash"
	"github.com/binance-chain/wallet-mpc-signer/pkg/paillier"
)

const PartCount = 6

type Proof struct {
	S, A, C, Z1, Z2, Z3 *big.Int
}

// NewProof proves that ciphertext K encrypts k under pk, with k bounded
// by the group order's cube, against a verifier's Pedersen parameters
// (NCap, s, t).
func NewProof(order *big.Int, pk *paillier.PublicKey, K, NCap, s, t, k, rho *big.Int) (*Proof, error) {
	if order == nil || pk == nil || K == nil || NCap == nil || s == nil || t == nil || k == nil || rho == nil {
		return nil, fmt.Errorf("enc: nil argument")
	}
	q := order
	q3 := new(big.Int).Mul(q, new(big.Int).Mul(q, q))
	qNCap := new(big.Int).Mul(q, NCap)
	q3NCap := new(big.Int).Mul(q3, NCap)

	alpha := bignum.RandomPositiveInt(q3)
	mu := bignum.RandomPositiveInt(qNCap)
	r := bignum.RandomRelativelyPrimeInt(pk.N)
	gamma := bignum.RandomPositiveInt(q3NCap)

	modNCap := bignum.Mod(NCap)
	S := modNCap.Mul(modNCap.Exp(s, k), modNCap.Exp(t, mu))

	modN2 := bignum.Mod(pk.NSquare())
	A := modN2.Mul(modN2.Exp(pk.Gamma(), alpha), modN2.Exp(r, pk.N))

	C := modNCap.Mul(modNCap.Exp(s, alpha), modNCap.Exp(t, gamma))

	e := challenge(q, pk, K, S, A, C)

	z1 := new(big.Int).Add(new(big.Int).Mul(e, k), alpha)
	modN := bignum.Mod(pk.N)
	z2 := modN.Mul(modN.Exp(rho, e), r)
	z3 := new(big.Int).Add(new(big.Int).Mul(e, mu), gamma)

	return &Proof{S: S, A: A, C: C, Z1: z1, Z2: z2, Z3: z3}, nil
}

func (pf *Proof) Verify(order *big.Int, pk *paillier.PublicKey, NCap, s, t, K *big.Int) bool {
	if pf == nil || !pf.ValidateBasic() || pk == nil || NCap == nil || s == nil || t == nil || K == nil {
		return false
	}
	q := order
	q3 := new(big.Int).Mul(q, new(big.Int).Mul(q, q))
	if pf.Z1.Cmp(q3) > 0 {
		return false
	}
	e := challenge(q, pk, K, pf.S, pf.A, pf.C)

	modN2 := bignum.Mod(pk.NSquare())
	left := modN2.Mul(modN2.Exp(pk.Gamma(), pf.Z1), modN2.Exp(pf.Z2, pk.N))
	right := modN2.Mul(pf.A, modN2.Exp(K, e))
	if left.Cmp(right) != 0 {
		return false
	}

	modNCap := bignum.Mod(NCap)
	left2 := modNCap.Mul(modNCap.Exp(s, pf.Z1), modNCap.Exp(t, pf.Z3))
	right2 := modNCap.Mul(pf.C, modNCap.Exp(pf.S, e))
	return left2.Cmp(right2) == 0
}

func (pf *Proof) ValidateBasic() bool {
	return pf != nil && pf.S != nil && pf.A != nil && pf.C != nil && pf.Z1 != nil && pf.Z2 != nil && pf.Z3 != nil
}

func challenge(q *big.Int, pk *paillier.PublicKey, in ...*big.Int) *big.Int {
	parts := append([]*big.Int{pk.N, pk.Gamma()}, in...)
	eHash := hash.SHA3_256IntsToInt(parts...)
	return hash.RejectionSample(q, eHash)
}
