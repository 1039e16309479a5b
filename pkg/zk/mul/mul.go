// Package mul implements CGGMP21's Pi^mul: a proof that ciphertext C
// encrypts the homomorphic product of the plaintexts behind X and Y,
// used by S6 to justify H_i = G_i^{k_i} during identifiable abort.
package mul

import (
	"fmt"
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/hash"
	"github.com/binance-chain/wallet-mpc-signer/pkg/paillier"
)

const PartCount = 5

type Proof struct {
	A, B, Z, U, V *big.Int
}

func NewProof(order *big.Int, pk *paillier.PublicKey, X, Y, C, x, rhox *big.Int) (*Proof, error) {
	if pk == nil || X == nil || Y == nil || C == nil || rhox == nil {
		return nil, fmt.Errorf("mul: nil argument")
	}
	q := order
	alpha := bignum.RandomRelativelyPrimeInt(pk.N)
	r := bignum.RandomRelativelyPrimeInt(pk.N)
	s := bignum.RandomRelativelyPrimeInt(pk.N)

	modN2 := bignum.Mod(pk.NSquare())
	A := modN2.Mul(modN2.Exp(Y, alpha), modN2.Exp(r, pk.N))
	B := modN2.Mul(modN2.Exp(pk.Gamma(), alpha), modN2.Exp(s, pk.N))

	e := challenge(q, pk, X, Y, C, A, B)

	z := new(big.Int).Add(new(big.Int).Mul(e, x), alpha)
	modN := bignum.Mod(pk.N)
	v := modN.Mul(modN.Exp(rhox, e), s)

	return &Proof{A: A, B: B, Z: z, U: r, V: v}, nil
}

func (pf *Proof) Verify(order *big.Int, pk *paillier.PublicKey, X, Y, C *big.Int) bool {
	if pf == nil || !pf.ValidateBasic() || pk == nil || X == nil || Y == nil || C == nil {
		return false
	}
	q := order
	e := challenge(q, pk, X, Y, C, pf.A, pf.B)

	modN2 := bignum.Mod(pk.NSquare())
	left := modN2.Mul(modN2.Exp(Y, pf.Z), modN2.Exp(pf.U, pk.N))
	right := modN2.Mul(pf.A, modN2.Exp(C, e))
	if left.Cmp(right) != 0 {
		return false
	}

	left2 := modN2.Mul(modN2.Exp(pk.Gamma(), pf.Z), modN2.Exp(pf.V, pk.N))
	right2 := modN2.Mul(pf.B, modN2.Exp(X, e))
	return left2.Cmp(right2) == 0
}

func (pf *Proof) ValidateBasic() bool {
	return pf != nil && pf.A != nil && pf.B != nil && pf.Z != nil && pf.U != nil && pf.V != nil
}

func challenge(q *big.Int, pk *paillier.PublicKey, X, Y, C, A, B *big.Int) *big.Int {
	parts := []*big.Int{pk.N, pk.Gamma(), X, Y, C, A, B}
	eHash := hash.SHA3_256IntsToInt(parts...)
	return hash.RejectionSample(q, eHash)
}
