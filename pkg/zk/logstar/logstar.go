// Package logstar implements CGGMP21's Pi^log*: a proof that a Paillier
// ciphertext and a curve point commit to the same bounded discrete log,
// used to bind S1/S2's encrypted k_i/gamma_i to the committed BigGamma/G.
package logstar

import (
	"fmt"
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/hash"
	"github.com/binance-chain/wallet-mpc-signer/pkg/paillier"
)

const PartCount = 8

type Proof struct {
	S, A         *big.Int
	Y            *curve.Point
	D, Z1, Z2, Z3 *big.Int
}

// NewProof proves that ciphertext C encrypts x, and X = g^x, for the
// same bounded x, against a verifier's Pedersen parameters.
func NewProof(order *big.Int, pk *paillier.PublicKey, C *big.Int, X, g *curve.Point, NCap, s, t, x, rho *big.Int) (*Proof, error) {
	if order == nil || pk == nil || C == nil || X == nil || g == nil || NCap == nil || s == nil || t == nil || x == nil || rho == nil {
		return nil, fmt.Errorf("logstar: nil argument")
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
	S := modNCap.Mul(modNCap.Exp(s, x), modNCap.Exp(t, mu))

	modN2 := bignum.Mod(pk.NSquare())
	A := modN2.Mul(modN2.Exp(pk.Gamma(), alpha), modN2.Exp(r, pk.N))

	Y := g.ScalarMult(alpha)

	D := modNCap.Mul(modNCap.Exp(s, alpha), modNCap.Exp(t, gamma))

	e := challenge(q, pk, S, Y, A, D)

	z1 := new(big.Int).Add(new(big.Int).Mul(e, x), alpha)
	modN := bignum.Mod(pk.N)
	z2 := modN.Mul(modN.Exp(rho, e), r)
	z3 := new(big.Int).Add(new(big.Int).Mul(e, mu), gamma)

	return &Proof{S: S, A: A, Y: Y, D: D, Z1: z1, Z2: z2, Z3: z3}, nil
}

func (pf *Proof) Verify(order *big.Int, pk *paillier.PublicKey, C *big.Int, X, g *curve.Point, NCap, s, t *big.Int) bool {
	if pf == nil || !pf.ValidateBasic() || pk == nil || C == nil || X == nil || NCap == nil || s == nil || t == nil {
		return false
	}
	q := order
	q3 := new(big.Int).Mul(q, new(big.Int).Mul(q, q))
	if pf.Z1.Cmp(q3) > 0 {
		return false
	}
	e := challenge(q, pk, pf.S, pf.Y, pf.A, pf.D)

	modN2 := bignum.Mod(pk.NSquare())
	left := modN2.Mul(modN2.Exp(pk.Gamma(), pf.Z1), modN2.Exp(pf.Z2, pk.N))
	right := modN2.Mul(modN2.Exp(C, e), pf.A)
	if left.Cmp(right) != 0 {
		return false
	}

	z1ModQ := new(big.Int).Mod(pf.Z1, q)
	lhs := g.ScalarMult(z1ModQ)
	rhs := X.ScalarMult(e).Add(pf.Y)
	if !lhs.Equal(rhs) {
		return false
	}

	modNCap := bignum.Mod(NCap)
	left2 := modNCap.Mul(modNCap.Exp(s, pf.Z1), modNCap.Exp(t, pf.Z3))
	right2 := modNCap.Mul(pf.D, modNCap.Exp(pf.S, e))
	return left2.Cmp(right2) == 0
}

func (pf *Proof) ValidateBasic() bool {
	return pf != nil && pf.S != nil && pf.A != nil && pf.Y != nil && pf.D != nil &&
		pf.Z1 != nil && pf.Z2 != nil && pf.Z3 != nil
}

func challenge(q *big.Int, pk *paillier.PublicKey, S *big.Int, Y *curve.Point, A, D *big.Int) *big.Int {
	parts := []*big.Int{pk.N, pk.Gamma(), S, Y.X(), Y.Y(), A, D}
	eHash := hash.SHA3_256IntsToInt(parts...)
	return hash.RejectionSample(q, eHash)
}
