// Package affg implements CGGMP21's Pi^aff-g: a proof that ciphertext D
// equals x (*) C + y encrypted under pk0, with Y the same y encrypted
// under pk1 and X = g^x, used by S2/S3's MtA legs to bind D_ji/F_ji to
// Gamma_i and to the prover's own effective public share.
package affg

import (
	"fmt"
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/hash"
	"github.com/binance-chain/wallet-mpc-signer/pkg/paillier"
)

const PartCount = 14

type Proof struct {
	S, T, A       *big.Int
	Bx            *curve.Point
	By, E, F      *big.Int
	Z1, Z2, Z3, Z4, W, Wy *big.Int
}

func NewProof(order *big.Int, pk0, pk1 *paillier.PublicKey, NCap, s, t, C, D, Y *big.Int, X *curve.Point, x, y, rho, rhoy *big.Int) (*Proof, error) {
	if order == nil || pk0 == nil || pk1 == nil || NCap == nil || s == nil || t == nil ||
		C == nil || D == nil || Y == nil || X == nil || x == nil || y == nil || rho == nil || rhoy == nil {
		return nil, fmt.Errorf("affg: nil argument")
	}
	n2 := pk0.NSquare()
	q := order
	q3 := new(big.Int).Mul(q, new(big.Int).Mul(q, q))
	q6 := new(big.Int).Mul(q3, q3)
	qNCap := new(big.Int).Mul(q, NCap)
	q3NCap := new(big.Int).Mul(q3, NCap)

	alpha := bignum.RandomPositiveInt(q3)
	beta := bignum.RandomRelativelyPrimeInt(q6)
	r := bignum.RandomRelativelyPrimeInt(pk0.N)
	ry := bignum.RandomRelativelyPrimeInt(pk1.N)
	gamma := bignum.RandomPositiveInt(q3NCap)
	m := bignum.RandomPositiveInt(qNCap)
	delta := bignum.RandomPositiveInt(q3NCap)
	mu := bignum.RandomPositiveInt(qNCap)

	modN2 := bignum.Mod(n2)
	A := modN2.Mul(modN2.Mul(modN2.Exp(C, alpha), modN2.Exp(pk0.Gamma(), beta)), modN2.Exp(r, pk0.N))

	alphaModQ := new(big.Int).Mod(alpha, q)
	Bx := curve.ScalarBaseMult(alphaModQ)

	modN1Sq := bignum.Mod(pk1.NSquare())
	By := modN1Sq.Mul(modN1Sq.Exp(pk1.Gamma(), beta), modN1Sq.Exp(ry, pk1.N))

	modNCap := bignum.Mod(NCap)
	E := modNCap.Mul(modNCap.Exp(s, alpha), modNCap.Exp(t, gamma))
	S := modNCap.Mul(modNCap.Exp(s, x), modNCap.Exp(t, m))
	F := modNCap.Mul(modNCap.Exp(s, beta), modNCap.Exp(t, delta))
	T := modNCap.Mul(modNCap.Exp(s, y), modNCap.Exp(t, mu))

	e := challenge(q, pk0, pk1, Y, X, C, D, Bx, By, S, T, A, E, F)

	z1 := new(big.Int).Add(new(big.Int).Mul(e, x), alpha)
	z2 := new(big.Int).Add(new(big.Int).Mul(e, y), beta)
	z3 := new(big.Int).Add(new(big.Int).Mul(e, m), gamma)
	z4 := new(big.Int).Add(new(big.Int).Mul(e, mu), delta)

	modN0 := bignum.Mod(pk0.N)
	w := modN0.Mul(modN0.Exp(rho, e), r)
	modN1 := bignum.Mod(pk1.N)
	wy := modN1.Mul(modN1.Exp(rhoy, e), ry)

	return &Proof{S: S, T: T, A: A, Bx: Bx, By: By, E: E, F: F, Z1: z1, Z2: z2, Z3: z3, Z4: z4, W: w, Wy: wy}, nil
}

func (pf *Proof) Verify(order *big.Int, pk0, pk1 *paillier.PublicKey, NCap, s, t, C, D, Y *big.Int, X *curve.Point) bool {
	if pf == nil || !pf.ValidateBasic() || pk0 == nil || pk1 == nil || NCap == nil || s == nil || t == nil ||
		C == nil || D == nil || Y == nil || X == nil {
		return false
	}
	q := order
	q3 := new(big.Int).Mul(q, new(big.Int).Mul(q, q))
	q6 := new(big.Int).Mul(q3, q3)
	if pf.Z1.Cmp(q3) > 0 || pf.Z2.Cmp(q6) > 0 {
		return false
	}
	e := challenge(q, pk0, pk1, Y, X, C, D, pf.Bx, pf.By, pf.S, pf.T, pf.A, pf.E, pf.F)

	modN2 := bignum.Mod(pk0.NSquare())
	left := modN2.Mul(modN2.Mul(modN2.Exp(C, pf.Z1), modN2.Exp(pf.W, pk0.N)), modN2.Exp(pk0.Gamma(), pf.Z2))
	right := modN2.Mul(modN2.Exp(D, e), pf.A)
	if left.Cmp(right) != 0 {
		return false
	}

	z1ModQ := new(big.Int).Mod(pf.Z1, q)
	lhs := curve.ScalarBaseMult(z1ModQ)
	rhs := X.ScalarMult(e).Add(pf.Bx)
	if !lhs.Equal(rhs) {
		return false
	}

	modN1Sq := bignum.Mod(pk1.NSquare())
	left2 := modN1Sq.Mul(modN1Sq.Exp(pk1.Gamma(), pf.Z2), modN1Sq.Exp(pf.Wy, pk1.N))
	right2 := modN1Sq.Mul(modN1Sq.Exp(Y, e), pf.By)
	if left2.Cmp(right2) != 0 {
		return false
	}

	modNCap := bignum.Mod(NCap)
	left3 := modNCap.Mul(modNCap.Exp(s, pf.Z1), modNCap.Exp(t, pf.Z3))
	right3 := modNCap.Mul(modNCap.Exp(pf.S, e), pf.E)
	if left3.Cmp(right3) != 0 {
		return false
	}
	left4 := modNCap.Mul(modNCap.Exp(s, pf.Z2), modNCap.Exp(t, pf.Z4))
	right4 := modNCap.Mul(modNCap.Exp(pf.T, e), pf.F)
	return left4.Cmp(right4) == 0
}

func (pf *Proof) ValidateBasic() bool {
	return pf != nil && pf.S != nil && pf.T != nil && pf.A != nil && pf.Bx != nil && pf.By != nil &&
		pf.E != nil && pf.F != nil && pf.Z1 != nil && pf.Z2 != nil && pf.Z3 != nil && pf.Z4 != nil &&
		pf.W != nil && pf.Wy != nil
}

func challenge(q *big.Int, pk0, pk1 *paillier.PublicKey, Y *big.Int, X *curve.Point, C, D *big.Int, Bx *curve.Point, By, S, T, A, E, F *big.Int) *big.Int {
	parts := []*big.Int{pk0.N, pk1.N, Y, X.X(), X.Y(), C, D, Bx.X(), Bx.Y(), By, S, T, A, E, F}
	eHash := hash.SHA3_256IntsToInt(parts...)
	return hash.RejectionSample(q, eHash)
}
