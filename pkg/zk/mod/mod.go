// Package mod implements CGGMP21's Pi^mod: a proof that N is the product
// of two primes (not a prime power, not even). No other package in this
// module calls it; session setup does not certify Paillier moduli with it.
package mod

import (
	"fmt"
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/hash"
)

const Iterations = 13

type Proof struct {
	W *big.Int
	X [Iterations]*big.Int
	A [Iterations]*big.Int
	B [Iterations]*big.Int
	Z [Iterations]*big.Int
}

func isQuadraticResidue(x, n *big.Int) bool {
	modN := bignum.Mod(n)
	return modN.Exp(x, new(big.Int).Rsh(n, 1)).Cmp(big.NewInt(1)) == 0
}

// NewProof constructs Pi^mod from the factorization (p, q) of n.
func NewProof(n, p, q *big.Int) (*Proof, error) {
	if n == nil || p == nil || q == nil {
		return nil, fmt.Errorf("mod: nil argument")
	}
	phi := new(big.Int).Mul(new(big.Int).Sub(p, big.NewInt(1)), new(big.Int).Sub(q, big.NewInt(1)))
	w := bignum.RandomQuadraticNonResidue(n)

	var y [Iterations]*big.Int
	for i := range y {
		ei := hash.SHA3_256IntsToInt(append([]*big.Int{w, n}, y[:i]...)...)
		y[i] = hash.RejectionSample(n, ei)
	}

	modN := bignum.Mod(n)
	modPhi := bignum.Mod(phi)
	nInv := new(big.Int).ModInverse(n, phi)

	var x, a, b, z [Iterations]*big.Int
	for i := range y {
		for j := 0; j < 4; j++ {
			ai, bi := j&1, (j&2)>>1
			yi := new(big.Int).Set(y[i])
			if ai > 0 {
				yi = modN.Mul(big.NewInt(-1), yi)
			}
			if bi > 0 {
				yi = modN.Mul(w, yi)
			}
			if isQuadraticResidue(yi, p) && isQuadraticResidue(yi, q) {
				e := new(big.Int).Rsh(new(big.Int).Add(phi, big.NewInt(4)), 3)
				e = modPhi.Mul(e, e)
				x[i] = modN.Exp(yi, e)
				a[i] = big.NewInt(int64(ai))
				b[i] = big.NewInt(int64(bi))
				z[i] = modN.Exp(y[i], nInv)
				break
			}
		}
	}
	return &Proof{W: w, X: x, A: a, B: b, Z: z}, nil
}

func (pf *Proof) Verify(n *big.Int) bool {
	if pf == nil || !pf.ValidateBasic() {
		return false
	}
	if n.Bit(0) == 0 || n.ProbablyPrime(16) {
		return false
	}
	modN := bignum.Mod(n)
	var y [Iterations]*big.Int
	for i := range y {
		ei := hash.SHA3_256IntsToInt(append([]*big.Int{pf.W, n}, y[:i]...)...)
		y[i] = hash.RejectionSample(n, ei)
	}
	for i := 0; i < Iterations; i++ {
		if modN.Exp(pf.Z[i], n).Cmp(y[i]) != 0 {
			return false
		}
		right := new(big.Int).Set(y[i])
		if pf.A[i].Sign() > 0 {
			right = modN.Mul(big.NewInt(-1), right)
		}
		if pf.B[i].Sign() > 0 {
			right = modN.Mul(pf.W, right)
		}
		if modN.Exp(pf.X[i], big.NewInt(4)).Cmp(right) != 0 {
			return false
		}
	}
	return true
}

func (pf *Proof) ValidateBasic() bool {
	if pf == nil || pf.W == nil {
		return false
	}
	for i := range pf.X {
		if pf.X[i] == nil || pf.A[i] == nil || pf.B[i] == nil || pf.Z[i] == nil {
			return false
		}
	}
	return true
}
