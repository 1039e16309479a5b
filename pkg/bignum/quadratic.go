package bignum

import "math/big"

// RandomQuadraticNonResidue returns a random element of Z_N with Jacobi
// symbol -1, as Pi^mod's Fig 16.1 sampling step requires.
func RandomQuadraticNonResidue(n *big.Int) *big.Int {
	for {
		w := RandomPositiveInt(n)
		if w.Sign() == 0 {
			continue
		}
		if big.Jacobi(w, n) == -1 {
			return w
		}
	}
}
