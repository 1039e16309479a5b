// Package vss provides the Lagrange-coefficient reconstruction math that
// Feldman VSS shares are verified against. Share generation (distributed
// key generation) is out of scope here; only the coefficient arithmetic
// S0 needs to compute each party's effective share survives.
package vss

import (
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
)

// LagrangeCoefficient returns the Lagrange basis coefficient for the
// party at x-coordinate `id`, evaluated over the full set of participant
// x-coordinates `xs`, at x=0 — i.e. the weight that turns a raw Shamir
// share into its contribution toward the shared secret.
func LagrangeCoefficient(id *big.Int, xs []*big.Int) *big.Int {
	modN := bignum.Mod(curve.Order())
	times := big.NewInt(1)
	for _, xj := range xs {
		if xj.Cmp(id) == 0 {
			continue
		}
		sub := modN.Sub(xj, id)
		subInv := modN.ModInverse(sub)
		div := modN.Mul(xj, subInv)
		times = modN.Mul(times, div)
	}
	return times
}

// EffectiveShare returns lambda_i * x_i, the weighted private share a
// party actually signs with once the Lagrange coefficient for the
// participating set is folded in.
func EffectiveShare(xi *big.Int, id *big.Int, xs []*big.Int) *big.Int {
	lambda := LagrangeCoefficient(id, xs)
	return bignum.Mod(curve.Order()).Mul(lambda, xi)
}

// EffectivePublicShare returns lambda_i * X_i, the public-key-side
// analogue of EffectiveShare, used as the public share that the chi-leg
// aff-g proofs bind to.
func EffectivePublicShare(xi *curve.Point, id *big.Int, xs []*big.Int) *curve.Point {
	lambda := LagrangeCoefficient(id, xs)
	return xi.ScalarMult(lambda)
}
