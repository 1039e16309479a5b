// Package prm implements CGGMP21's Pi^prm: a proof that s is in the
// group generated by t modulo the Pedersen parameters' N-hat. No other
// package in this module calls it.
package prm

import (
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/hash"
)

const Iterations = 64

type Proof struct {
	A [Iterations]*big.Int
	Z [Iterations]*big.Int
}

// NewProof proves knowledge of lambda such that s = t^lambda mod N, given
// N's Euler totient Phi (known only to the prover, who generated N).
func NewProof(s, t, n, phi, lambda *big.Int) (*Proof, error) {
	modN := bignum.Mod(n)
	modPhi := bignum.Mod(phi)

	a := make([]*big.Int, Iterations)
	var A [Iterations]*big.Int
	for i := range A {
		a[i] = bignum.RandomPositiveInt(phi)
		A[i] = modN.Exp(t, a[i])
	}

	e := hash.SHA3_256IntsToInt(append([]*big.Int{s, t, n}, A[:]...)...)

	var Z [Iterations]*big.Int
	for i := range Z {
		ei := big.NewInt(int64(e.Bit(i)))
		Z[i] = modPhi.Add(a[i], modPhi.Mul(ei, lambda))
	}
	return &Proof{A: A, Z: Z}, nil
}

func (pf *Proof) Verify(s, t, n *big.Int) bool {
	if pf == nil || !pf.ValidateBasic() {
		return false
	}
	modN := bignum.Mod(n)
	e := hash.SHA3_256IntsToInt(append([]*big.Int{s, t, n}, pf.A[:]...)...)
	for i := 0; i < Iterations; i++ {
		ei := big.NewInt(int64(e.Bit(i)))
		left := modN.Exp(t, pf.Z[i])
		right := modN.Mul(pf.A[i], modN.Exp(s, ei))
		if left.Cmp(right) != 0 {
			return false
		}
	}
	return true
}

func (pf *Proof) ValidateBasic() bool {
	if pf == nil {
		return false
	}
	for i := range pf.A {
		if pf.A[i] == nil || pf.Z[i] == nil {
			return false
		}
	}
	return true
}
