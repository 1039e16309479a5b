// Package sch implements a Schnorr proof of knowledge of a discrete log.
// No signing round in this module calls it.
package sch

import (
	"fmt"
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/hash"
)

type Proof struct {
	A *curve.Point
	Z *big.Int
}

func NewProof(X *curve.Point, x *big.Int) (*Proof, error) {
	if x == nil || X == nil {
		return nil, fmt.Errorf("sch: nil argument")
	}
	q := curve.Order()
	g := curve.ScalarBaseMult(big.NewInt(1))

	alpha, err := curve.Secp256k1.RandomScalar(nil)
	if err != nil {
		return nil, err
	}
	A := curve.ScalarBaseMult(alpha)

	e := challenge(X, g, A)
	z := bignum.Mod(q).Add(alpha, new(big.Int).Mul(e, x))

	return &Proof{A: A, Z: z}, nil
}

func (pf *Proof) Verify(X *curve.Point) bool {
	if pf == nil || !pf.ValidateBasic() || X == nil {
		return false
	}
	g := curve.ScalarBaseMult(big.NewInt(1))
	e := challenge(X, g, pf.A)

	left := curve.ScalarBaseMult(pf.Z)
	right := pf.A.Add(X.ScalarMult(e))
	return left.Equal(right)
}

func (pf *Proof) ValidateBasic() bool {
	return pf != nil && pf.A != nil && pf.Z != nil
}

func challenge(X, g, A *curve.Point) *big.Int {
	eHash := hash.SHA3_256IntsToInt(X.X(), X.Y(), g.X(), g.Y(), A.X(), A.Y())
	return hash.RejectionSample(curve.Order(), eHash)
}
