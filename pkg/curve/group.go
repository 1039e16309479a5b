package curve

import (
	"crypto/rand"
	"io"
	"math/big"
)

// Group covers a curve's order, generator, base-point multiplication and
// scalar sampling. It does not cover point addition, scalar
// multiplication of arbitrary points or serialization: those live on the
// secp256k1-backed *Point and the package-level ScalarBaseMult, which
// pkg/signing calls directly.
type Group interface {
	Order() *big.Int
	Generator() *Point
	ScalarBaseMult(k *big.Int) *Point
	RandomScalar(r io.Reader) (*big.Int, error)
}

type secp256k1Group struct{}

// Secp256k1 is the only Group implementation this module ships.
var Secp256k1 Group = secp256k1Group{}

func (secp256k1Group) Order() *big.Int { return Order() }

func (secp256k1Group) Generator() *Point {
	return ScalarBaseMult(big.NewInt(1))
}

func (secp256k1Group) ScalarBaseMult(k *big.Int) *Point {
	return ScalarBaseMult(k)
}

func (secp256k1Group) RandomScalar(r io.Reader) (*big.Int, error) {
	if r == nil {
		r = rand.Reader
	}
	n := Order()
	k, err := rand.Int(r, n)
	if err != nil {
		return nil, err
	}
	if k.Sign() == 0 {
		return secp256k1Group{}.RandomScalar(r)
	}
	return k, nil
}
