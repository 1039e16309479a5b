// Package curve is the curve-capability boundary the rest of this module
// is written against, so a future curve beyond secp256k1 only needs a new
// implementation of Point/Scalar here, per the capability-interface design
// note this module follows.
package curve

import (
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Point is a point on the group's curve, in affine form, immutable once
// constructed. The zero value is not valid; use Infinity() for O.
type Point struct {
	x, y   *big.Int
	infty  bool
}

// Infinity returns the group's point at infinity.
func Infinity() *Point {
	return &Point{infty: true}
}

// NewPoint constructs a Point and checks that (x, y) lies on the curve.
func NewPoint(x, y *big.Int) (*Point, error) {
	if x == nil || y == nil {
		return nil, fmt.Errorf("curve: nil coordinate")
	}
	if !secp256k1.S256().IsOnCurve(x, y) {
		return nil, fmt.Errorf("curve: point (%s, %s) is not on secp256k1", x, y)
	}
	return &Point{x: new(big.Int).Set(x), y: new(big.Int).Set(y)}, nil
}

// NewPointNoCheck skips the on-curve check. Only use this when the point
// is already known to be valid, e.g. it was just computed by this package.
func NewPointNoCheck(x, y *big.Int) *Point {
	return &Point{x: new(big.Int).Set(x), y: new(big.Int).Set(y)}
}

func (p *Point) X() *big.Int {
	if p.infty {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.x)
}

func (p *Point) Y() *big.Int {
	if p.infty {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.y)
}

func (p *Point) IsInfinity() bool {
	return p == nil || p.infty
}

func (p *Point) Equal(b *Point) bool {
	if p.IsInfinity() || b.IsInfinity() {
		return p.IsInfinity() && b.IsInfinity()
	}
	return p.x.Cmp(b.x) == 0 && p.y.Cmp(b.y) == 0
}

func (p *Point) jacobian() *secp256k1.JacobianPoint {
	if p.IsInfinity() {
		var j secp256k1.JacobianPoint
		j.Z.SetInt(0)
		return &j
	}
	var j secp256k1.JacobianPoint
	j.X.SetByteSlice(p.x.Bytes())
	j.Y.SetByteSlice(p.y.Bytes())
	j.Z.SetInt(1)
	return &j
}

func fromJacobian(j *secp256k1.JacobianPoint) *Point {
	j.ToAffine()
	if j.Z.IsZero() {
		return Infinity()
	}
	return NewPointNoCheck(
		new(big.Int).SetBytes(j.X.Bytes()[:]),
		new(big.Int).SetBytes(j.Y.Bytes()[:]),
	)
}

// Add returns p+b on the curve.
func (p *Point) Add(b *Point) *Point {
	if p.IsInfinity() {
		return b
	}
	if b.IsInfinity() {
		return p
	}
	var result secp256k1.JacobianPoint
	secp256k1.AddNonConst(p.jacobian(), b.jacobian(), &result)
	return fromJacobian(&result)
}

// Neg returns -p.
func (p *Point) Neg() *Point {
	if p.IsInfinity() {
		return p
	}
	negY := new(big.Int).Sub(secp256k1.S256().Params().P, p.y)
	return NewPointNoCheck(p.X(), negY)
}

// Sub returns p-b.
func (p *Point) Sub(b *Point) *Point {
	return p.Add(b.Neg())
}

// ScalarMult returns k*p.
func (p *Point) ScalarMult(k *big.Int) *Point {
	if p.IsInfinity() || k.Sign() == 0 {
		return Infinity()
	}
	var scalar secp256k1.ModNScalar
	scalar.SetByteSlice(k.Bytes())
	var result secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&scalar, p.jacobian(), &result)
	return fromJacobian(&result)
}

// ScalarBaseMult returns k*G.
func ScalarBaseMult(k *big.Int) *Point {
	var scalar secp256k1.ModNScalar
	scalar.SetByteSlice(k.Bytes())
	var result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&scalar, &result)
	return fromJacobian(&result)
}

// Order returns the order of the secp256k1 base point (the scalar field
// modulus).
func Order() *big.Int {
	n := secp256k1.S256().N
	return new(big.Int).Set(n)
}

func (p *Point) String() string {
	if p.IsInfinity() {
		return "O"
	}
	return fmt.Sprintf("(%s, %s)", p.x, p.y)
}
