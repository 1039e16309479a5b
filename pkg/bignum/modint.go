// Package bignum carries the modular-arithmetic helpers shared across the
// Protocol Driver's rounds and the Paillier/ZK proof packages.
package bignum

import "math/big"

var zero = big.NewInt(0)

// ModInt is a *big.Int that performs all of its arithmetic modulo itself.
type ModInt big.Int

func Mod(mod *big.Int) *ModInt {
	return (*ModInt)(mod)
}

func (m *ModInt) i() *big.Int { return (*big.Int)(m) }

func (m *ModInt) Add(x, y *big.Int) *big.Int {
	r := new(big.Int).Add(x, y)
	return r.Mod(r, m.i())
}

func (m *ModInt) Sub(x, y *big.Int) *big.Int {
	r := new(big.Int).Sub(x, y)
	return r.Mod(r, m.i())
}

func (m *ModInt) Mul(x, y *big.Int) *big.Int {
	r := new(big.Int).Mul(x, y)
	return r.Mod(r, m.i())
}

func (m *ModInt) Div(x, y *big.Int) *big.Int {
	r := new(big.Int).Div(x, y)
	return r.Mod(r, m.i())
}

func (m *ModInt) Exp(x, y *big.Int) *big.Int {
	return new(big.Int).Exp(x, y, m.i())
}

func (m *ModInt) ModInverse(x *big.Int) *big.Int {
	return new(big.Int).ModInverse(x, m.i())
}

// IsInInterval reports whether 0 <= b < bound.
func IsInInterval(b, bound *big.Int) bool {
	return b.Sign() >= 0 && b.Cmp(bound) < 0
}

// AppendBytes concatenates dst with n's big-endian bytes, for use inside
// hash/commitment preimages.
func AppendBytes(dst []byte, n *big.Int) []byte {
	out := make([]byte, len(dst), len(dst)+len(n.Bytes()))
	copy(out, dst)
	return append(out, n.Bytes()...)
}

// Center reduces v mod n into its signed representative in (-n/2, n/2],
// the range a Paillier-decrypted MtA alpha needs to be interpreted in
// before it can be added to a value mod the curve order.
func Center(v, n *big.Int) *big.Int {
	r := new(big.Int).Mod(v, n)
	half := new(big.Int).Rsh(n, 1)
	if r.Cmp(half) > 0 {
		r.Sub(r, n)
	}
	return r
}
