// Package paillier implements the additively homomorphic cryptosystem the
// MtA sub-protocol and the CGGMP21 ZK proofs (enc, aff-g, dec, mul) are
// built on.
package paillier

import (
	"fmt"
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
)

// MinModulusBits is the floor a loaded PublicKey must meet to pass
// Validate. GenerateKeyPair itself takes whatever bit length it's asked
// for, so tests can request small, fast keys; real key material is
// still rejected by Validate if it falls short of this floor.
const MinModulusBits = 3072

var (
	ErrMessageOutOfRange = fmt.Errorf("paillier: message out of range [0, N)")
	ErrCiphertextInvalid = fmt.Errorf("paillier: ciphertext out of range or malformed")

	one = big.NewInt(1)
)

type PublicKey struct {
	N *big.Int
}

type PrivateKey struct {
	PublicKey
	LambdaN *big.Int // lcm(p-1, q-1)
	PhiN    *big.Int // (p-1)(q-1)
}

func (pk *PublicKey) NSquare() *big.Int {
	return new(big.Int).Mul(pk.N, pk.N)
}

// Gamma returns N+1, the fixed generator this scheme uses.
func (pk *PublicKey) Gamma() *big.Int {
	return new(big.Int).Add(pk.N, one)
}

func (pk *PublicKey) Validate() error {
	if pk.N == nil || pk.N.BitLen() < MinModulusBits {
		return fmt.Errorf("paillier: modulus below the %d-bit floor", MinModulusBits)
	}
	return nil
}

// EncryptAndReturnRandomness encrypts m under the caller-supplied
// randomness x, which the caller keeps for the S1 commitments and the
// zk/enc proof; only the ciphertext is returned.
func (pk *PublicKey) EncryptAndReturnRandomness(m *big.Int, x *big.Int) (c *big.Int, err error) {
	if m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, ErrMessageOutOfRange
	}
	n2 := pk.NSquare()
	gm := new(big.Int).Exp(pk.Gamma(), m, n2)
	xn := new(big.Int).Exp(x, pk.N, n2)
	return bignum.Mod(n2).Mul(gm, xn), nil
}

func (pk *PublicKey) Encrypt(m *big.Int, randomness *big.Int) (*big.Int, error) {
	return pk.EncryptAndReturnRandomness(m, randomness)
}

// EncryptFresh draws its own randomness and encrypts m, returning both the
// ciphertext and the randomness used — the randomness is needed downstream
// by whichever zk proof vouches for the ciphertext.
func (pk *PublicKey) EncryptFresh(m *big.Int) (c, randomness *big.Int, err error) {
	randomness = bignum.RandomRelativelyPrimeInt(pk.N)
	c, err = pk.EncryptAndReturnRandomness(m, randomness)
	return c, randomness, err
}

// HomoAdd returns an encryption of the sum of the two plaintexts behind
// c1 and c2.
func (pk *PublicKey) HomoAdd(c1, c2 *big.Int) (*big.Int, error) {
	n2 := pk.NSquare()
	if !bignum.IsInInterval(c1, n2) || !bignum.IsInInterval(c2, n2) {
		return nil, ErrCiphertextInvalid
	}
	return bignum.Mod(n2).Mul(c1, c2), nil
}

// HomoMult returns an encryption of m times the plaintext behind c.
func (pk *PublicKey) HomoMult(m, c *big.Int) (*big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, ErrMessageOutOfRange
	}
	n2 := pk.NSquare()
	if !bignum.IsInInterval(c, n2) {
		return nil, ErrCiphertextInvalid
	}
	return bignum.Mod(n2).Exp(c, m), nil
}

func (sk *PrivateKey) Decrypt(c *big.Int) (*big.Int, error) {
	n2 := sk.NSquare()
	if !bignum.IsInInterval(c, n2) {
		return nil, ErrCiphertextInvalid
	}
	if g := new(big.Int).GCD(nil, nil, c, n2); g.Cmp(one) != 0 {
		return nil, ErrCiphertextInvalid
	}
	lc := paillierL(new(big.Int).Exp(c, sk.LambdaN, n2), sk.N)
	lg := paillierL(new(big.Int).Exp(sk.Gamma(), sk.LambdaN, n2), sk.N)
	inv := new(big.Int).ModInverse(lg, sk.N)
	return bignum.Mod(sk.N).Mul(lc, inv), nil
}

func paillierL(u, n *big.Int) *big.Int {
	t := new(big.Int).Sub(u, one)
	return new(big.Int).Div(t, n)
}

// Randomness recovers an r with c = Gamma^m * r^N mod N^2, for a
// ciphertext c this key holds the plaintext m for but whose randomness
// was never tracked — e.g. one assembled purely from homomorphic
// operations on other ciphertexts. Only the holder of phi(N) can do
// this; S6 identifiable abort uses it to produce the dec proof's rho.
func (sk *PrivateKey) Randomness(c, m *big.Int) (*big.Int, error) {
	n2 := sk.NSquare()
	gm := new(big.Int).Exp(sk.Gamma(), m, n2)
	gmInv := new(big.Int).ModInverse(gm, n2)
	if gmInv == nil {
		return nil, ErrCiphertextInvalid
	}
	rn := bignum.Mod(n2).Mul(c, gmInv)
	nInv := new(big.Int).ModInverse(sk.N, sk.PhiN)
	if nInv == nil {
		return nil, fmt.Errorf("paillier: N not invertible mod phi(N)")
	}
	r := new(big.Int).Exp(rn, nInv, n2)
	return new(big.Int).Mod(r, sk.N), nil
}
