// Package dec implements CGGMP21's Pi^dec: a proof that Paillier
// ciphertext C decrypts to a claimed plaintext x (mod q), used by S6 to
// open an accused party's accumulated delta ciphertext during
// identifiable abort.
package dec

import (
	"fmt"
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/hash"
	"github.com/binance-chain/wallet-mpc-signer/pkg/paillier"
)

const PartCount = 7

type Proof struct {
	S, T, A, Gamma, Z1, Z2, W *big.Int
}

func NewProof(order *big.Int, pk *paillier.PublicKey, C, x, NCap, s, t, y, rho *big.Int) (*Proof, error) {
	if order == nil || pk == nil || C == nil || x == nil || NCap == nil || s == nil || t == nil || y == nil || rho == nil {
		return nil, fmt.Errorf("dec: nil argument")
	}
	q := order
	q3 := new(big.Int).Mul(q, new(big.Int).Mul(q, q))
	qNCap := new(big.Int).Mul(q, NCap)
	q3NCap := new(big.Int).Mul(q3, NCap)

	alpha := bignum.RandomPositiveInt(q3)
	mu := bignum.RandomPositiveInt(qNCap)
	v := bignum.RandomPositiveInt(q3NCap)
	r := bignum.RandomRelativelyPrimeInt(pk.N)

	modNCap := bignum.Mod(NCap)
	S := modNCap.Mul(modNCap.Exp(s, y), modNCap.Exp(t, mu))
	T := modNCap.Mul(modNCap.Exp(s, alpha), modNCap.Exp(t, v))

	modN2 := bignum.Mod(pk.NSquare())
	A := modN2.Mul(modN2.Exp(pk.Gamma(), alpha), modN2.Exp(r, pk.N))

	gamma := new(big.Int).Mod(alpha, q)

	e := challenge(q, pk, C, x, NCap, s, t, A, gamma)

	z1 := new(big.Int).Add(alpha, new(big.Int).Mul(e, y))
	z2 := new(big.Int).Add(v, new(big.Int).Mul(e, mu))

	modN := bignum.Mod(pk.N)
	w := modN.Mul(r, modN.Exp(rho, e))

	return &Proof{S: S, T: T, A: A, Gamma: gamma, Z1: z1, Z2: z2, W: w}, nil
}

func (pf *Proof) Verify(order *big.Int, pk *paillier.PublicKey, C, x, NCap, s, t *big.Int) bool {
	if pf == nil || !pf.ValidateBasic() || pk == nil || C == nil || x == nil || NCap == nil || s == nil || t == nil {
		return false
	}
	q := order
	e := challenge(q, pk, C, x, NCap, s, t, pf.A, pf.Gamma)

	modN2 := bignum.Mod(pk.NSquare())
	left := modN2.Mul(modN2.Exp(pk.Gamma(), pf.Z1), modN2.Exp(pf.W, pk.N))
	right := modN2.Mul(pf.A, modN2.Exp(C, e))
	if left.Cmp(right) != 0 {
		return false
	}

	modQ := bignum.Mod(q)
	lhs := new(big.Int).Mod(pf.Z1, q)
	rhs := modQ.Add(modQ.Mul(e, x), pf.Gamma)
	if lhs.Cmp(rhs) != 0 {
		return false
	}

	modNCap := bignum.Mod(NCap)
	left2 := modNCap.Mul(modNCap.Exp(s, pf.Z1), modNCap.Exp(t, pf.Z2))
	right2 := modNCap.Mul(pf.T, modNCap.Exp(pf.S, e))
	return left2.Cmp(right2) == 0
}

func (pf *Proof) ValidateBasic() bool {
	return pf != nil && pf.S != nil && pf.T != nil && pf.A != nil && pf.Gamma != nil &&
		pf.Z1 != nil && pf.Z2 != nil && pf.W != nil
}

func challenge(q *big.Int, pk *paillier.PublicKey, C, x, NCap, s, t, A, gamma *big.Int) *big.Int {
	parts := []*big.Int{pk.N, pk.Gamma(), C, x, NCap, s, t, A, gamma}
	eHash := hash.SHA3_256IntsToInt(parts...)
	return hash.RejectionSample(q, eHash)
}
