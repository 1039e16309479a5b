// Package commitments implements the hash commitment S1 uses to bind a
// party to the point Gamma_i = gamma_i*G it reveals in S2, so no party can
// choose its own share after seeing anyone else's and bias the nonce R.
package commitments

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"

	"github.com/binance-chain/wallet-mpc-signer/pkg/hash"
)

const blindingBits = 256

type (
	Commitment   = *big.Int
	Decommitment = []*big.Int
)

// Commit binds the given secrets behind a random blinding factor.
func Commit(secrets ...*big.Int) (c Commitment, d Decommitment, err error) {
	blind, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), blindingBits))
	if err != nil {
		return nil, nil, errors.Wrap(err, "commitments: sampling blinding factor")
	}
	parts := make([]*big.Int, len(secrets)+1)
	parts[0] = blind
	copy(parts[1:], secrets)
	return hash.SHA3_256IntsToInt(parts...), parts, nil
}

// Verify checks that d opens c, and on success returns the original
// secrets (without the blinding factor).
func Verify(c Commitment, d Decommitment) ([]*big.Int, bool) {
	if len(d) == 0 {
		return nil, false
	}
	if hash.SHA3_256IntsToInt(d...).Cmp(c) != 0 {
		return nil, false
	}
	return d[1:], true
}
