package bignum

import (
	"crypto/rand"
	"math/big"
)

// RandomPositiveInt returns a cryptographically random value in [0, lessThan).
func RandomPositiveInt(lessThan *big.Int) *big.Int {
	if lessThan == nil || lessThan.Sign() <= 0 {
		return nil
	}
	n, err := rand.Int(rand.Reader, lessThan)
	if err != nil {
		panic(err)
	}
	return n
}

// IsInMultiplicativeGroup reports whether v is coprime to n and nonzero.
func IsInMultiplicativeGroup(n, v *big.Int) bool {
	if v.Sign() == 0 {
		return false
	}
	return new(big.Int).GCD(nil, nil, n, v).Cmp(big.NewInt(1)) == 0
}

// RandomRelativelyPrimeInt returns a random value in [1, n) coprime to n,
// for use as Paillier encryption randomness.
func RandomRelativelyPrimeInt(n *big.Int) *big.Int {
	for {
		try := RandomPositiveInt(n)
		if try.Sign() != 0 && IsInMultiplicativeGroup(n, try) {
			return try
		}
	}
}
