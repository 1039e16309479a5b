package paillier

import (
	"context"
	"crypto/rand"
	"math/big"
	"runtime"

	"github.com/otiai10/primes"
	"golang.org/x/sync/errgroup"
)

const (
	trialDivisionUntil = 1000
	pqBitLenSlack       = 3
	primeTestRounds     = 30
)

func init() {
	// warm the small-primes cache used by isSafePrimeCandidate below.
	_ = primes.Globally.Until(trialDivisionUntil)
}

// GenerateKeyPair returns a Paillier key pair whose modulus is the
// product of two Sophie Germain safe primes, each modulusBitLen/2 bits,
// with the two factors kept far enough apart to resist square-root
// factoring attacks.
func GenerateKeyPair(ctx context.Context, modulusBitLen int) (*PrivateKey, *PublicKey, error) {
	var p, q *big.Int
	for {
		safes, err := randomSafePrimes(ctx, modulusBitLen/2, 2)
		if err != nil {
			return nil, nil, err
		}
		p, q = safes[0], safes[1]
		if new(big.Int).Sub(p, q).BitLen() >= modulusBitLen/2-pqBitLenSlack {
			break
		}
	}
	n := new(big.Int).Mul(p, q)
	pMinus1 := new(big.Int).Sub(p, big.NewInt(1))
	qMinus1 := new(big.Int).Sub(q, big.NewInt(1))
	phiN := new(big.Int).Mul(pMinus1, qMinus1)
	gcd := new(big.Int).GCD(nil, nil, pMinus1, qMinus1)
	lambdaN := new(big.Int).Div(phiN, gcd)

	pub := &PublicKey{N: n}
	return &PrivateKey{PublicKey: *pub, LambdaN: lambdaN, PhiN: phiN}, pub, nil
}

// randomSafePrimes returns `count` independent safe primes p = 2q+1 of
// bitLen bits each, racing goroutines and returning as soon as enough
// candidates are found.
func randomSafePrimes(ctx context.Context, bitLen, count int) ([]*big.Int, error) {
	results := make([]*big.Int, count)
	g, ctx := errgroup.WithContext(ctx)
	concurrency := runtime.GOMAXPROCS(0)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			p, err := findSafePrime(ctx, bitLen, concurrency)
			if err != nil {
				return err
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func findSafePrime(ctx context.Context, bitLen int, concurrency int) (*big.Int, error) {
	type found struct {
		p   *big.Int
		err error
	}
	out := make(chan found, concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					out <- found{nil, ctx.Err()}
					return
				default:
				}
				q, err := rand.Prime(rand.Reader, bitLen-1)
				if err != nil {
					out <- found{nil, err}
					return
				}
				if !isSafePrimeCandidate(q) {
					continue
				}
				p := new(big.Int).Lsh(q, 1)
				p.Add(p, big.NewInt(1))
				if p.ProbablyPrime(primeTestRounds) && q.ProbablyPrime(primeTestRounds) {
					out <- found{p, nil}
					return
				}
			}
		}()
	}
	res := <-out
	return res.p, res.err
}

// isSafePrimeCandidate cheaply rejects q for which 2q+1 cannot possibly be
// prime, via trial division against a small-primes table, before paying
// for a Miller-Rabin test.
func isSafePrimeCandidate(q *big.Int) bool {
	p := new(big.Int).Lsh(q, 1)
	p.Add(p, big.NewInt(1))
	for _, sp := range primes.Until(trialDivisionUntil).List() {
		spBig := big.NewInt(sp)
		if spBig.Cmp(q) >= 0 {
			break
		}
		if new(big.Int).Mod(p, spBig).Sign() == 0 {
			return false
		}
	}
	return true
}
