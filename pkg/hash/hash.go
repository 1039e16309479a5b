// Package hash carries the session transcript hashing used for proof
// challenges, commitments, and the CGGMP21 rejection-sampling step.
package hash

import (
	"encoding/binary"
	"math/big"

	"golang.org/x/crypto/sha3"
)

const delimiter = byte('$')

// SHA3_256Ints hashes a variable number of big.Int inputs with explicit
// length-prefixing and per-element delimiters, so that no concatenation
// of distinct input sets can ever collide on the same digest.
func SHA3_256Ints(in ...*big.Int) []byte {
	if len(in) == 0 {
		return nil
	}
	state := sha3.New256()
	var countPrefix [8]byte
	binary.LittleEndian.PutUint64(countPrefix[:], uint64(len(in)))
	state.Write(countPrefix[:])
	for _, n := range in {
		b := n.Bytes()
		state.Write(b)
		state.Write([]byte{delimiter})
		var lenSuffix [8]byte
		binary.LittleEndian.PutUint64(lenSuffix[:], uint64(len(b)))
		state.Write(lenSuffix[:])
	}
	return state.Sum(nil)
}

func SHA3_256IntsToInt(in ...*big.Int) *big.Int {
	return new(big.Int).SetBytes(SHA3_256Ints(in...))
}

// RejectionSample maps a challenge hash into [0, q) by repeated rehashing,
// per CGGMP21's Fiat-Shamir challenge derivation.
func RejectionSample(q *big.Int, eHash *big.Int) *big.Int {
	qBits := q.BitLen()
	e := firstBitsOf(qBits, eHash)
	for e.Cmp(q) >= 0 {
		eHash = SHA3_256IntsToInt(eHash)
		e = firstBitsOf(qBits, eHash)
	}
	return e
}

func firstBitsOf(bits int, v *big.Int) *big.Int {
	e := new(big.Int)
	for i := 0; i < bits; i++ {
		e.SetBit(e, i, v.Bit(i))
	}
	return e
}
