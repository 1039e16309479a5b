// Package keyshare holds the Share Store: every local party's key
// material, loaded once at process start and never mutated afterward.
package keyshare

import (
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/paillier"
)

// VSSSetup carries the Feldman/Shamir share indices ("ks" in CGGMP21
// notation) for every party, index-aligned with PublicShares, so that
// Lagrange coefficients can be recomputed for an arbitrary signing
// subset without re-running DKG.
type VSSSetup struct {
	Ks []*big.Int
}

// AuxInfo is the CGGMP21 auxiliary information generated alongside DKG:
// each party's Paillier public key and ring-Pedersen parameters
// (N^, h1, h2), plus our own Paillier private key and the ring-Pedersen
// parameters the rest of the room uses when verifying proofs against us.
type AuxInfo struct {
	PaillierSK  *paillier.PrivateKey
	PaillierPKs []*paillier.PublicKey

	// NCap/H1/H2 are index-aligned with PublicShares: NCap[j]/H1[j]/H2[j]
	// is party j's ring-Pedersen modulus and generators, used when we
	// build a proof addressed to party j.
	NCap []*big.Int
	H1   []*big.Int
	H2   []*big.Int

	// OurNCap/OurH1/OurH2 are our own ring-Pedersen parameters, used when
	// verifying a proof some other party addressed to us.
	OurNCap *big.Int
	OurH1   *big.Int
	OurH2   *big.Int
}

// Share is one account's threshold-ECDSA key material: our secret
// share, every party's public share, and the auxiliary data CGGMP21
// signing needs.
type Share struct {
	AccountID       string
	I               int
	Threshold       int
	PartyCount      int
	SharedPublicKey *curve.Point
	PublicShares    []*curve.Point
	ChainCode       []byte
	Xi              *big.Int
	VSSSetup        *VSSSetup
	Aux             *AuxInfo
}

// validate checks the one invariant the Store can check cheaply at load
// time: our share is consistent with the public key everyone agrees on,
// g^x_i = X_i.
func (s *Share) validate() error {
	if s.Xi == nil || s.PublicShares == nil || s.I < 0 || s.I >= len(s.PublicShares) {
		return ErrCorruptShare
	}
	expected := curve.ScalarBaseMult(s.Xi)
	if !expected.Equal(s.PublicShares[s.I]) {
		return ErrCorruptShare
	}
	return nil
}
