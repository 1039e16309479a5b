package keyshare

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/paillier"
)

// Store is the full set of key shares loaded at startup. It is built
// once by Load and never mutated again, so Lookup needs no locking.
type Store struct {
	byAccount map[string]*Share
}

// Load parses the key-share document r carries (a JSON object keyed by
// account_id) and validates every entry before returning a Store.
func Load(r io.Reader) (*Store, error) {
	var doc map[string]shareDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "keyshare: decode document")
	}

	byAccount := make(map[string]*Share, len(doc))
	for accountID, d := range doc {
		share, err := d.toShare(accountID)
		if err != nil {
			return nil, errors.Wrapf(err, "keyshare: account %s", accountID)
		}
		if err := share.validate(); err != nil {
			return nil, err
		}
		byAccount[accountID] = share
	}
	return &Store{byAccount: byAccount}, nil
}

// Lookup returns the share for accountID, or ErrUnknownAccount.
func (s *Store) Lookup(accountID string) (*Share, error) {
	share, ok := s.byAccount[accountID]
	if !ok {
		return nil, ErrUnknownAccount
	}
	return share, nil
}

// Accounts lists every account_id the Store was loaded with, for
// operational listing/health-check use.
func (s *Store) Accounts() []string {
	accounts := make([]string, 0, len(s.byAccount))
	for id := range s.byAccount {
		accounts = append(accounts, id)
	}
	return accounts
}

// PublicKey returns the shared public key for accountID.
func (s *Store) PublicKey(accountID string) (*curve.Point, error) {
	share, err := s.Lookup(accountID)
	if err != nil {
		return nil, err
	}
	return share.SharedPublicKey, nil
}

// ----- JSON document shape -----

type pointDoc struct {
	X string `json:"x"`
	Y string `json:"y"`
}

func (p pointDoc) toPoint() (*curve.Point, error) {
	x, err := hexToInt(p.X)
	if err != nil {
		return nil, err
	}
	y, err := hexToInt(p.Y)
	if err != nil {
		return nil, err
	}
	return curve.NewPoint(x, y)
}

type paillierSKDoc struct {
	N       string `json:"n"`
	LambdaN string `json:"lambda_n"`
	PhiN    string `json:"phi_n"`
}

type paillierPKDoc struct {
	N string `json:"n"`
}

type shareDoc struct {
	I               int             `json:"i"`
	Threshold       int             `json:"threshold"`
	PartyCount      int             `json:"party_count"`
	SharedPublicKey pointDoc        `json:"shared_public_key"`
	PublicShares    []pointDoc      `json:"public_shares"`
	ChainCode       string          `json:"chain_code"`
	Xi              string          `json:"xi"`
	Ks              []string        `json:"ks"`
	PaillierSK      paillierSKDoc   `json:"paillier_sk"`
	PaillierPKs     []paillierPKDoc `json:"paillier_pks"`
	NCap            []string        `json:"n_cap"`
	H1              []string        `json:"h1"`
	H2              []string        `json:"h2"`
	OurNCap         string          `json:"our_n_cap"`
	OurH1           string          `json:"our_h1"`
	OurH2           string          `json:"our_h2"`
}

func (d shareDoc) toShare(accountID string) (*Share, error) {
	sharedPub, err := d.SharedPublicKey.toPoint()
	if err != nil {
		return nil, errors.Wrap(err, "shared_public_key")
	}
	publicShares := make([]*curve.Point, len(d.PublicShares))
	for i, p := range d.PublicShares {
		pt, err := p.toPoint()
		if err != nil {
			return nil, errors.Wrapf(err, "public_shares[%d]", i)
		}
		publicShares[i] = pt
	}
	chainCode, err := hex.DecodeString(d.ChainCode)
	if err != nil {
		return nil, errors.Wrap(err, "chain_code")
	}
	xi, err := hexToInt(d.Xi)
	if err != nil {
		return nil, errors.Wrap(err, "xi")
	}
	ks := make([]*big.Int, len(d.Ks))
	for i, k := range d.Ks {
		v, err := hexToInt(k)
		if err != nil {
			return nil, errors.Wrapf(err, "ks[%d]", i)
		}
		ks[i] = v
	}

	n, err := hexToInt(d.PaillierSK.N)
	if err != nil {
		return nil, errors.Wrap(err, "paillier_sk.n")
	}
	lambdaN, err := hexToInt(d.PaillierSK.LambdaN)
	if err != nil {
		return nil, errors.Wrap(err, "paillier_sk.lambda_n")
	}
	phiN, err := hexToInt(d.PaillierSK.PhiN)
	if err != nil {
		return nil, errors.Wrap(err, "paillier_sk.phi_n")
	}
	sk := &paillier.PrivateKey{
		PublicKey: paillier.PublicKey{N: n},
		LambdaN:   lambdaN,
		PhiN:      phiN,
	}

	pks := make([]*paillier.PublicKey, len(d.PaillierPKs))
	for i, pk := range d.PaillierPKs {
		v, err := hexToInt(pk.N)
		if err != nil {
			return nil, errors.Wrapf(err, "paillier_pks[%d]", i)
		}
		pks[i] = &paillier.PublicKey{N: v}
	}

	nCap, err := hexSlice(d.NCap)
	if err != nil {
		return nil, errors.Wrap(err, "n_cap")
	}
	h1, err := hexSlice(d.H1)
	if err != nil {
		return nil, errors.Wrap(err, "h1")
	}
	h2, err := hexSlice(d.H2)
	if err != nil {
		return nil, errors.Wrap(err, "h2")
	}
	ourNCap, err := hexToInt(d.OurNCap)
	if err != nil {
		return nil, errors.Wrap(err, "our_n_cap")
	}
	ourH1, err := hexToInt(d.OurH1)
	if err != nil {
		return nil, errors.Wrap(err, "our_h1")
	}
	ourH2, err := hexToInt(d.OurH2)
	if err != nil {
		return nil, errors.Wrap(err, "our_h2")
	}

	return &Share{
		AccountID:       accountID,
		I:               d.I,
		Threshold:       d.Threshold,
		PartyCount:      d.PartyCount,
		SharedPublicKey: sharedPub,
		PublicShares:    publicShares,
		ChainCode:       chainCode,
		Xi:              xi,
		VSSSetup:        &VSSSetup{Ks: ks},
		Aux: &AuxInfo{
			PaillierSK:  sk,
			PaillierPKs: pks,
			NCap:        nCap,
			H1:          h1,
			H2:          h2,
			OurNCap:     ourNCap,
			OurH1:       ourH1,
			OurH2:       ourH2,
		},
	}, nil
}

func hexSlice(in []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(in))
	for i, s := range in {
		v, err := hexToInt(s)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func hexToInt(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
