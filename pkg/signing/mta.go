package signing

import (
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/pkg/bignum"
	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
	"github.com/binance-chain/wallet-mpc-signer/pkg/paillier"
	"github.com/binance-chain/wallet-mpc-signer/pkg/zk/affg"
)

// mtaOut is one MtA leg's output: the ciphertexts sent to the counterparty
// plus our own additive share of the product.
type mtaOut struct {
	Dji, Fji   *big.Int
	Sij, Rij   *big.Int
	Beta       *big.Int
	Proof      *affg.Proof
}

// runMtA runs one multiplicative-to-additive conversion leg of S2: we hold
// xi (either gamma_i or w_i) and the counterparty holds Kj = Enc(k_j). We
// return ciphertexts that let them recover alpha = xi*k_j - beta, where
// beta (returned as Beta) is our additive share and only we know it, plus
// the aff-g proof binding it all to BigXi = g^xi.
func runMtA(order *big.Int, Kj *big.Int, xi *big.Int, BigXi *curve.Point, pkj, pki *paillier.PublicKey, NCap, s, t *big.Int) (*mtaOut, error) {
	q3 := new(big.Int).Exp(order, big.NewInt(3), nil)
	betaNeg := bignum.RandomPositiveInt(q3)

	gammaK, err := pkj.HomoMult(xi, Kj)
	if err != nil {
		return nil, err
	}
	Dji, sij, err := pkj.EncryptFresh(betaNeg)
	if err != nil {
		return nil, err
	}
	Dji, err = pkj.HomoAdd(gammaK, Dji)
	if err != nil {
		return nil, err
	}

	Fji, rij, err := pki.EncryptFresh(betaNeg)
	if err != nil {
		return nil, err
	}

	beta := bignum.Mod(order).Sub(big.NewInt(0), betaNeg)

	proof, err := affg.NewProof(order, pkj, pki, NCap, s, t, Kj, Dji, Fji, BigXi, xi, betaNeg, sij, rij)
	if err != nil {
		return nil, err
	}

	return &mtaOut{
		Dji:   Dji,
		Fji:   Fji,
		Sij:   sij,
		Rij:   rij,
		Beta:  beta,
		Proof: proof,
	}, nil
}
