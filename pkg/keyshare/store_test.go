package keyshare

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
)

func hexOf(n *big.Int) string {
	return hex.EncodeToString(n.Bytes())
}

func validShareDoc(t *testing.T) shareDoc {
	t.Helper()
	xi, err := curve.Secp256k1.RandomScalar(nil)
	require.NoError(t, err)
	pub := curve.ScalarBaseMult(xi)

	return shareDoc{
		I:          0,
		Threshold:  2,
		PartyCount: 2,
		SharedPublicKey: pointDoc{
			X: hexOf(pub.X()),
			Y: hexOf(pub.Y()),
		},
		PublicShares: []pointDoc{
			{X: hexOf(pub.X()), Y: hexOf(pub.Y())},
			{X: hexOf(pub.X()), Y: hexOf(pub.Y())},
		},
		ChainCode: hex.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		Xi:        hexOf(xi),
		Ks:        []string{hexOf(big.NewInt(1)), hexOf(big.NewInt(2))},
		PaillierSK: paillierSKDoc{
			N:       hexOf(big.NewInt(1000003 * 1000033)),
			LambdaN: hexOf(big.NewInt(999990)),
			PhiN:    hexOf(big.NewInt(999990)),
		},
		PaillierPKs: []paillierPKDoc{
			{N: hexOf(big.NewInt(1000003 * 1000033))},
			{N: hexOf(big.NewInt(1000037 * 1000039))},
		},
		NCap:    []string{hexOf(big.NewInt(123457)), hexOf(big.NewInt(654323))},
		H1:      []string{hexOf(big.NewInt(3)), hexOf(big.NewInt(5))},
		H2:      []string{hexOf(big.NewInt(7)), hexOf(big.NewInt(11))},
		OurNCap: hexOf(big.NewInt(123457)),
		OurH1:   hexOf(big.NewInt(3)),
		OurH2:   hexOf(big.NewInt(7)),
	}
}

func docJSON(t *testing.T, accountID string, d shareDoc) *bytes.Reader {
	t.Helper()
	body := map[string]shareDoc{accountID: d}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestLoadAcceptsValidShare(t *testing.T) {
	d := validShareDoc(t)
	store, err := Load(docJSON(t, "acct-1", d))
	require.NoError(t, err)

	share, err := store.Lookup("acct-1")
	require.NoError(t, err)
	assert.Equal(t, 0, share.I)
	assert.Equal(t, 2, share.Threshold)
	assert.ElementsMatch(t, []string{"acct-1"}, store.Accounts())

	pub, err := store.PublicKey("acct-1")
	require.NoError(t, err)
	assert.True(t, pub.Equal(share.SharedPublicKey))
}

func TestLoadRejectsUnknownAccount(t *testing.T) {
	d := validShareDoc(t)
	store, err := Load(docJSON(t, "acct-1", d))
	require.NoError(t, err)

	_, err = store.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestLoadRejectsCorruptShare(t *testing.T) {
	d := validShareDoc(t)
	// Xi no longer matches PublicShares[0]: g^xi != X_0.
	otherXi, err := curve.Secp256k1.RandomScalar(nil)
	require.NoError(t, err)
	d.Xi = hexOf(otherXi)

	_, err = Load(docJSON(t, "acct-1", d))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedHex(t *testing.T) {
	d := validShareDoc(t)
	d.Xi = "not-hex"

	_, err := Load(docJSON(t, "acct-1", d))
	assert.Error(t, err)
}
