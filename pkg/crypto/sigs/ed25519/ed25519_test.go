package ed25519

import (
	"testing"

	"github.com/korthochain/ledger/pkg/crypto"
	"github.com/korthochain/ledger/pkg/crypto/sigs"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	assert := assert.New(t)
	signer := &ED25519Signer{}
	priv, err := signer.Generate()
	require.NoError(t, err)
	pub, err := signer.ToPublic(priv)
	require.NoError(t, err)

	sig, err := signer.Sign(priv, []byte("ledger"))
	require.NoError(t, err)
	assert.NoError(signer.Verify(sig, pub, []byte("ledger")))
	assert.Error(signer.Verify(sig, pub, []byte("ledgers")))
	assert.Error(signer.Verify(sig[1:], pub, []byte("ledger")))

	// the expanded key signs like its seed
	expanded := append(append([]byte(nil), priv...), pub...)
	again, err := signer.Sign(expanded, []byte("ledger"))
	require.NoError(t, err)
	assert.Equal(sig, again)

	_, err = signer.ToPublic(priv[:16])
	assert.Error(err)
}

func TestVerifyTransaction(t *testing.T) {
	assert := assert.New(t)
	priv, err := sigs.Generate(crypto.ED25519)
	require.NoError(t, err)
	other, err := sigs.Generate(crypto.ED25519)
	require.NoError(t, err)
	pub, err := sigs.ToPublic(crypto.ED25519, priv)
	require.NoError(t, err)

	authority := model.NewAccountId(model.NewPublicKey(crypto.ED25519, pub), "wonderland")
	tx := model.NewTransaction(authority, model.Instructions{model.FailBox{Message: "x"}}, 1, 0)
	require.NoError(t, sigs.SignTransaction(tx, crypto.ED25519, priv))
	require.NoError(t, sigs.SignTransaction(tx, crypto.ED25519, other))
	assert.Len(tx.Signatories(), 2)
	assert.NoError(sigs.VerifyTransaction(tx))

	tx.Signatures[1].Payload = tx.Signatures[0].Payload
	assert.Error(sigs.VerifyTransaction(tx))

	tx.Signatures[1].PublicKey = model.NewPublicKey("rsa", pub)
	assert.Error(sigs.VerifyTransaction(tx))
}
