// Package secp registers secp256k1 signatures over 32 byte hashes. Public
// keys are compressed.
package secp

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	localcyrpto "github.com/korthochain/ledger/pkg/crypto"
	"github.com/korthochain/ledger/pkg/crypto/sigs"
)

type Secp256k1Signer struct{}

var _ sigs.SigShim = &Secp256k1Signer{}

func (s *Secp256k1Signer) Generate() ([]byte, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	return crypto.FromECDSA(priv), nil
}

func (s *Secp256k1Signer) ToPublic(privBytes []byte) ([]byte, error) {
	priv, err := crypto.ToECDSA(privBytes)
	if err != nil {
		return nil, err
	}

	return crypto.CompressPubkey(&priv.PublicKey), nil
}

// Sign returns the 65 byte [R || S || V] signature of the hash msg.
func (s *Secp256k1Signer) Sign(privBytes, msg []byte) ([]byte, error) {
	priv, err := crypto.ToECDSA(privBytes)
	if err != nil {
		return nil, err
	}

	return crypto.Sign(msg, priv)
}

func (s *Secp256k1Signer) Verify(signature, pubKey, sighash []byte) error {
	if len(signature) != crypto.SignatureLength {
		return fmt.Errorf("signature verification failed: length %d", len(signature))
	}

	if !crypto.VerifySignature(pubKey, sighash, signature[:crypto.RecoveryIDOffset]) {
		return fmt.Errorf("signature verification failed")
	}

	return nil
}

func init() {
	sigs.RegisterSignature(localcyrpto.Secp256k1, new(Secp256k1Signer))
}
