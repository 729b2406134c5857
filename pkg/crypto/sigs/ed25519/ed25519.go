// Package ed25519 registers ed25519 signatures. Private keys may be given as
// a 32 byte seed or as the 64 byte expanded key.
package ed25519

import (
	ed "crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/korthochain/ledger/pkg/crypto"
	"github.com/korthochain/ledger/pkg/crypto/sigs"
)

type ED25519Signer struct{}

var _ sigs.SigShim = &ED25519Signer{}

// Generate returns a fresh seed.
func (s *ED25519Signer) Generate() ([]byte, error) {
	_, priv, err := ed.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return priv.Seed(), nil
}

func (s *ED25519Signer) Verify(sig, publicKey, msg []byte) error {
	if len(publicKey) != ed.PublicKeySize {
		return fmt.Errorf("ed25519 public key length %d", len(publicKey))
	}
	if len(sig) != ed.SignatureSize {
		return fmt.Errorf("ed25519 signature length %d", len(sig))
	}
	if !ed.Verify(publicKey, msg, sig) {
		return fmt.Errorf("ed25519 signature failed to verify")
	}
	return nil
}

func (s *ED25519Signer) ToPublic(priv []byte) ([]byte, error) {
	key, err := privateKey(priv)
	if err != nil {
		return nil, err
	}
	return []byte(key.Public().(ed.PublicKey)), nil
}

func (s *ED25519Signer) Sign(priv, msg []byte) ([]byte, error) {
	key, err := privateKey(priv)
	if err != nil {
		return nil, err
	}
	return ed.Sign(key, msg), nil
}

func privateKey(priv []byte) (ed.PrivateKey, error) {
	switch len(priv) {
	case ed.SeedSize:
		return ed.NewKeyFromSeed(priv), nil
	case ed.PrivateKeySize:
		key := make(ed.PrivateKey, ed.PrivateKeySize)
		copy(key, priv)
		return key, nil
	}
	return nil, fmt.Errorf("ed25519 private key length %d", len(priv))
}

func init() {
	sigs.RegisterSignature(crypto.ED25519, new(ED25519Signer))
}
