// Package sigs signs and verifies with whichever algorithm a key names.
// Algorithms register themselves from their own packages.
package sigs

import (
	"errors"
	"fmt"

	"github.com/korthochain/ledger/pkg/model"
)

var ErrNoSignature = errors.New("transaction is not signed")

func Generate(algorithm string) ([]byte, error) {
	s, ok := sigs[algorithm]
	if !ok {
		return nil, fmt.Errorf("cannot generate private key with signature of unsupported type:%v", algorithm)
	}

	return s.Generate()
}

func Sign(algorithm string, priv, msg []byte) ([]byte, error) {
	signer, ok := sigs[algorithm]
	if !ok {
		return nil, fmt.Errorf("cannot sign message with signature of unsupported type:%v", algorithm)
	}

	return signer.Sign(priv, msg)
}

func Verify(algorithm string, sig, pk, msg []byte) error {
	if len(sig) == 0 {
		return fmt.Errorf("signature is empty")
	}

	signer, ok := sigs[algorithm]
	if !ok {
		return fmt.Errorf("cannot verify message with signature of unsupported type:%v", algorithm)
	}

	return signer.Verify(sig, pk, msg)
}

func ToPublic(algorithm string, priv []byte) ([]byte, error) {
	signer, ok := sigs[algorithm]
	if !ok {
		return nil, fmt.Errorf("cannot to public key with signature of unsupported type:%v", algorithm)
	}

	return signer.ToPublic(priv)
}

// SignTransaction signs the payload hash of tx with priv and attaches the
// signature.
func SignTransaction(tx *model.Transaction, algorithm string, priv []byte) error {
	pub, err := ToPublic(algorithm, priv)
	if err != nil {
		return err
	}
	h := tx.Hash()
	sig, err := Sign(algorithm, priv, h[:])
	if err != nil {
		return err
	}
	tx.Sign(model.NewPublicKey(algorithm, pub), sig)
	return nil
}

// VerifyTransaction checks every signature of tx against its payload hash.
func VerifyTransaction(tx *model.Transaction) error {
	if len(tx.Signatures) == 0 {
		return ErrNoSignature
	}
	h := tx.Hash()
	for i, s := range tx.Signatures {
		if err := Verify(s.PublicKey.Algorithm, s.Payload, s.PublicKey.Payload(), h[:]); err != nil {
			return fmt.Errorf("signature %d by %s: %w", i, s.PublicKey, err)
		}
	}
	return nil
}

type SigShim interface {
	Generate() ([]byte, error)
	Verify(signature, pubKey, data []byte) error
	ToPublic([]byte) ([]byte, error)
	Sign(priv, msg []byte) ([]byte, error)
}

var sigs map[string]SigShim

func RegisterSignature(algorithm string, sigShim SigShim) {
	if sigs == nil {
		sigs = make(map[string]SigShim)
	}

	if _, ok := sigs[algorithm]; ok {
		return
	}

	sigs[algorithm] = sigShim
}
