// Package crypto names the signature algorithms a public key can carry.
package crypto

// Algorithms, as written before the ':' of a textual public key.
const (
	ED25519   = "ed25519"
	Secp256k1 = "secp256k1"
)
