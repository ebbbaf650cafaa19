// Package tsigner implements the relay's T-chain signer: Ed25519 over the
// 32-byte secret half, per spec section 4.1.
package tsigner

import "crypto/ed25519"

// Signer signs payloads on behalf of the relay's T-chain identity.
type Signer struct {
	key ed25519.PrivateKey
}

// New wraps a decrypted Ed25519 private key.
func New(key ed25519.PrivateKey) *Signer {
	return &Signer{key: key}
}

// PublicKey returns the relay's T-chain public key.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// Sign produces a 64-byte Ed25519 signature over payload.
func (s *Signer) Sign(payload []byte) [64]byte {
	var out [64]byte
	copy(out[:], ed25519.Sign(s.key, payload))
	return out
}

// Verify checks a signature produced by Sign.
func Verify(pub ed25519.PublicKey, payload []byte, sig [64]byte) bool {
	return ed25519.Verify(pub, payload, sig[:])
}
