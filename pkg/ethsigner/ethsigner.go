// Package ethsigner implements the relay's E-chain signer: EIP-191
// personal-message signing over secp256k1, per spec section 4.1.
package ethsigner

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs payloads on behalf of the relay's E-chain identity.
type Signer struct {
	key *ecdsa.PrivateKey
}

// New wraps a decrypted secp256k1 private key.
func New(key *ecdsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// Address is the relay's E-chain address: the last 20 bytes of
// keccak256(uncompressed_pubkey[1:]).
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Sign produces a 65-byte r||s||v EIP-191 personal-message signature over
// payload: hash = keccak256("\x19Ethereum Signed Message:\n32" ||
// keccak256(payload)); v = recid + 27.
func (s *Signer) Sign(payload []byte) ([65]byte, error) {
	var out [65]byte
	digest := crypto.Keccak256(payload)
	hash := accounts191Hash(digest)

	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return out, err
	}
	copy(out[:], sig)
	out[64] = sig[64] + 27
	return out, nil
}

// accounts191Hash computes keccak256("\x19Ethereum Signed Message:\n32" ||
// digest), the personal-message wrapper applied before signing.
func accounts191Hash(digest []byte) []byte {
	prefix := []byte("\x19Ethereum Signed Message:\n32")
	return crypto.Keccak256(append(prefix, digest...))
}

// Recover returns the E-chain address that produced sig over payload, per
// spec invariant 4 ("ecdsa_recover(S.signature, payload(S.data)) ==
// relay_eth_address").
func Recover(payload []byte, sig [65]byte) (common.Address, error) {
	digest := crypto.Keccak256(payload)
	hash := accounts191Hash(digest)

	rs := make([]byte, 65)
	copy(rs, sig[:])
	if rs[64] >= 27 {
		rs[64] -= 27
	}
	pub, err := crypto.SigToPub(hash, rs)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
