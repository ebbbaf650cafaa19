// Package vault loads and unlocks the relay's key vault: the on-disk
// passphrase-encrypted record holding the E-chain and T-chain signing keys.
// See spec section 4.1.
package vault

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"

	"github.com/tonbridge/relay/pkg/relayerr"
)

// ProductionIterations and DebugIterations are the PBKDF2 iteration counts
// used to derive the sealing key. Production builds use ProductionIterations; tests use
// DebugIterations to keep vault round-trip tests fast.
const (
	ProductionIterations = 5_000_000
	DebugIterations      = 1

	saltLen = 32
	keyLen  = 32
	// secretbox requires a 24-byte nonce.
	nonceLen = 24
)

// record is the on-disk JSON shape, per spec section 6.
type record struct {
	Salt                   string `json:"salt"`
	EthPubkey              string `json:"eth_pubkey"`
	EthEncryptedPrivateKey string `json:"eth_encrypted_private_key"`
	EthNonce               string `json:"eth_nonce"`
	TonEncryptedPrivateKey string `json:"ton_encrypted_private_key"`
	TonNonce               string `json:"ton_nonce"`
}

// Keys holds the decrypted signing material once the vault is unlocked.
type Keys struct {
	EthPrivateKey *ecdsa.PrivateKey
	TonPrivateKey ed25519.PrivateKey
}

// Create seals a new vault record for the given keys under passphrase, and
// writes it to path as JSON.
func Create(path, passphrase string, ethKey *ecdsa.PrivateKey, tonKey ed25519.PrivateKey, iterations int) error {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("vault: generate salt: %w", err)
	}
	sealKey := deriveKey(passphrase, salt, iterations)

	ethCipher, ethNonce, err := seal(sealKey, padTo32(ethKey.D.Bytes()))
	if err != nil {
		return fmt.Errorf("vault: seal eth key: %w", err)
	}
	tonCipher, tonNonce, err := seal(sealKey, []byte(tonKey))
	if err != nil {
		return fmt.Errorf("vault: seal ton key: %w", err)
	}

	rec := record{
		Salt:                   hex.EncodeToString(salt),
		EthPubkey:              hex.EncodeToString(crypto.FromECDSAPub(&ethKey.PublicKey)),
		EthEncryptedPrivateKey: hex.EncodeToString(ethCipher),
		EthNonce:               hex.EncodeToString(ethNonce[:]),
		TonEncryptedPrivateKey: hex.EncodeToString(tonCipher),
		TonNonce:               hex.EncodeToString(tonNonce[:]),
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: marshal record: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}

// Open loads and decrypts the vault at path with passphrase.
//
// Fails with relayerr.ErrCorruptVault if the file cannot be parsed or field
// lengths are wrong, and relayerr.ErrInvalidPassword if AEAD authentication
// fails.
func Open(path, passphrase string, iterations int) (*Keys, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	return Unseal(raw, passphrase, iterations)
}

// Unseal decrypts a vault record already read into memory.
func Unseal(raw []byte, passphrase string, iterations int) (*Keys, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", relayerr.ErrCorruptVault, err)
	}

	salt, err := hex.DecodeString(rec.Salt)
	if err != nil || len(salt) != saltLen {
		return nil, fmt.Errorf("%w: bad salt", relayerr.ErrCorruptVault)
	}
	ethCipher, err := hex.DecodeString(rec.EthEncryptedPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad eth ciphertext", relayerr.ErrCorruptVault)
	}
	ethNonce, err := hex.DecodeString(rec.EthNonce)
	if err != nil || len(ethNonce) != nonceLen {
		return nil, fmt.Errorf("%w: bad eth nonce", relayerr.ErrCorruptVault)
	}
	tonCipher, err := hex.DecodeString(rec.TonEncryptedPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ton ciphertext", relayerr.ErrCorruptVault)
	}
	tonNonce, err := hex.DecodeString(rec.TonNonce)
	if err != nil || len(tonNonce) != nonceLen {
		return nil, fmt.Errorf("%w: bad ton nonce", relayerr.ErrCorruptVault)
	}

	sealKey := deriveKey(passphrase, salt, iterations)

	ethPlain, err := open(sealKey, ethCipher, ethNonce)
	if err != nil {
		return nil, relayerr.ErrInvalidPassword
	}
	tonPlain, err := open(sealKey, tonCipher, tonNonce)
	if err != nil {
		return nil, relayerr.ErrInvalidPassword
	}

	ethKey, err := crypto.ToECDSA(ethPlain)
	if err != nil {
		return nil, fmt.Errorf("%w: eth private key: %v", relayerr.ErrCorruptVault, err)
	}
	if len(tonPlain) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: ton private key wrong size", relayerr.ErrCorruptVault)
	}

	return &Keys{EthPrivateKey: ethKey, TonPrivateKey: ed25519.PrivateKey(tonPlain)}, nil
}

// padTo32 left-pads a big-endian integer to the 32-byte width crypto.ToECDSA
// requires; big.Int.Bytes() drops leading zero bytes.
func padTo32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func deriveKey(passphrase string, salt []byte, iterations int) [keyLen]byte {
	derived := pbkdf2.Key([]byte(passphrase), salt, iterations, keyLen, sha256.New)
	var key [keyLen]byte
	copy(key[:], derived)
	return key
}

func seal(key [keyLen]byte, plaintext []byte) (ciphertext []byte, nonce [nonceLen]byte, err error) {
	if _, err = rand.Read(nonce[:]); err != nil {
		return nil, nonce, err
	}
	ciphertext = secretbox.Seal(nil, plaintext, &nonce, &key)
	return ciphertext, nonce, nil
}

func open(key [keyLen]byte, ciphertext []byte, nonce []byte) ([]byte, error) {
	var n [nonceLen]byte
	copy(n[:], nonce)
	plain, ok := secretbox.Open(nil, ciphertext, &n, &key)
	if !ok {
		return nil, relayerr.ErrInvalidPassword
	}
	return plain, nil
}
