package vault

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tonbridge/relay/pkg/relayerr"
)

func TestRoundTrip_CorrectAndWrongPassphrase(t *testing.T) {
	ethKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate eth key: %v", err)
	}
	_, tonKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ton key: %v", err)
	}

	dir := t.TempDir()
	path := dir + "/vault.json"
	if err := Create(path, "123", ethKey, tonKey, DebugIterations); err != nil {
		t.Fatalf("Create: %v", err)
	}

	keys, err := Open(path, "123", DebugIterations)
	if err != nil {
		t.Fatalf("Open with correct passphrase: %v", err)
	}
	if keys.EthPrivateKey.D.Cmp(ethKey.D) != 0 {
		t.Fatalf("eth key mismatch after round trip")
	}
	if !ed25519.PrivateKey(keys.TonPrivateKey).Equal(tonKey) {
		t.Fatalf("ton key mismatch after round trip")
	}

	if _, err := Open(path, "lol", DebugIterations); err != relayerr.ErrInvalidPassword {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestUnseal_CorruptRecordFails(t *testing.T) {
	if _, err := Unseal([]byte("not json"), "123", DebugIterations); err == nil {
		t.Fatalf("expected error for corrupt record")
	}
}
