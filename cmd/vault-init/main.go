// Command vault-init is an offline one-shot tool for creating a relay key
// vault without starting the relay's HTTP control surface: it generates
// fresh E-chain and T-chain signing keys and seals them under a passphrase
// (spec section 6 "/init"'s logic, usable before the relay process exists).
package main

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/term"

	"github.com/tonbridge/relay/pkg/vault"
)

func main() {
	var (
		out        = flag.String("out", "./keys.json", "path to write the sealed vault to")
		iterations = flag.Int("iterations", vault.ProductionIterations, "PBKDF2 iteration count")
	)
	flag.Parse()

	if _, err := os.Stat(*out); err == nil {
		log.Fatalf("vault-init: %s already exists, refusing to overwrite", *out)
	}

	ethKey, err := crypto.GenerateKey()
	if err != nil {
		log.Fatalf("vault-init: generate eth key: %v", err)
	}
	_, tonKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Fatalf("vault-init: generate ton key: %v", err)
	}

	passphrase, err := readPassphrase()
	if err != nil {
		log.Fatalf("vault-init: %v", err)
	}

	if err := vault.Create(*out, passphrase, ethKey, tonKey, *iterations); err != nil {
		log.Fatalf("vault-init: %v", err)
	}

	fmt.Printf("vault written to %s\n", *out)
	fmt.Printf("eth address: %s\n", crypto.PubkeyToAddress(ethPublicKey(ethKey)).Hex())
	fmt.Printf("ton public key: %x\n", tonKey.Public().(ed25519.PublicKey))
}

func ethPublicKey(key *ecdsa.PrivateKey) ecdsa.PublicKey {
	return key.PublicKey
}

func readPassphrase() (string, error) {
	fmt.Fprint(os.Stderr, "vault passphrase: ")
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	fmt.Fprint(os.Stderr, "confirm passphrase: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if string(pass) != string(confirm) {
		return "", fmt.Errorf("passphrases did not match")
	}
	return string(pass), nil
}
