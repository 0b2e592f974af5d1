// Package wallet verifies that requests were authorized by a Solana wallet's
// private key. The server keeps no passwords; a detached ed25519 signature
// over a known message is the only proof of identity.
package wallet

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// VerifySignature reports whether signatureB64 is a valid detached ed25519
// signature over the UTF-8 bytes of message for the base58 public key addr.
// Malformed inputs return an error; a well-formed but wrong signature returns
// (false, nil).
func VerifySignature(addr, message, signatureB64 string) (bool, error) {
	pubKey, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return false, fmt.Errorf("invalid wallet address: %w", err)
	}

	sigBytes, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sigBytes) != ed25519.SignatureSize {
		return false, fmt.Errorf("invalid signature length %d", len(sigBytes))
	}

	return ed25519.Verify(ed25519.PublicKey(pubKey.Bytes()), []byte(message), sigBytes), nil
}

// ValidAddress reports whether addr parses as a Solana public key.
func ValidAddress(addr string) bool {
	_, err := solana.PublicKeyFromBase58(addr)
	return err == nil
}
