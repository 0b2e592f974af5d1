package wallet

import (
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedMessage(t *testing.T, message string) (addr string, sigB64 string) {
	t.Helper()
	w := solana.NewWallet()
	sig, err := w.PrivateKey.Sign([]byte(message))
	require.NoError(t, err)
	return w.PublicKey().String(), base64.StdEncoding.EncodeToString(sig[:])
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	t.Run("valid signature verifies", func(t *testing.T) {
		t.Parallel()
		addr, sig := signedMessage(t, "Sign this message to log in to Exon")
		ok, err := VerifySignature(addr, "Sign this message to log in to Exon", sig)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("signature over different message fails", func(t *testing.T) {
		t.Parallel()
		addr, sig := signedMessage(t, "original message")
		ok, err := VerifySignature(addr, "tampered message", sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("signature from different key fails", func(t *testing.T) {
		t.Parallel()
		_, sig := signedMessage(t, "hello")
		other := solana.NewWallet().PublicKey().String()
		ok, err := VerifySignature(other, "hello", sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed wallet address errors", func(t *testing.T) {
		t.Parallel()
		_, sig := signedMessage(t, "hello")
		_, err := VerifySignature("not-a-wallet!!", "hello", sig)
		assert.Error(t, err)
	})

	t.Run("malformed base64 errors", func(t *testing.T) {
		t.Parallel()
		addr := solana.NewWallet().PublicKey().String()
		_, err := VerifySignature(addr, "hello", "%%%not-base64%%%")
		assert.Error(t, err)
	})

	t.Run("wrong signature length errors", func(t *testing.T) {
		t.Parallel()
		addr := solana.NewWallet().PublicKey().String()
		short := base64.StdEncoding.EncodeToString([]byte("too short"))
		_, err := VerifySignature(addr, "hello", short)
		assert.Error(t, err)
	})
}

func TestValidAddress(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidAddress(solana.NewWallet().PublicKey().String()))
	assert.False(t, ValidAddress(""))
	assert.False(t, ValidAddress("0x0000000000000000000000000000000000000000"))
}
