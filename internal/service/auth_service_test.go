package service

import (
	"context"
	"encoding/base64"
	"testing"

	"exon/internal/config"
	"exon/internal/ledger"
	"exon/internal/models"
	"exon/internal/repository"
	"exon/internal/testutil"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLoginMessage = "Sign this message to log in to Exon"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "test-secret-test-secret-test-secret!",
		LoginMessage: testLoginMessage,
	}
}

// signLogin produces a wallet address and a valid base64 signature over the
// login message.
func signLogin(t *testing.T) (string, string) {
	t.Helper()
	w := solana.NewWallet()
	sig, err := w.PrivateKey.Sign([]byte(testLoginMessage))
	require.NoError(t, err)
	return w.PublicKey().String(), base64.StdEncoding.EncodeToString(sig[:])
}

func TestAuthService_Connect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first connect creates the account", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := NewAuthService(repository.NewUserRepository(db), ledger.New(db), testConfig())

		addr, sig := signLogin(t)
		res, err := svc.Connect(ctx, ConnectInput{Wallet: addr, Signature: sig})
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, addr, res.User.Wallet)
		assert.False(t, res.User.Onboarded)
		assert.Zero(t, res.User.Tokens)
	})

	t.Run("reconnect resolves the same account", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := NewAuthService(repository.NewUserRepository(db), ledger.New(db), testConfig())

		addr, sig := signLogin(t)
		first, err := svc.Connect(ctx, ConnectInput{Wallet: addr, Signature: sig})
		require.NoError(t, err)

		second, err := svc.Connect(ctx, ConnectInput{Wallet: addr, Signature: sig})
		require.NoError(t, err)
		assert.False(t, second.Created)
		assert.Equal(t, first.User.ID, second.User.ID)
	})

	t.Run("wrong signature is rejected without creating an account", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		userRepo := repository.NewUserRepository(db)
		svc := NewAuthService(userRepo, ledger.New(db), testConfig())

		addr, _ := signLogin(t)
		_, otherSig := signLogin(t)

		_, err := svc.Connect(ctx, ConnectInput{Wallet: addr, Signature: otherSig})
		require.Error(t, err)
		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, "UNAUTHORIZED", appErr.Code)

		user, err := userRepo.GetByWallet(ctx, addr)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("invalid wallet address", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := NewAuthService(repository.NewUserRepository(db), ledger.New(db), testConfig())

		_, err := svc.Connect(ctx, ConnectInput{Wallet: "not-a-wallet", Signature: "x"})
		require.Error(t, err)
	})

	t.Run("referral credits the referrer once", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := NewAuthService(repository.NewUserRepository(db), ledger.New(db), testConfig())

		referrer := testutil.NewUser(t, db)
		addr, sig := signLogin(t)

		res, err := svc.Connect(ctx, ConnectInput{Wallet: addr, Signature: sig, Referrer: referrer.ID})
		require.NoError(t, err)
		assert.Equal(t, referrer.ID, res.User.ReferredBy)

		// Reconnecting with the referral link again changes nothing.
		_, err = svc.Connect(ctx, ConnectInput{Wallet: addr, Signature: sig, Referrer: referrer.ID})
		require.NoError(t, err)

		var fresh models.User
		require.NoError(t, db.First(&fresh, "id = ?", referrer.ID).Error)
		assert.Equal(t, ledger.ReferralAward, fresh.Tokens)
	})

	t.Run("unknown referrer is ignored", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := NewAuthService(repository.NewUserRepository(db), ledger.New(db), testConfig())

		addr, sig := signLogin(t)
		res, err := svc.Connect(ctx, ConnectInput{Wallet: addr, Signature: sig, Referrer: "ghost"})
		require.NoError(t, err)
		assert.Empty(t, res.User.ReferredBy)
	})
}
