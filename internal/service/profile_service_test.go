package service

import (
	"context"
	"encoding/base64"
	"testing"

	"exon/internal/models"
	"exon/internal/repository"
	"exon/internal/testutil"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

// newSignedUser inserts a blank-profile user whose wallet key is known, so
// tests can produce valid signatures for it.
func newSignedUser(t *testing.T, db *gorm.DB) (*models.User, string) {
	t.Helper()
	w := solana.NewWallet()
	sig, err := w.PrivateKey.Sign([]byte(testLoginMessage))
	require.NoError(t, err)

	user := testutil.NewUser(t, db, func(u *models.User) {
		u.Wallet = w.PublicKey().String()
		u.Name = ""
		u.Bio = ""
		u.Image = ""
		u.Onboarded = false
	})
	return user, base64.StdEncoding.EncodeToString(sig[:])
}

func TestProfileService_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("complete profile becomes onboarded", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := NewProfileService(repository.NewUserRepository(db), testConfig())
		user, sig := newSignedUser(t, db)

		updated, err := svc.Update(ctx, UpdateProfileInput{
			UserID:    user.ID,
			Signature: sig,
			Name:      strPtr("Ada"),
			Bio:       strPtr("on-chain romantic"),
			Image:     strPtr("/media/i/abc/master.jpg"),
			Gender:    strPtr("FEMALE"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Ada", updated.Name)
		assert.Equal(t, models.GenderFemale, updated.Gender)
		assert.True(t, updated.Onboarded)
	})

	t.Run("partial update leaves other fields and stays not onboarded", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := NewProfileService(repository.NewUserRepository(db), testConfig())
		user, sig := newSignedUser(t, db)

		updated, err := svc.Update(ctx, UpdateProfileInput{
			UserID:    user.ID,
			Signature: sig,
			Name:      strPtr("Ada"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Ada", updated.Name)
		assert.Empty(t, updated.Bio)
		assert.False(t, updated.Onboarded)
	})

	t.Run("clearing a field revokes onboarded", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := NewProfileService(repository.NewUserRepository(db), testConfig())
		user, sig := newSignedUser(t, db)

		_, err := svc.Update(ctx, UpdateProfileInput{
			UserID: user.ID, Signature: sig,
			Name: strPtr("Ada"), Bio: strPtr("bio"), Image: strPtr("img"),
		})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, UpdateProfileInput{
			UserID: user.ID, Signature: sig, Bio: strPtr(""),
		})
		require.NoError(t, err)
		assert.False(t, updated.Onboarded)
	})

	t.Run("invalid signature leaves the profile unchanged", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := NewProfileService(repository.NewUserRepository(db), testConfig())
		user, _ := newSignedUser(t, db)
		_, otherSig := signLogin(t)

		_, err := svc.Update(ctx, UpdateProfileInput{
			UserID:    user.ID,
			Signature: otherSig,
			Name:      strPtr("Mallory"),
		})
		require.Error(t, err)
		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, "UNAUTHORIZED", appErr.Code)

		var fresh models.User
		require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
		assert.Empty(t, fresh.Name)
	})

	t.Run("invalid gender value", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := NewProfileService(repository.NewUserRepository(db), testConfig())
		user, sig := newSignedUser(t, db)

		_, err := svc.Update(ctx, UpdateProfileInput{
			UserID:    user.ID,
			Signature: sig,
			Gender:    strPtr("OTHER"),
		})
		require.Error(t, err)
	})
}
