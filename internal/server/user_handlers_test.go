package server

import (
	"encoding/base64"
	"net/http"
	"testing"

	"exon/internal/models"
	"exon/internal/testutil"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// blankSignedUser inserts a user with an empty profile and a known wallet
// key, returning a valid signature for profile updates.
func blankSignedUser(t *testing.T, db *gorm.DB) (*models.User, string) {
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

func TestUpdateMyProfile(t *testing.T) {
	t.Parallel()

	t.Run("signed update completes onboarding", func(t *testing.T) {
		t.Parallel()
		app, srv, db := newTestApp(t)
		user, sig := blankSignedUser(t, db)

		resp, err := app.Test(jsonRequest(t, http.MethodPut, "/api/users/me", bearerFor(t, srv, user.ID),
			map[string]any{
				"signature": sig,
				"name":      "Ada",
				"bio":       "on-chain romantic",
				"image":     "/media/i/abc/master.jpg",
				"gender":    "FEMALE",
			}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		decodeBody(t, resp, &body)
		assert.Equal(t, "Ada", body["name"])
		assert.Equal(t, true, body["onboarded"])
	})

	t.Run("unsigned update is rejected", func(t *testing.T) {
		t.Parallel()
		app, srv, db := newTestApp(t)
		user, _ := blankSignedUser(t, db)

		resp, err := app.Test(jsonRequest(t, http.MethodPut, "/api/users/me", bearerFor(t, srv, user.ID),
			map[string]any{"name": "Mallory"}))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var fresh models.User
		require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
		assert.Empty(t, fresh.Name)
	})
}

func TestSwipeEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("like and mutual like", func(t *testing.T) {
		t.Parallel()
		app, srv, db := newTestApp(t)
		a := testutil.NewUser(t, db)
		b := testutil.NewUser(t, db)

		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/users/"+b.ID+"/like", bearerFor(t, srv, a.ID), nil))
		require.NoError(t, err)
		var res struct {
			Matched bool `json:"matched"`
		}
		decodeBody(t, resp, &res)
		assert.False(t, res.Matched)

		resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/users/"+a.ID+"/like", bearerFor(t, srv, b.ID), nil))
		require.NoError(t, err)
		decodeBody(t, resp, &res)
		assert.True(t, res.Matched)
	})

	t.Run("invalid target id", func(t *testing.T) {
		t.Parallel()
		app, srv, db := newTestApp(t)
		a := testutil.NewUser(t, db)

		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/users/abc/like", bearerFor(t, srv, a.ID), nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("dislike hides the target from discover", func(t *testing.T) {
		t.Parallel()
		app, srv, db := newTestApp(t)
		a := testutil.NewUser(t, db, func(u *models.User) { u.LookingFor = "" })
		b := testutil.NewUser(t, db)

		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/users/"+b.ID+"/dislike", bearerFor(t, srv, a.ID), nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/users/discover", bearerFor(t, srv, a.ID), nil))
		require.NoError(t, err)
		var deck struct {
			Users []models.User `json:"users"`
		}
		decodeBody(t, resp, &deck)
		for _, u := range deck.Users {
			assert.NotEqual(t, b.ID, u.ID)
		}
	})
}

func TestGetMatches(t *testing.T) {
	t.Parallel()
	app, srv, db := newTestApp(t)
	a := testutil.NewUser(t, db)
	b := testutil.NewUser(t, db)

	for _, swipe := range []struct{ from, to string }{{a.ID, b.ID}, {b.ID, a.ID}} {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/users/"+swipe.to+"/like", bearerFor(t, srv, swipe.from), nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/users/matches", bearerFor(t, srv, a.ID), nil))
	require.NoError(t, err)
	var body struct {
		Users []models.User `json:"users"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Users, 1)
	assert.Equal(t, b.ID, body.Users[0].ID)
}
