package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"exon/internal/ledger"
	"exon/internal/models"
	"exon/internal/notifications"
	"exon/internal/repository"
	"exon/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newChatService(t *testing.T, db *gorm.DB, notifier *notifications.Notifier) *ChatService {
	t.Helper()
	return NewChatService(
		repository.NewMessageRepository(db),
		repository.NewUserRepository(db),
		ledger.New(db),
		notifier,
	)
}

func setTokens(t *testing.T, db *gorm.DB, userID string, tokens int64) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", userID).Update("tokens", tokens).Error)
}

func tokensOf(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, "id = ?", userID).Error)
	return user.Tokens
}

func TestChatService_SendMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("debits the fee and persists the message", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := newChatService(t, db, nil)

		from := testutil.NewUser(t, db)
		to := testutil.NewUser(t, db)
		setTokens(t, db, from.ID, 10)

		msg, err := svc.SendMessage(ctx, from.ID, to.ID, "gm")
		require.NoError(t, err)
		assert.Equal(t, "gm", msg.Content)
		assert.NotZero(t, msg.ID)
		assert.Equal(t, int64(5), tokensOf(t, db, from.ID))

		history, err := svc.History(ctx, from.ID, to.ID, 0, 0)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, msg.ID, history[0].ID)
	})

	t.Run("insufficient balance rejects the send", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := newChatService(t, db, nil)

		from := testutil.NewUser(t, db)
		to := testutil.NewUser(t, db)
		setTokens(t, db, from.ID, ledger.MessageFee-1)

		_, err := svc.SendMessage(ctx, from.ID, to.ID, "gm")
		require.Error(t, err)
		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, "INSUFFICIENT_TOKENS", appErr.Code)

		assert.Equal(t, ledger.MessageFee-1, tokensOf(t, db, from.ID))

		var count int64
		require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("publishes the message to the pair channel", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)

		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		svc := newChatService(t, db, notifications.NewNotifier(rdb))

		from := testutil.NewUser(t, db)
		to := testutil.NewUser(t, db)
		setTokens(t, db, from.ID, 10)

		sub := rdb.Subscribe(ctx, notifications.ChatChannel(from.ID, to.ID))
		t.Cleanup(func() { sub.Close() })
		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		_, err = svc.SendMessage(ctx, from.ID, to.ID, "gm")
		require.NoError(t, err)

		select {
		case raw := <-sub.Channel():
			var ev notifications.Event
			require.NoError(t, json.Unmarshal([]byte(raw.Payload), &ev))
			assert.Equal(t, notifications.EventNewMessage, ev.Event)
			assert.Equal(t, notifications.ChatChannel(to.ID, from.ID), ev.Channel)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for chat event")
		}
	})

	t.Run("rejects empty and oversized content", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := newChatService(t, db, nil)

		from := testutil.NewUser(t, db)
		to := testutil.NewUser(t, db)
		setTokens(t, db, from.ID, 100)

		_, err := svc.SendMessage(ctx, from.ID, to.ID, "   ")
		require.Error(t, err)

		_, err = svc.SendMessage(ctx, from.ID, to.ID, strings.Repeat("a", maxMessageLen+1))
		require.Error(t, err)

		// Neither attempt cost anything.
		assert.Equal(t, int64(100), tokensOf(t, db, from.ID))
	})

	t.Run("rejects messaging yourself", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := newChatService(t, db, nil)

		from := testutil.NewUser(t, db)
		setTokens(t, db, from.ID, 100)

		_, err := svc.SendMessage(ctx, from.ID, from.ID, "hi me")
		require.Error(t, err)
	})

	t.Run("rejects unknown recipients before debiting", func(t *testing.T) {
		t.Parallel()
		db := testutil.OpenDB(t)
		svc := newChatService(t, db, nil)

		from := testutil.NewUser(t, db)
		setTokens(t, db, from.ID, 100)

		_, err := svc.SendMessage(ctx, from.ID, "ghost", "hello?")
		require.Error(t, err)
		assert.Equal(t, int64(100), tokensOf(t, db, from.ID))
	})
}

func TestChatService_History(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newChatService(t, db, nil)

	a := testutil.NewUser(t, db)
	b := testutil.NewUser(t, db)
	setTokens(t, db, a.ID, 100)
	setTokens(t, db, b.ID, 100)

	_, err := svc.SendMessage(ctx, a.ID, b.ID, "first")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, b.ID, a.ID, "second")
	require.NoError(t, err)

	forward, err := svc.History(ctx, a.ID, b.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, forward, 2)
	assert.Equal(t, "first", forward[0].Content)

	reverse, err := svc.History(ctx, b.ID, a.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, forward, reverse)
}
