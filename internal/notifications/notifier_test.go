package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestChatChannel(t *testing.T) {
	t.Parallel()

	a := uuid.NewString()
	b := uuid.NewString()

	t.Run("symmetric for both participants", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, ChatChannel(a, b), ChatChannel(b, a))
	})

	t.Run("lower id sorts first", func(t *testing.T) {
		t.Parallel()
		low, high := a, b
		if low > high {
			low, high = high, low
		}
		assert.Equal(t, "chat-"+low+"-"+high, ChatChannel(a, b))
	})

	t.Run("parse roundtrip", func(t *testing.T) {
		t.Parallel()
		gotA, gotB, ok := ParseChatChannel(ChatChannel(a, b))
		require.True(t, ok)
		assert.ElementsMatch(t, []string{a, b}, []string{gotA, gotB})
	})

	t.Run("parse rejects malformed names", func(t *testing.T) {
		t.Parallel()
		for _, channel := range []string{"", "chat-", "chat-abc-def", "notifications:user:" + a} {
			_, _, ok := ParseChatChannel(channel)
			assert.False(t, ok, channel)
		}
	})
}

func TestUserChannel(t *testing.T) {
	t.Parallel()

	id := uuid.NewString()
	got, ok := ParseUserChannel(UserChannel(id))
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = ParseUserChannel("chat-" + id)
	assert.False(t, ok)
}

func TestNotifier_PublishChat(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rdb := newTestRedis(t)
	n := NewNotifier(rdb)

	a := uuid.NewString()
	b := uuid.NewString()

	received := make(chan [2]string, 1)
	require.NoError(t, n.StartChatSubscriber(ctx, func(channel, payload string) {
		received <- [2]string{channel, payload}
	}))
	// PSubscribe is asynchronous; give the subscription a moment to land.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, n.PublishChat(ctx, b, a, EventNewMessage, map[string]string{"content": "hello"}))

	select {
	case msg := <-received:
		assert.Equal(t, ChatChannel(a, b), msg[0])

		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg[1]), &ev))
		assert.Equal(t, EventNewMessage, ev.Event)
		assert.Equal(t, ChatChannel(a, b), ev.Channel)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chat event")
	}
}

func TestNotifier_PublishUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rdb := newTestRedis(t)
	n := NewNotifier(rdb)

	id := uuid.NewString()

	received := make(chan string, 1)
	require.NoError(t, n.StartUserSubscriber(ctx, func(channel, payload string) {
		received <- payload
	}))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, n.PublishUser(ctx, id, EventNewMatch, map[string]string{"user_id": id}))

	select {
	case payload := <-received:
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(payload), &ev))
		assert.Equal(t, EventNewMatch, ev.Event)
		assert.Equal(t, UserChannel(id), ev.Channel)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for user event")
	}
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := NewNotifier(nil)

	assert.NoError(t, n.PublishChat(ctx, "a", "b", EventNewMessage, nil))
	assert.NoError(t, n.PublishUser(ctx, "a", EventNewMatch, nil))
	assert.NoError(t, n.StartChatSubscriber(ctx, nil))
	assert.NoError(t, n.StartUserSubscriber(ctx, nil))
}
