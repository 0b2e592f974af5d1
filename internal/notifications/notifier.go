// Package notifications provides real-time event delivery over Redis pub/sub
// and WebSockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Event names delivered to websocket clients.
const (
	EventNewMessage = "new-message"
	EventNewMatch   = "new-match"
)

const userChannelPrefix = "notifications:user:"

// userIDLen is the length of the UUID string identifiers; chat channel names
// embed two of them, so parsing relies on the fixed width.
const userIDLen = 36

// Event is the envelope published to Redis and forwarded verbatim to clients.
type Event struct {
	Event   string `json:"event"`
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// ChatChannel derives the shared channel name for a pair of users. The lower
// ID sorts first, so both participants derive the same name regardless of
// argument order.
func ChatChannel(userA, userB string) string {
	low, high := userA, userB
	if low > high {
		low, high = high, low
	}
	return fmt.Sprintf("chat-%s-%s", low, high)
}

// ParseChatChannel recovers the two participant IDs from a chat channel name.
func ParseChatChannel(channel string) (string, string, bool) {
	rest, ok := strings.CutPrefix(channel, "chat-")
	if !ok || len(rest) != 2*userIDLen+1 || rest[userIDLen] != '-' {
		return "", "", false
	}
	return rest[:userIDLen], rest[userIDLen+1:], true
}

// UserChannel derives the Redis channel name for per-user events.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// ParseUserChannel recovers the user ID from a per-user channel name.
func ParseUserChannel(channel string) (string, bool) {
	return strings.CutPrefix(channel, userChannelPrefix)
}

// Notifier provides helpers to publish events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishChat publishes an event to the pair's chat channel.
func (n *Notifier) PublishChat(ctx context.Context, userA, userB, event string, data any) error {
	if n.rdb == nil {
		return nil
	}
	channel := ChatChannel(userA, userB)
	payload, err := json.Marshal(Event{Event: event, Channel: channel, Data: data})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// PublishUser publishes an event to a user's personal channel.
func (n *Notifier) PublishUser(ctx context.Context, userID, event string, data any) error {
	if n.rdb == nil {
		return nil
	}
	channel := UserChannel(userID)
	payload, err := json.Marshal(Event{Event: event, Channel: channel, Data: data})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// StartChatSubscriber subscribes to the chat channel pattern and calls
// onMessage for each incoming message.
func (n *Notifier) StartChatSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	return n.startSubscriber(ctx, "ChatSubscriber", "chat-*", onMessage)
}

// StartUserSubscriber subscribes to the per-user channel pattern and calls
// onMessage for each incoming message.
func (n *Notifier) StartUserSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	return n.startSubscriber(ctx, "UserSubscriber", userChannelPrefix+"*", onMessage)
}

func (n *Notifier) startSubscriber(
	ctx context.Context, name, pattern string, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, pattern)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
