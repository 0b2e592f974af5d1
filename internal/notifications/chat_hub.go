package notifications

import (
	"context"
	"fmt"
	"log"
	"sync"

	"exon/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// maxConnsPerUser bounds simultaneous websocket clients per user.
const maxConnsPerUser = 4

// ChatHub fans Redis pub/sub events out to connected websocket clients. It is
// user-centric: each user may hold several clients (multi-device), and the
// recipients of a chat event are recovered from the channel name itself, so
// no explicit room join is needed.
type ChatHub struct {
	mu sync.RWMutex

	// Map: userID -> set of active Clients
	userConns map[string]map[*Client]bool
}

// Name returns a human-readable identifier for this hub.
func (h *ChatHub) Name() string { return "chat hub" }

// NewChatHub creates a new ChatHub instance
func NewChatHub() *ChatHub {
	return &ChatHub{
		userConns: make(map[string]map[*Client]bool),
	}
}

// Register registers a user's websocket connection. Returns Client or error if limits exceeded.
func (h *ChatHub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]bool)
	}
	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = true
	active := len(h.userConns[userID])
	h.mu.Unlock()

	observability.WebSocketConnections.Inc()
	log.Printf("ChatHub: Registered user %s (Active clients: %d)", userID, active)
	return client, nil
}

// UnregisterClient removes a user's websocket connection.
func (h *ChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	remaining := len(clients)
	if remaining == 0 {
		delete(h.userConns, client.UserID)
	}
	h.mu.Unlock()

	observability.WebSocketConnections.Dec()
	log.Printf("ChatHub: Unregistered client for user %s (Remaining clients: %d)", client.UserID, remaining)
}

// IsUserOnline returns true when the user has at least one active websocket client.
func (h *ChatHub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userConns[userID]
	return ok && len(clients) > 0
}

// SendToUser forwards a raw payload to every client of the given user.
func (h *ChatHub) SendToUser(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.userConns[userID] {
		client.TrySend(payload)
	}
}

// StartWiring connects the hub to Redis pub/sub: chat channels are routed to
// both participants parsed from the channel name, per-user channels to their
// owner. Payloads are forwarded verbatim.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	if err := n.StartChatSubscriber(ctx, func(channel, payload string) {
		userA, userB, ok := ParseChatChannel(channel)
		if !ok {
			log.Printf("ChatHub: Invalid channel format: %s", channel)
			return
		}
		h.SendToUser(userA, []byte(payload))
		h.SendToUser(userB, []byte(payload))
	}); err != nil {
		return err
	}

	return n.StartUserSubscriber(ctx, func(channel, payload string) {
		userID, ok := ParseUserChannel(channel)
		if !ok {
			log.Printf("ChatHub: Invalid channel format: %s", channel)
			return
		}
		h.SendToUser(userID, []byte(payload))
	})
}

// Shutdown gracefully closes all websocket connections
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"event":"server-shutdown","data":{"message":"Server is shutting down"}}`)); err != nil {
				log.Printf("failed to write shutdown message for user %s: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %s: %v", userID, err)
			}
		}
	}

	h.userConns = make(map[string]map[*Client]bool)
	return nil
}
