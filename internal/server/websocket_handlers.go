package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketChatHandler handles WebSocket connections for real-time delivery.
// The connection is read-only for the client: messages are sent over the REST
// API and fan out here via Redis, so inbound frames are ignored apart from
// keeping the connection alive.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		// Set by AuthRequired from the single-use ticket.
		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			log.Printf("WebSocket Chat: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		if s.chatHub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.chatHub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to register user %s: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		log.Printf("WebSocket: User %s connected to chat", userID)

		go client.WritePump()
		client.ReadPump()
	})
}
