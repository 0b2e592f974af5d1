package server

import (
	"exon/internal/models"
	"exon/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// SendMessageRequest is the chat message body.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// GetMessages handles GET /api/messages/:userId.
func (s *Server) GetMessages(c *fiber.Ctx) error {
	otherID, err := s.parseUserIDParam(c, "userId")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 50)
	msgs, err := s.chatService.History(c.UserContext(), currentUserID(c), otherID, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"channel":  notifications.ChatChannel(currentUserID(c), otherID),
		"messages": msgs,
	})
}

// SendMessage handles POST /api/messages/:userId. Sending costs the message
// fee; an insufficient balance rejects the message before anything persists.
func (s *Server) SendMessage(c *fiber.Ctx) error {
	otherID, err := s.parseUserIDParam(c, "userId")
	if err != nil {
		return nil
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.chatService.SendMessage(c.UserContext(), currentUserID(c), otherID, req.Content)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
