package server

import (
	"exon/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SubscribeRequest is the landing-page email capture body.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// Subscribe handles POST /api/subscribe. Resubscribing is not an error.
func (s *Server) Subscribe(c *fiber.Ctx) error {
	var req SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.subscriptionService.Subscribe(c.UserContext(), req.Email); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}
