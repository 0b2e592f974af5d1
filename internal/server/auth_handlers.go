package server

import (
	"exon/internal/middleware"
	"exon/internal/models"
	"exon/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ConnectRequest is the wallet-connect request body.
type ConnectRequest struct {
	Wallet    string `json:"wallet"`
	Signature string `json:"signature"`
	Referrer  string `json:"referrer,omitempty"`
}

// Connect handles POST /api/auth/connect. The wallet signs the configured
// login message; a valid signature yields a session token, creating the
// account on first connect.
func (s *Server) Connect(c *fiber.Ctx) error {
	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.authService.Connect(c.UserContext(), service.ConnectInput{
		Wallet:    req.Wallet,
		Signature: req.Signature,
		Referrer:  req.Referrer,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	status := fiber.StatusOK
	if res.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"token": res.Token,
		"user":  res.User,
	})
}

// IssueWSTicket handles POST /api/ws/ticket. It exchanges a valid session for
// a short-lived single-use websocket ticket.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := currentUserID(c)

	ticket, err := middleware.IssueWSTicket(c.UserContext(), s.redis, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"ticket": ticket})
}
