package server

import (
	"exon/internal/ledger"
	"exon/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ClaimSocialRequest names the platform whose one-time mission is claimed.
type ClaimSocialRequest struct {
	Platform string `json:"platform"`
}

// walletOf resolves the authenticated user's wallet; ledger operations key on
// the wallet's unique index.
func (s *Server) walletOf(c *fiber.Ctx) (string, error) {
	user, err := s.userRepo.GetByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return "", err
	}
	return user.Wallet, nil
}

// GetTokens handles GET /api/tokens.
func (s *Server) GetTokens(c *fiber.Ctx) error {
	wallet, err := s.walletOf(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	res, err := s.ledger.Balance(c.UserContext(), wallet)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"tokens":         res.Tokens,
		"lastDailyClaim": res.LastDailyClaim,
	})
}

// ClaimDaily handles POST /api/tokens/daily. Claiming twice in one UTC day is
// not an error; the response reports alreadyClaimed instead.
func (s *Server) ClaimDaily(c *fiber.Ctx) error {
	wallet, err := s.walletOf(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	res, err := s.ledger.ClaimDaily(c.UserContext(), wallet)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":        !res.AlreadyClaimed,
		"tokens":         res.Tokens,
		"alreadyClaimed": res.AlreadyClaimed,
		"lastDailyClaim": res.LastDailyClaim,
	})
}

// ClaimSocial handles POST /api/tokens/social.
func (s *Server) ClaimSocial(c *fiber.Ctx) error {
	var req ClaimSocialRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	wallet, err := s.walletOf(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	res, err := s.ledger.ClaimSocial(c.UserContext(), wallet, req.Platform)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":        !res.AlreadyClaimed,
		"tokens":         res.Tokens,
		"alreadyClaimed": res.AlreadyClaimed,
	})
}

// GetSocialPlatforms handles GET /api/tokens/social. It lists the claimable
// platform keys so the client can render the mission checklist.
func (s *Server) GetSocialPlatforms(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"platforms": ledger.Platforms()})
}
