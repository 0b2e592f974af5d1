package server

import (
	"io"

	"exon/internal/models"
	"exon/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest is the partial profile update body. Absent fields are
// left untouched; the signature over the login message authorizes the write.
type UpdateProfileRequest struct {
	Signature  string  `json:"signature"`
	Name       *string `json:"name"`
	Bio        *string `json:"bio"`
	Image      *string `json:"image"`
	Gender     *string `json:"gender"`
	LookingFor *string `json:"looking_for"`
}

// GetMyProfile handles GET /api/users/me.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.profileService.Get(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.profileService.Update(c.UserContext(), service.UpdateProfileInput{
		UserID:     currentUserID(c),
		Signature:  req.Signature,
		Name:       req.Name,
		Bio:        req.Bio,
		Image:      req.Image,
		Gender:     req.Gender,
		LookingFor: req.LookingFor,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UploadProfileImage handles POST /api/users/me/image. The processed image's
// URL is returned; the client submits it in a signed profile update.
func (s *Server) UploadProfileImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("An 'image' file field is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}

	stored, err := s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      currentUserID(c),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(stored)
}

// GetUserProfile handles GET /api/users/:id.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseUserIDParam(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// Discover handles GET /api/users/discover: the swipe deck.
func (s *Server) Discover(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	users, err := s.matchService.Discover(c.UserContext(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

// GetMatches handles GET /api/users/matches.
func (s *Server) GetMatches(c *fiber.Ctx) error {
	users, err := s.matchService.Matches(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

// LikeUser handles POST /api/users/:id/like.
func (s *Server) LikeUser(c *fiber.Ctx) error {
	targetID, err := s.parseUserIDParam(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.matchService.Like(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}

// DislikeUser handles POST /api/users/:id/dislike.
func (s *Server) DislikeUser(c *fiber.Ctx) error {
	targetID, err := s.parseUserIDParam(c, "id")
	if err != nil {
		return nil
	}

	if err := s.matchService.Dislike(c.UserContext(), currentUserID(c), targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
