package server

import (
	"errors"

	"exon/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// currentUserID returns the authenticated user's ID set by AuthRequired.
func currentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("userID").(string)
	return userID
}

// parseUserIDParam extracts a route parameter that must be a user UUID.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseUserIDParam(c *fiber.Ctx, param string) (string, error) {
	id := c.Params(param)
	if uuid.Validate(id) != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid user ID"))
		return "", errResponseWritten
	}
	return id, nil
}

// respondServiceError maps service-layer error codes to HTTP statuses and
// writes the standard error body.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "VALIDATION_ERROR":
			status = fiber.StatusBadRequest
		case "UNAUTHORIZED":
			status = fiber.StatusUnauthorized
		case "FORBIDDEN":
			status = fiber.StatusForbidden
		case "NOT_FOUND":
			status = fiber.StatusNotFound
		case "INSUFFICIENT_TOKENS":
			status = fiber.StatusPaymentRequired
		}
	}

	return models.RespondWithError(c, status, err)
}
