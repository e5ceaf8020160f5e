package server

import (
	"strconv"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds parsed skip/limit query parameters.
type Pagination struct {
	Skip  int
	Limit int
}

// parsePagination extracts skip and limit. Absent values take the defaults;
// anything that is not an integer is a validation error. Range checks are
// left to the service.
func parsePagination(c *fiber.Ctx) (Pagination, error) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		return Pagination{}, err
	}
	limit, err := queryInt(c, "limit", service.DefaultPageLimit)
	if err != nil {
		return Pagination{}, err
	}
	return Pagination{Skip: skip, Limit: limit}, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(key + " must be an integer")
	}
	return n, nil
}

// parseBody decodes the JSON body into dst.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return models.NewBadRequestError("Invalid request body")
	}
	return nil
}

// currentUser returns the authenticated caller. Routes using it sit behind
// AuthRequired, so a miss means the route was wired without it.
func currentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, models.NewUnauthorizedError(middleware.CredentialsErrorMessage)
	}
	return user, nil
}
