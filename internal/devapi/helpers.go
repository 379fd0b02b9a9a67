package devapi

import (
	"errors"
	"regexp"
	"strings"

	"smilegift/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	defaultPageLimit   = 10
	maxPaginationLimit = 100
)

// page holds parsed page/limit query parameters.
type page struct {
	Page  int
	Limit int
}

func (p page) offset() int { return (p.Page - 1) * p.Limit }

// parsePage extracts page and limit query parameters with the given default limit.
func parsePage(c *fiber.Ctx, defaultLimit int) page {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	p := c.QueryInt("page", 1)
	if p < 1 {
		p = 1
	}
	return page{Page: p, Limit: limit}
}

func paginate(p page, total int) models.Pagination {
	pages := (total + p.Limit - 1) / p.Limit
	return models.Pagination{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}
}

// errForbidden aborts an update made by someone other than the owner.
var errForbidden = errors.New("forbidden")

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

func isObjectID(s string) bool { return objectIDPattern.MatchString(s) }

// parseID extracts a route parameter that must be an object id.
// On failure it writes a 400 response and returns ok=false.
func parseID(c *fiber.Ctx, param, resource string) (string, bool) {
	id := c.Params(param)
	if !isObjectID(id) {
		_ = badRequest(c, "Invalid "+resource+" ID")
		return "", false
	}
	return id, true
}

// newObjectID returns a 24 character hex id.
func newObjectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// respondWithError writes the JSON error body clients read "message" from.
func respondWithError(c *fiber.Ctx, status int, err error) error {
	var response models.ErrorResponse

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		response = models.ErrorResponse{
			Message: appErr.Message,
			Code:    appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = models.ErrorResponse{Message: err.Error()}
	}

	return c.Status(status).JSON(response)
}

// respondWithRepoError maps repository errors onto HTTP statuses.
func respondWithRepoError(c *fiber.Ctx, resource string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return respondWithError(c, fiber.StatusNotFound, &models.AppError{
			Code:    models.CodeNotFound,
			Message: resource + " not found",
		})
	case errors.Is(err, ErrConflict):
		return respondWithError(c, fiber.StatusConflict, models.NewValidationError(resource+" already exists"))
	default:
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return respondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}

// currentUserID returns the authenticated user id, or "" on public routes.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
