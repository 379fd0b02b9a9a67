package devapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"smilegift/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	maxImageSize  = 5 * 1024 * 1024
	maxAvatarSize = 2 * 1024 * 1024
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error).
var errResponseWritten = errors.New("response already written")

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// storeUpload saves the multipart file in field and returns its public URL
// and media id. A missing file yields empty strings and no error.
// On failure it writes the response and returns errResponseWritten.
func (s *Server) storeUpload(c *fiber.Ctx, field string, maxSize int64) (string, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", "", nil
	}
	if fh.Size > maxSize {
		_ = badRequest(c, fmt.Sprintf("File size is too large. Maximum size is %dMB.", maxSize/(1024*1024)))
		return "", "", errResponseWritten
	}

	f, err := fh.Open()
	if err != nil {
		_ = respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		return "", "", errResponseWritten
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		_ = respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		return "", "", errResponseWritten
	}

	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		_ = badRequest(c, "Invalid file type. Please upload a JPEG, PNG, or WebP image.")
		return "", "", errResponseWritten
	}

	id := newObjectID()
	if err := s.repo.SaveMedia(c.UserContext(), id, contentType, data); err != nil {
		_ = respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		return "", "", errResponseWritten
	}
	return c.BaseURL() + "/media/" + id, id, nil
}

// GetMedia handles GET /media/:id
func (s *Server) GetMedia(c *fiber.Ctx) error {
	contentType, data, err := s.repo.GetMedia(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondWithRepoError(c, "Media", err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(data)
}
