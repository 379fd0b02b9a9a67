package devapi

import (
	"strings"
	"time"

	"smilegift/internal/models"
	"smilegift/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req models.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	for _, err := range []error{
		validation.ValidateUsername(req.Username),
		validation.ValidateEmail(req.Email),
		validation.ValidatePassword(req.Password),
		validation.ValidateFullName(req.FullName),
		validation.ValidateUpiID(req.UpiID),
	} {
		if err != nil {
			return respondWithError(c, fiber.StatusBadRequest, err)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		UpiID:    strings.TrimSpace(req.UpiID),
	}
	if err := s.repo.CreateUser(c.UserContext(), user, hashedPassword); err != nil {
		return respondWithRepoError(c, "User", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	user, hash, err := s.repo.GetUserByEmail(c.UserContext(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return badRequest(c, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(req.Password)); err != nil {
		return badRequest(c, "Invalid credentials")
	}

	now := s.now()
	user, err = s.repo.UpdateUser(c.UserContext(), user.ID, func(u *models.User) error {
		u.LastLogin = &now
		return nil
	})
	if err != nil {
		return respondWithRepoError(c, "User", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Me handles GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.repo.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondWithRepoError(c, "User", err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UploadAvatar handles POST /api/auth/avatar (multipart field "avatar").
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	url, id, err := s.storeUpload(c, "avatar", maxAvatarSize)
	if err != nil {
		return nil
	}
	if url == "" {
		return badRequest(c, "Avatar image is required")
	}

	user, err := s.repo.UpdateUser(c.UserContext(), currentUserID(c), func(u *models.User) error {
		u.Avatar = &models.Avatar{URL: url, PublicID: id}
		return nil
	})
	if err != nil {
		return respondWithRepoError(c, "User", err)
	}
	return c.JSON(fiber.Map{
		"message": "Avatar updated successfully",
		"user":    user,
	})
}

func (s *Server) generateToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"userId":   user.ID,
		"username": user.Username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(s.config.TokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Add(-time.Second).Unix(),
		"jti":      uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
