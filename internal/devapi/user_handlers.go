package devapi

import (
	"strings"

	"smilegift/internal/models"
	"smilegift/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func publicUsers(users []models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		u.Email = ""
		out = append(out, u)
	}
	return out
}

// ListUsers handles GET /api/users?search=&limit=
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.repo.ListUsers(c.UserContext(), c.Query("search"), leaderboardLimit(c))
	if err != nil {
		return respondWithRepoError(c, "User", err)
	}
	return c.JSON(fiber.Map{"users": publicUsers(users)})
}

// SearchUsers handles GET /api/users/search?q=
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return c.JSON(fiber.Map{"users": []models.User{}})
	}
	users, err := s.repo.ListUsers(c.UserContext(), q, 20)
	if err != nil {
		return respondWithRepoError(c, "User", err)
	}
	return c.JSON(fiber.Map{"users": publicUsers(users)})
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return nil
	}
	user, err := s.repo.GetUser(c.UserContext(), id)
	if err != nil {
		return respondWithRepoError(c, "User", err)
	}
	user.Email = ""
	return c.JSON(fiber.Map{"user": user})
}

// GetUserStats handles GET /api/users/:id/stats
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return nil
	}
	user, err := s.repo.GetUser(c.UserContext(), id)
	if err != nil {
		return respondWithRepoError(c, "User", err)
	}
	ds, err := s.repo.Snapshot(c.UserContext())
	if err != nil {
		return respondWithRepoError(c, "User", err)
	}
	return c.JSON(fiber.Map{"stats": userStats(user, ds, s.now())})
}

// UpdateProfile handles PUT /api/users/profile (multipart form).
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)
	current, err := s.repo.GetUser(c.UserContext(), userID)
	if err != nil {
		return respondWithRepoError(c, "User", err)
	}

	in := models.ProfileUpdate{
		FullName:        strings.TrimSpace(c.FormValue("fullName", current.FullName)),
		Username:        strings.TrimSpace(c.FormValue("username", current.Username)),
		Email:           strings.ToLower(strings.TrimSpace(c.FormValue("email", current.Email))),
		Bio:             strings.TrimSpace(c.FormValue("bio")),
		UpiID:           strings.TrimSpace(c.FormValue("upiId")),
		CurrentPassword: c.FormValue("currentPassword"),
		NewPassword:     c.FormValue("newPassword"),
	}
	for _, err := range []error{
		validation.ValidateFullName(in.FullName),
		validation.ValidateUsername(in.Username),
		validation.ValidateEmail(in.Email),
		validation.ValidateBio(in.Bio),
		validation.ValidateUpiID(in.UpiID),
	} {
		if err != nil {
			return respondWithError(c, fiber.StatusBadRequest, err)
		}
	}

	if in.NewPassword != "" {
		if err := s.changePassword(c, current, in); err != nil {
			return nil
		}
	}

	avatarURL, avatarID, err := s.storeUpload(c, "avatar", maxAvatarSize)
	if err != nil {
		return nil
	}

	user, err := s.repo.UpdateUser(c.UserContext(), userID, func(u *models.User) error {
		u.FullName = in.FullName
		u.Username = in.Username
		u.Email = in.Email
		u.Bio = in.Bio
		u.UpiID = in.UpiID
		if avatarURL != "" {
			u.Avatar = &models.Avatar{URL: avatarURL, PublicID: avatarID}
		}
		return nil
	})
	if err != nil {
		return respondWithRepoError(c, "Username or email", err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// changePassword verifies the current password and stores the new hash.
// On failure it writes the response and returns errResponseWritten.
func (s *Server) changePassword(c *fiber.Ctx, user *models.User, in models.ProfileUpdate) error {
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		_ = respondWithError(c, fiber.StatusBadRequest, err)
		return errResponseWritten
	}
	_, hash, err := s.repo.GetUserByEmail(c.UserContext(), user.Email)
	if err != nil {
		_ = respondWithRepoError(c, "User", err)
		return errResponseWritten
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(in.CurrentPassword)) != nil {
		_ = badRequest(c, "Current password is incorrect")
		return errResponseWritten
	}
	newHash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.config.BcryptCost)
	if err != nil {
		_ = respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		return errResponseWritten
	}
	if err := s.repo.SetPassword(c.UserContext(), user.ID, newHash); err != nil {
		_ = respondWithRepoError(c, "User", err)
		return errResponseWritten
	}
	return nil
}
