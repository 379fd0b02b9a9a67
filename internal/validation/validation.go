// Package validation holds the profile field rules shared by the client forms
// and the development backend.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"smilegift/internal/models"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinFullNameLength = 2
	MinPasswordLength = 6
	MaxBioLength      = 200
	MaxUpiIDLength    = 50
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case n == 0:
		return models.NewFieldError("username", "Username is required")
	case n < MinUsernameLength:
		return models.NewFieldError("username", "Username must be at least 3 characters")
	case n > MaxUsernameLength:
		return models.NewFieldError("username", "Username cannot exceed 30 characters")
	case !usernameRegex.MatchString(username):
		return models.NewFieldError("username", "Username can only contain letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail accepts a bare addr-spec with a dotted domain.
func ValidateEmail(email string) error {
	if email == "" {
		return models.NewFieldError("email", "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return models.NewFieldError("email", "Please enter a valid email address")
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return models.NewFieldError("email", "Please enter a valid email address")
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return models.NewFieldError("password", "Password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return models.NewFieldError("password", "Password must be at least 6 characters")
	}
	return nil
}

func ValidateFullName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinFullNameLength {
		return models.NewFieldError("fullName", "Full name must be at least 2 characters")
	}
	return nil
}

func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return models.NewFieldError("bio", "Bio cannot exceed 200 characters")
	}
	return nil
}

func ValidateUpiID(upiID string) error {
	if utf8.RuneCountInString(upiID) > MaxUpiIDLength {
		return models.NewFieldError("upiId", "UPI ID cannot exceed 50 characters")
	}
	return nil
}

// PasswordChange checks an optional password change. All three fields empty
// means no change.
func PasswordChange(current, next, confirm string) map[string]string {
	if current == "" && next == "" && confirm == "" {
		return nil
	}
	if current == "" || next == "" || confirm == "" {
		const msg = "All password fields are required to change password"
		return map[string]string{"currentPassword": msg, "newPassword": msg, "confirmNewPassword": msg}
	}
	if utf8.RuneCountInString(next) < MinPasswordLength {
		return map[string]string{"newPassword": "Password must be at least 6 characters"}
	}
	if next != confirm {
		return map[string]string{"confirmNewPassword": "Passwords do not match"}
	}
	return nil
}
