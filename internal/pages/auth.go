package pages

import (
	"context"
	"strings"

	"smilegift/internal/models"
	"smilegift/internal/validation"
)

// LoginForm is the login view's form.
type LoginForm struct {
	Email    string
	Password string
}

func (f LoginForm) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.Add(validation.ValidateEmail(normalizeEmail(f.Email)))
	fe.Add(validation.ValidatePassword(f.Password))
	return fe
}

// RegisterForm is the registration view's form.
type RegisterForm struct {
	Username        string
	Email           string
	FullName        string
	UpiID           string
	Password        string
	ConfirmPassword string
}

func (f RegisterForm) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.Add(validation.ValidateUsername(strings.TrimSpace(f.Username)))
	fe.Add(validation.ValidateEmail(normalizeEmail(f.Email)))
	fe.Add(validation.ValidateFullName(f.FullName))
	fe.Add(validation.ValidateUpiID(strings.TrimSpace(f.UpiID)))
	fe.Add(validation.ValidatePassword(f.Password))
	if f.Password != f.ConfirmPassword {
		fe.Set("confirmPassword", "Passwords do not match")
	}
	return fe
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Auth controls the login and registration views.
type Auth struct {
	d Deps
}

func NewAuth(d Deps) *Auth {
	return &Auth{d: d}
}

// Enter sends a signed-in user home and reports whether the form should be shown.
func (a *Auth) Enter() bool {
	if a.d.Session.IsAuthenticated() {
		a.d.Navigator.Navigate(HomePath)
		return false
	}
	return true
}

// Login validates the form, signs in and navigates home. Invalid input is
// returned as FieldErrors without a network call; server failures have
// already been notified by the session store.
func (a *Auth) Login(ctx context.Context, f LoginForm) error {
	if err := f.Validate().err(); err != nil {
		return err
	}
	if err := a.d.Session.Login(ctx, normalizeEmail(f.Email), f.Password); err != nil {
		return err
	}
	a.d.Navigator.Navigate(HomePath)
	return nil
}

// Register validates the form, creates the account and navigates home.
func (a *Auth) Register(ctx context.Context, f RegisterForm) error {
	if err := f.Validate().err(); err != nil {
		return err
	}
	err := a.d.Session.Register(ctx, models.RegisterInput{
		Username: strings.TrimSpace(f.Username),
		Email:    normalizeEmail(f.Email),
		Password: f.Password,
		FullName: strings.TrimSpace(f.FullName),
		UpiID:    strings.TrimSpace(f.UpiID),
	})
	if err != nil {
		return err
	}
	a.d.Navigator.Navigate(HomePath)
	return nil
}

// Logout ends the session and returns to the home view.
func (a *Auth) Logout(ctx context.Context) {
	a.d.Session.Logout(ctx)
	a.d.Navigator.Navigate(HomePath)
}
