package pages

import (
	"context"
	"strings"

	"smilegift/internal/models"
	"smilegift/internal/observability"
	"smilegift/internal/validation"
)

const (
	MsgProfileUpdated      = "Profile updated successfully!"
	MsgProfileUpdateFailed = "Failed to update profile"
)

// SettingsForm is the profile settings form. The password fields are only
// looked at when ChangePassword is set.
type SettingsForm struct {
	FullName string
	Username string
	Email    string
	Bio      string
	UpiID    string

	AvatarName string
	Avatar     []byte

	ChangePassword     bool
	CurrentPassword    string
	NewPassword        string
	ConfirmNewPassword string
}

// SettingsFormFrom prefills the form with the profile of user.
func SettingsFormFrom(user *models.User) SettingsForm {
	return SettingsForm{
		FullName: user.FullName,
		Username: user.Username,
		Email:    user.Email,
		Bio:      user.Bio,
		UpiID:    user.UpiID,
	}
}

func (f SettingsForm) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.Add(validation.ValidateFullName(f.FullName))
	fe.Add(validation.ValidateUsername(strings.TrimSpace(f.Username)))
	fe.Add(validation.ValidateEmail(normalizeEmail(f.Email)))
	fe.Add(validation.ValidateBio(f.Bio))
	fe.Add(validation.ValidateUpiID(f.UpiID))
	if len(f.Avatar) > 0 {
		fe.Add(ValidateImage("avatar", f.Avatar, MaxAvatarImageSize))
	}
	if f.ChangePassword {
		for field, msg := range validation.PasswordChange(f.CurrentPassword, f.NewPassword, f.ConfirmNewPassword) {
			fe.Set(field, msg)
		}
	}
	return fe
}

// Settings controls the profile settings view.
type Settings struct {
	d Deps
}

func NewSettings(d Deps) *Settings {
	return &Settings{d: d}
}

// Form returns the prefilled form, or sends a visitor without a session to
// the login view.
func (s *Settings) Form() (SettingsForm, bool) {
	user := s.d.Session.User()
	if user == nil {
		s.d.Navigator.Navigate(LoginPath)
		return SettingsForm{}, false
	}
	return SettingsFormFrom(user), true
}

// Submit uploads a new avatar first, when one was picked, and then sends the
// profile form. The session profile follows each step. On success the view
// moves to the updated profile.
func (s *Settings) Submit(ctx context.Context, f SettingsForm) (*models.User, error) {
	if !s.d.Session.IsAuthenticated() {
		s.d.Navigator.Navigate(LoginPath)
		return nil, ErrLoginRequired
	}
	if err := f.Validate().err(); err != nil {
		return nil, err
	}

	if len(f.Avatar) > 0 {
		user, err := s.d.API.Auth.UploadAvatar(ctx, f.AvatarName, f.Avatar)
		if err != nil {
			s.d.Notifier.Error(models.MessageOr(err, MsgProfileUpdateFailed))
			return nil, err
		}
		s.d.Session.UpdateUser(models.PatchFrom(user))
	}

	in := models.ProfileUpdate{
		FullName: strings.TrimSpace(f.FullName),
		Username: strings.TrimSpace(f.Username),
		Email:    normalizeEmail(f.Email),
		Bio:      strings.TrimSpace(f.Bio),
		UpiID:    strings.TrimSpace(f.UpiID),
	}
	if f.ChangePassword {
		in.CurrentPassword = f.CurrentPassword
		in.NewPassword = f.NewPassword
	}
	user, err := s.d.API.Users.UpdateProfile(ctx, in)
	if err != nil {
		s.d.Notifier.Error(models.MessageOr(err, MsgProfileUpdateFailed))
		return nil, err
	}
	s.d.Session.UpdateUser(models.PatchFrom(user))
	if err := s.d.Cache.Invalidate(ctx, "user"); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "profile cache invalidation failed", "user_id", user.ID, "error", err)
	}

	s.d.Notifier.Success(MsgProfileUpdated)
	s.d.Navigator.Navigate(UserPath(user.Username))
	return user, nil
}
