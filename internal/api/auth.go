package api

import (
	"context"
	"net/http"

	"smilegift/internal/apiclient"
	"smilegift/internal/models"
)

// AuthResult is the body of a successful login or registration.
type AuthResult struct {
	Message string       `json:"message,omitempty"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// AuthAPI covers /auth.
type AuthAPI struct {
	t Transport
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	resp, err := send(ctx, a.t, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var out AuthResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) Register(ctx context.Context, in models.RegisterInput) (*AuthResult, error) {
	resp, err := send(ctx, a.t, http.MethodPost, "/auth/register", in)
	if err != nil {
		return nil, err
	}
	var out AuthResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me calls the identity-check endpoint. The profile is nil when the body carries none.
func (a *AuthAPI) Me(ctx context.Context) (*models.User, error) {
	resp, err := get(ctx, a.t, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		User *models.User `json:"user"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// UploadAvatar sends the image as the "avatar" form file.
func (a *AuthAPI) UploadAvatar(ctx context.Context, name string, image []byte) (*models.User, error) {
	form := apiclient.NewForm().File(apiclient.File{Field: "avatar", Name: name, Content: image})
	resp, err := sendForm(ctx, a.t, http.MethodPost, "/auth/avatar", form)
	if err != nil {
		return nil, err
	}
	var out models.User
	if err := decodeEnvelope(resp, "user", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
