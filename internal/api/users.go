package api

import (
	"context"
	"net/http"
	"net/url"

	"smilegift/internal/apiclient"
	"smilegift/internal/models"
)

// UsersAPI covers /users.
type UsersAPI struct {
	t     Transport
	users *resolver
}

func (u *UsersAPI) Get(ctx context.Context, id string) (*models.User, error) {
	resp, err := get(ctx, u.t, "/users/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	var out models.User
	if err := decodeEnvelope(resp, "user", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile sends the profile form. Empty optional fields are left out and
// the password pair is sent only when a new password is set.
func (u *UsersAPI) UpdateProfile(ctx context.Context, in models.ProfileUpdate) (*models.User, error) {
	form := apiclient.NewForm().
		Field("fullName", in.FullName).
		Field("username", in.Username).
		Field("email", in.Email)
	if in.Bio != "" {
		form.Field("bio", in.Bio)
	}
	if in.UpiID != "" {
		form.Field("upiId", in.UpiID)
	}
	if in.NewPassword != "" {
		form.Field("currentPassword", in.CurrentPassword).Field("newPassword", in.NewPassword)
	}

	resp, err := sendForm(ctx, u.t, http.MethodPut, "/users/profile", form)
	if err != nil {
		return nil, err
	}
	var out models.User
	if err := decodeEnvelope(resp, "user", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search queries /users/search?q=.
func (u *UsersAPI) Search(ctx context.Context, query string) ([]models.User, error) {
	resp, err := get(ctx, u.t, "/users/search", url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}
	var out []models.User
	if err := decodeEnvelope(resp, "users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List is the dual-use /users listing, filtered by search.
func (u *UsersAPI) List(ctx context.Context, search string, limit int) ([]models.User, error) {
	q := url.Values{}
	setString(q, "search", search)
	setInt(q, "limit", limit)
	resp, err := get(ctx, u.t, "/users", q)
	if err != nil {
		return nil, err
	}
	var out []models.User
	if err := decodeEnvelope(resp, "users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *UsersAPI) Stats(ctx context.Context, id string) (*models.UserStats, error) {
	resp, err := get(ctx, u.t, "/users/"+escape(id)+"/stats", nil)
	if err != nil {
		return nil, err
	}
	var out models.UserStats
	if err := decodeEnvelope(resp, "stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ByUsername returns the user named by a username or an object id.
func (u *UsersAPI) ByUsername(ctx context.Context, username string) (*models.User, error) {
	if IsObjectID(username) {
		return u.Get(ctx, username)
	}
	return u.users.lookup(ctx, username)
}

// StatsByUsername returns the stats of the user named by a username or an object id.
func (u *UsersAPI) StatsByUsername(ctx context.Context, username string) (*models.UserStats, error) {
	id, err := u.users.userID(ctx, username)
	if err != nil {
		return nil, err
	}
	return u.Stats(ctx, id)
}
