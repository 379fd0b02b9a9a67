package pages

import (
	"context"
	"strings"

	"smilegift/internal/api"
	"smilegift/internal/cache"
	"smilegift/internal/models"
)

// MsgProfileLoadFailed replaces the profile view when the user lookup fails
// for a reason other than a missing user.
const MsgProfileLoadFailed = "There was an error loading this user's profile. Please try again later."

// ProfilePostsLimit is the number of posts shown on a profile.
const ProfilePostsLimit = 20

// ProfileView is a user's public profile.
type ProfileView struct {
	User  *models.User      `json:"user"`
	Posts []models.Post     `json:"posts"`
	Stats *models.UserStats `json:"stats,omitempty"`
	// IsSelf is set when the viewer looks at their own profile.
	IsSelf   bool   `json:"isSelf"`
	NotFound bool   `json:"notFound,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Profile controls the profile view of a username or user id.
type Profile struct {
	d   Deps
	key string
}

func NewProfile(d Deps, usernameOrID string) *Profile {
	return &Profile{d: d, key: strings.TrimSpace(usernameOrID)}
}

// Load resolves the user, then fetches posts and stats. Posts and stats are
// only requested once the user is known.
func (p *Profile) Load(ctx context.Context) (ProfileView, error) {
	if p.key == "" {
		return ProfileView{NotFound: true}, api.ErrUserNotFound
	}

	user, err := cache.Fetch(ctx, p.d.Cache, "user:"+p.key, ProfileStale, func(ctx context.Context) (*models.User, error) {
		return p.d.API.Users.ByUsername(ctx, p.key)
	})
	switch {
	case api.IsNotFound(err):
		return ProfileView{NotFound: true}, err
	case err != nil:
		return ProfileView{Error: MsgProfileLoadFailed}, err
	}

	view := ProfileView{User: user}
	if me := p.d.Session.User(); me != nil {
		view.IsSelf = me.ID == user.ID
	}

	posts, err := cache.Fetch(ctx, p.d.Cache, "user-posts:"+p.key, ProfileStale, func(ctx context.Context) (*models.PostsPage, error) {
		return p.d.API.Posts.ByUser(ctx, user.ID, models.PostFilters{Page: 1, Limit: ProfilePostsLimit})
	})
	if err != nil {
		return view, err
	}
	view.Posts = posts.Posts

	stats, err := cache.Fetch(ctx, p.d.Cache, "user-stats:"+p.key, ProfileStale, func(ctx context.Context) (*models.UserStats, error) {
		return p.d.API.Users.Stats(ctx, user.ID)
	})
	if err != nil {
		return view, err
	}
	view.Stats = stats
	return view, nil
}

// MyProfile sends the viewer to their own profile, or to the login view
// without a session.
func MyProfile(d Deps) {
	user := d.Session.User()
	if user == nil {
		d.Navigator.Navigate(LoginPath)
		return
	}
	d.Navigator.Navigate(UserPath(user.ID))
}
