// Package pages holds the page controllers of the client. A controller loads
// what its view shows and turns user actions into resource calls,
// notifications and navigation. Rendering is left to the caller.
package pages

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"time"

	"smilegift/internal/api"
	"smilegift/internal/cache"
	"smilegift/internal/models"
	"smilegift/internal/navigator"
	"smilegift/internal/notify"
	"smilegift/internal/session"
)

// Paths of the views controllers navigate to.
const (
	HomePath     = "/"
	LoginPath    = navigator.LoginPath
	SettingsPath = "/settings"
)

// PostPath is the location of a post detail view.
func PostPath(id string) string { return "/post/" + id }

// UserPath is the location of a profile view.
func UserPath(usernameOrID string) string { return "/user/" + usernameOrID }

// Staleness of the detail views. A post is always refetched on load; only
// concurrent loads share a request.
const (
	PostStale    time.Duration = 0
	ProfileStale               = 30 * time.Second
)

// ErrLoginRequired is returned by actions that need a session when there is none.
var ErrLoginRequired = errors.New("login required")

// Deps are the collaborators shared by every page.
type Deps struct {
	API       *api.Client
	Session   *session.Store
	Cache     *cache.QueryCache
	Navigator navigator.Navigator
	Notifier  notify.Notifier
	// UserAgent classifies the device for the gift flow.
	UserAgent string

	FeedPageSize     int
	FeedStale        time.Duration
	LeaderboardStale time.Duration
}

// FieldErrors maps form fields to their inline error message. A non-empty
// FieldErrors is returned as the error of a rejected form submission.
type FieldErrors map[string]string

// Add records err if it is a field validation error and reports whether it was one.
// The first message per field wins.
func (f FieldErrors) Add(err error) bool {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Field == "" {
		return false
	}
	f.Set(appErr.Field, appErr.Message)
	return true
}

// Set records msg for field unless the field already has a message.
func (f FieldErrors) Set(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for _, field := range slices.Sorted(maps.Keys(f)) {
		parts = append(parts, field+": "+f[field])
	}
	return strings.Join(parts, "; ")
}

// err returns f as an error, or nil when there is nothing to report.
func (f FieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// AsFieldErrors extracts the field errors carried by err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
