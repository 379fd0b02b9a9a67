// Package api maps each backend REST endpoint to a typed call.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"

	"smilegift/internal/apiclient"
	"smilegift/internal/models"
)

// ErrUserNotFound is returned when a username lookup has no match.
var ErrUserNotFound = errors.New("user not found")

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsObjectID reports whether s has the shape of a backend object id.
func IsObjectID(s string) bool {
	return objectIDPattern.MatchString(s)
}

// Transport sends one request. *apiclient.Client satisfies it.
type Transport interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
}

// Client groups the resource clients over one transport.
type Client struct {
	Auth        *AuthAPI
	Posts       *PostsAPI
	Gifts       *GiftsAPI
	Leaderboard *LeaderboardAPI
	Users       *UsersAPI
}

// New builds the resource clients over t.
func New(t Transport) *Client {
	r := &resolver{t: t}
	return &Client{
		Auth:        &AuthAPI{t: t},
		Posts:       &PostsAPI{t: t, users: r},
		Gifts:       &GiftsAPI{t: t},
		Leaderboard: &LeaderboardAPI{t: t},
		Users:       &UsersAPI{t: t, users: r},
	}
}

func get(ctx context.Context, t Transport, path string, query url.Values) (*apiclient.Response, error) {
	return t.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Query: query})
}

func send(ctx context.Context, t Transport, method, path string, body any) (*apiclient.Response, error) {
	return t.Do(ctx, apiclient.Request{Method: method, Path: path, Body: body})
}

func sendForm(ctx context.Context, t Transport, method, path string, form *apiclient.Form) (*apiclient.Response, error) {
	return t.Do(ctx, apiclient.Request{Method: method, Path: path, Form: form})
}

// decodeEnvelope decodes the body's key member into v when present, and the
// whole body otherwise. The backend wraps some resources ({"user": ...}) and
// returns others bare.
func decodeEnvelope(resp *apiclient.Response, key string, v any) error {
	body := resp.Body
	if member := gjson.GetBytes(body, key); member.IsObject() || member.IsArray() {
		body = []byte(member.Raw)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func escape(segment string) string {
	return url.PathEscape(segment)
}

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	setInt(q, "page", page)
	setInt(q, "limit", limit)
	return q
}

// resolver turns a path segment that is either an object id or a username
// into a user id. Every username-based operation goes through it.
type resolver struct {
	t Transport
}

// lookup returns the matched user for a non-id segment.
func (r *resolver) lookup(ctx context.Context, username string) (*models.User, error) {
	q := url.Values{"search": {username}, "limit": {"1"}}
	resp, err := get(ctx, r.t, "/users", q)
	if err != nil {
		return nil, err
	}
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Users) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return &out.Users[0], nil
}

// userID returns s itself when it is an object id, and the id of the first
// search match otherwise.
func (r *resolver) userID(ctx context.Context, s string) (string, error) {
	if IsObjectID(s) {
		return s, nil
	}
	u, err := r.lookup(ctx, s)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// IsNotFound reports whether err means the requested user or resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || models.IsCode(err, models.CodeNotFound)
}
