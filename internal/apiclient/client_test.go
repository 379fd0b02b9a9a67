package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smilegift/internal/models"
	"smilegift/internal/navigator"
	"smilegift/internal/tokenstore"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token, location string) (*Client, *tokenstore.MemoryStore, *navigator.Memory) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := tokenstore.NewMemoryStore()
	if token != "" {
		require.NoError(t, tokens.Set(context.Background(), token))
	}
	nav := navigator.NewMemory(location)
	return New(srv.URL+"/api", tokens, nav), tokens, nav
}

func TestClient_InjectsBearerAndJSON(t *testing.T) {
	var got *http.Request
	var body []byte
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}, "t1", "/")

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, client.Post(context.Background(), "/auth/login", map[string]string{"email": "a@b.com"}, &out))

	assert.True(t, out.OK)
	assert.Equal(t, "/api/auth/login", got.URL.Path)
	assert.Equal(t, "Bearer t1", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
	assert.JSONEq(t, `{"email":"a@b.com"}`, string(body))
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	var auth string
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, "", "/")

	require.NoError(t, client.Get(context.Background(), "/posts", url.Values{"sort": {"latest"}}, nil))
	assert.Empty(t, auth)
}

func TestClient_Unauthorized(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		location     string
		wantTeardown bool
	}{
		{"regular call tears down", "/posts/1/like", "/post/1", true},
		{"identity check does not", "/auth/me", "/", false},
		{"already on login does not", "/auth/login", navigator.LoginPath, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, tokens, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Token is not valid"}`))
			}, "stale", tt.location)
			hooked := 0
			client.OnTeardown(func(context.Context) { hooked++ })

			err := client.Post(context.Background(), tt.path, nil, nil)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeUnauthorized))
			assert.Equal(t, "Token is not valid", models.MessageOr(err, "fallback"))

			token, _ := tokens.Get(context.Background())
			if tt.wantTeardown {
				assert.Empty(t, token)
				assert.Equal(t, navigator.LoginPath, nav.Location())
				assert.Equal(t, 1, hooked)
			} else {
				assert.Zero(t, hooked)
				assert.Equal(t, "stale", token)
				assert.Equal(t, tt.location, nav.Location())
			}
		})
	}
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Amount too low"}`, "Amount too low"},
		{"error field", http.StatusInternalServerError, `{"error":"boom"}`, "boom"},
		{"non json", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
		{"empty", http.StatusNotFound, ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, tokens, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, "t1", "/")

			err := client.Get(context.Background(), "/posts", nil, nil)
			require.Error(t, err)

			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.message, appErr.Message)

			token, _ := tokens.Get(context.Background())
			assert.Equal(t, "t1", token, "non-401 errors never touch the session")
		})
	}
}

func TestClient_TransportErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(srv.URL, tokenstore.NewMemoryStore(), navigator.NewMemory("/"))
	err := client.Get(context.Background(), "/posts", nil, nil)
	require.Error(t, err)

	var appErr *models.AppError
	assert.False(t, errors.As(err, &appErr))
}

func TestClient_Multipart(t *testing.T) {
	var caption, tags, fileName, fileType string
	var fileBody []byte
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		caption = r.FormValue("caption")
		tags = r.FormValue("tags")
		f, h, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		fileName = h.Filename
		fileType = h.Header.Get("Content-Type")
		fileBody, _ = io.ReadAll(f)
		_, _ = w.Write([]byte(`{}`))
	}, "t1", "/")

	png := []byte("\x89PNG\r\n\x1a\n0000")
	form := NewForm().
		Field("caption", "sunset").
		Field("tags", `["sky","sea"]`).
		File(File{Field: "image", Name: "sun.png", Content: png})

	require.NoError(t, client.PostMultipart(context.Background(), "/posts", form, nil))
	assert.Equal(t, "sunset", caption)
	assert.Equal(t, `["sky","sea"]`, tags)
	assert.Equal(t, "sun.png", fileName)
	assert.Equal(t, "image/png", fileType)
	assert.Equal(t, png, fileBody)
}

func TestWithTimeout(t *testing.T) {
	client := New("http://example.invalid", tokenstore.NewMemoryStore(), navigator.NewMemory("/"),
		WithTimeout(3*time.Second))
	assert.Equal(t, 3*time.Second, client.httpClient.Timeout)

	client = New("http://example.invalid/", tokenstore.NewMemoryStore(), navigator.NewMemory("/"),
		WithTimeout(0))
	assert.Zero(t, client.httpClient.Timeout)
	assert.Equal(t, "http://example.invalid", client.BaseURL())
}
