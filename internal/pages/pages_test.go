package pages

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"smilegift/internal/api"
	"smilegift/internal/apiclient"
	"smilegift/internal/cache"
	"smilegift/internal/devapi"
	"smilegift/internal/models"
	"smilegift/internal/navigator"
	"smilegift/internal/notify"
	"smilegift/internal/session"
	"smilegift/internal/tokenstore"
)

const iPhoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"

// backend is one development server shared by several clients.
type backend struct {
	url  string
	repo *devapi.MemoryRepository
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	repo := devapi.NewMemoryRepository()
	srv := devapi.NewServer(devapi.Config{JWTSecret: "pages-secret", BcryptCost: bcrypt.MinCost}, repo)
	ts := httptest.NewServer(adaptor.FiberApp(srv.App()))
	t.Cleanup(ts.Close)
	return &backend{url: ts.URL, repo: repo}
}

// client is one process worth of client state against b.
type client struct {
	Deps
	nav   *navigator.Memory
	notes *notify.Recorder
}

func (b *backend) client(t *testing.T) *client {
	t.Helper()
	tokens := tokenstore.NewMemoryStore()
	nav := navigator.NewMemory(HomePath)
	notes := notify.NewRecorder()

	transport := apiclient.New(b.url+"/api", tokens, nav)
	apis := api.New(transport)
	sess := session.New(apis.Auth, tokens, notes)
	transport.OnTeardown(sess.Expire)
	queries := cache.New(cache.NewMemoryBackend())
	queries.ScopeTo(sess.ViewerID)

	return &client{
		Deps: Deps{
			API:       apis,
			Session:   sess,
			Cache:     queries,
			Navigator: nav,
			Notifier:  notes,
			UserAgent: iPhoneUA,
		},
		nav:   nav,
		notes: notes,
	}
}

// signup registers username and returns a signed-in client.
func (b *backend) signup(t *testing.T, username string) *client {
	t.Helper()
	c := b.client(t)
	err := NewAuth(c.Deps).Register(context.Background(), RegisterForm{
		Username:        username,
		Email:           username + "@example.com",
		FullName:        "Test " + username,
		UpiID:           username + "@upi",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	c.notes.Drain()
	return c
}

func (c *client) lastNote(t *testing.T) notify.Notification {
	t.Helper()
	n, ok := c.notes.Last()
	require.True(t, ok, "expected a notification")
	return n
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (c *client) post(t *testing.T, caption string) *models.Post {
	t.Helper()
	post, err := NewCreatePost(c.Deps).Submit(context.Background(), CreatePostForm{
		ImageName: "photo.png",
		Image:     pngBytes(t),
		Caption:   caption,
	})
	require.NoError(t, err)
	c.notes.Drain()
	return post
}

// stuckCache is a query cache backend that cannot delete entries.
type stuckCache struct {
	*cache.MemoryBackend
}

func (stuckCache) DeletePrefix(context.Context, string) error {
	return errors.New("READONLY You can't write against a read only replica.")
}

// breakInvalidation swaps c's query cache for one whose invalidations fail.
func (c *client) breakInvalidation() {
	queries := cache.New(stuckCache{cache.NewMemoryBackend()})
	queries.ScopeTo(c.Session.ViewerID)
	c.Cache = queries
}

// failingTransport fails every call as an unreachable server would.
type failingTransport struct{}

func (failingTransport) Do(context.Context, apiclient.Request) (*apiclient.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	assert.True(t, fe.Add(models.NewFieldError("email", "Email is required")))
	assert.True(t, fe.Add(models.NewFieldError("email", "Please enter a valid email address")))
	assert.False(t, fe.Add(models.NewAPIError(500, "boom")))
	assert.False(t, fe.Add(nil))
	fe.Set("caption", "Caption is required")

	assert.Equal(t, "Email is required", fe["email"])
	assert.Equal(t, "caption: Caption is required; email: Email is required", fe.Error())
	assert.NoError(t, FieldErrors{}.err())

	got, ok := AsFieldErrors(fe.err())
	require.True(t, ok)
	assert.Len(t, got, 2)
}
