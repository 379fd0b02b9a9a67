package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"smilegift/internal/api"
	"smilegift/internal/apiclient"
	"smilegift/internal/cache"
	"smilegift/internal/devapi"
	"smilegift/internal/gift"
	"smilegift/internal/models"
	"smilegift/internal/navigator"
	"smilegift/internal/notify"
	"smilegift/internal/pages"
	"smilegift/internal/session"
	"smilegift/internal/tokenstore"
)

const (
	iPhoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"
	desktopUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"
)

func newServer(t *testing.T) string {
	t.Helper()
	srv := devapi.NewServer(devapi.Config{JWTSecret: "cli-secret", BcryptCost: bcrypt.MinCost}, devapi.NewMemoryRepository())
	ts := httptest.NewServer(adaptor.FiberApp(srv.App()))
	t.Cleanup(ts.Close)
	return ts.URL + "/api"
}

// harness is one terminal session. The token store survives between runs
// the way the token file does between processes.
type harness struct {
	t      *testing.T
	url    string
	ua     string
	tokens tokenstore.Store
	nav    *navigator.Memory
	notes  *notify.Recorder
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newHarness(t *testing.T, url, ua string) *harness {
	return &harness{
		t:      t,
		url:    url,
		ua:     ua,
		tokens: tokenstore.NewMemoryStore(),
		nav:    navigator.NewMemory(pages.HomePath),
		notes:  notify.NewRecorder(),
	}
}

// run executes one command with fresh client state, like a new process.
func (h *harness) run(args ...string) error {
	h.t.Helper()
	h.out.Reset()
	h.errOut.Reset()

	transport := apiclient.New(h.url, h.tokens, h.nav)
	apis := api.New(transport)
	sess := session.New(apis.Auth, h.tokens, h.notes)
	transport.OnTeardown(sess.Expire)
	queries := cache.New(cache.NewMemoryBackend())
	queries.ScopeTo(sess.ViewerID)

	app := New(pages.Deps{
		API:       apis,
		Session:   sess,
		Cache:     queries,
		Navigator: h.nav,
		Notifier:  h.notes,
		UserAgent: h.ua,
	}, &h.out,
		WithErrorOutput(&h.errOut),
		WithPasswordReader(func(string) (string, error) { return "secret1", nil }),
	)
	return app.Run(context.Background(), args)
}

func (h *harness) register(username string) {
	h.t.Helper()
	require.NoError(h.t, h.run("register",
		"-username", username,
		"-email", username+"@example.com",
		"-full-name", "Test "+username,
		"-upi-id", username+"@upi",
	))
}

func (h *harness) createPost(caption string) models.Post {
	h.t.Helper()
	path := filepath.Join(h.t.TempDir(), "photo.png")
	f, err := os.Create(path)
	require.NoError(h.t, err)
	require.NoError(h.t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(h.t, f.Close())

	require.NoError(h.t, h.run("-output", "json", "create-post", "-image", path, "-caption", caption, "-tags", "sunset, beach"))
	var post models.Post
	require.NoError(h.t, json.Unmarshal(h.out.Bytes(), &post))
	return post
}

func TestRun_Usage(t *testing.T) {
	h := newHarness(t, newServer(t), iPhoneUA)

	err := h.run()
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, h.errOut.String(), "leaderboard")

	err = h.run("dance")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), `"dance"`)

	err = h.run("-output", "xml", "whoami")
	assert.ErrorIs(t, err, ErrUsage)

	err = h.run("feed", "-sort", "oldest")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestRun_RegisterWhoamiLogout(t *testing.T) {
	h := newHarness(t, newServer(t), iPhoneUA)

	assert.ErrorIs(t, h.run("whoami"), errNotLoggedIn)

	h.register("asha")
	assert.Contains(t, h.out.String(), "@asha")

	require.NoError(t, h.run("-output", "json", "whoami"))
	var me models.User
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &me))
	assert.Equal(t, "asha", me.Username)
	assert.Equal(t, "asha@example.com", me.Email)

	require.NoError(t, h.run("logout"))
	assert.ErrorIs(t, h.run("whoami"), errNotLoggedIn)

	require.NoError(t, h.run("login", "-email", "ASHA@example.com"))
	assert.Contains(t, h.out.String(), "@asha")
}

func TestRun_LoginFieldErrors(t *testing.T) {
	h := newHarness(t, newServer(t), iPhoneUA)

	err := h.run("login", "-email", "not-an-email", "-password", "x")
	_, ok := pages.AsFieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, h.errOut.String(), "email:")
	assert.Contains(t, h.errOut.String(), "password:")
}

func TestRun_PostLifecycle(t *testing.T) {
	url := newServer(t)
	author := newHarness(t, url, iPhoneUA)
	author.register("ravi")
	post := author.createPost("Golden hour")
	assert.Equal(t, []string{"sunset", "beach"}, post.Tags)

	fan := newHarness(t, url, iPhoneUA)
	fan.register("meera")

	require.NoError(t, fan.run("feed"))
	assert.Contains(t, fan.out.String(), post.ID)
	assert.Contains(t, fan.out.String(), "Golden hour")

	require.NoError(t, fan.run("-output", "json", "like", post.ID))
	var liked models.Post
	require.NoError(t, json.Unmarshal(fan.out.Bytes(), &liked))
	assert.Equal(t, 1, liked.LikesCount)
	assert.True(t, liked.IsLikedByUser)

	require.NoError(t, fan.run("comment", post.ID, "Lovely", "light"))
	assert.Contains(t, fan.out.String(), "@meera: Lovely light")

	require.Error(t, fan.run("comment", post.ID))
	n, ok := fan.notes.Last()
	require.True(t, ok)
	assert.Equal(t, pages.MsgCommentEmpty, n.Message)

	require.NoError(t, fan.run("-output", "json", "gift", post.ID, "-amount", "150", "-message", "Beautiful", "-dispatch"))
	var sent models.Gift
	require.NoError(t, json.Unmarshal(fan.out.Bytes(), &sent))
	assert.Equal(t, 150.0, sent.Amount)
	assert.Equal(t, models.GiftPending, sent.Status)
	assert.NotEqual(t, gift.ManualTransactionID, sent.TransactionID)
	require.Len(t, fan.nav.External(), 1)
	assert.Contains(t, fan.nav.External()[0], "upi://pay?pa=ravi%40upi")

	require.NoError(t, author.run("-output", "yaml", "leaderboard", "-timeframe", "allTime"))
	var board map[string]any
	require.NoError(t, yaml.Unmarshal(author.out.Bytes(), &board))
	assert.Equal(t, "allTime", board["timeframe"])
	users, ok := board["users"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, users)
}

func TestRun_GiftDesktopRecordsWithoutLink(t *testing.T) {
	url := newServer(t)
	author := newHarness(t, url, iPhoneUA)
	author.register("ravi")
	post := author.createPost("Monsoon")

	fan := newHarness(t, url, desktopUA)
	fan.register("meera")
	fan.notes.Drain()

	require.NoError(t, fan.run("-output", "json", "gift", post.ID, "-amount", "50", "-dispatch"))
	var sent models.Gift
	require.NoError(t, json.Unmarshal(fan.out.Bytes(), &sent))
	assert.Equal(t, gift.ManualTransactionID, sent.TransactionID)
	assert.Equal(t, 50.0, sent.Amount)
	assert.Empty(t, fan.nav.External())
	assert.Contains(t, fan.errOut.String(), "Payment link not opened")

	var messages []string
	for _, n := range fan.notes.Drain() {
		messages = append(messages, n.Message)
	}
	assert.Equal(t, []string{gift.MsgDesktopOnly, gift.MsgGiftSent}, messages)

	// Every gift without a dispatched link shares the placeholder id.
	other := newHarness(t, url, desktopUA)
	other.register("dev")
	require.NoError(t, other.run("gift", post.ID, "-amount", "20"))
	require.NoError(t, fan.run("gift", post.ID, "-amount", "30"))

	err := fan.run("gift", post.ID, "-amount", "abc")
	assert.Error(t, err)
}

func TestRun_ProfileAndSettings(t *testing.T) {
	h := newHarness(t, newServer(t), iPhoneUA)

	err := h.run("profile")
	assert.ErrorIs(t, err, ErrUsage)

	h.register("kiran")
	h.createPost("First light")

	require.NoError(t, h.run("profile"))
	assert.Contains(t, h.out.String(), "@kiran")
	assert.Contains(t, h.out.String(), "First light")

	require.NoError(t, h.run("-output", "json", "settings", "-bio", "Photographer", "-full-name", "Kiran Rao"))
	var updated models.User
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &updated))
	assert.Equal(t, "Photographer", updated.Bio)
	assert.Equal(t, "Kiran Rao", updated.FullName)
	assert.Equal(t, "kiran", updated.Username)

	err = h.run("profile", "nobody-here")
	assert.Error(t, err)
}
