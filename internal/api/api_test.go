package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smilegift/internal/apiclient"
	"smilegift/internal/models"
)

// stubTransport answers requests from a route table keyed by "METHOD path".
type stubTransport struct {
	routes   map[string]string
	requests []apiclient.Request
}

func newStub(routes map[string]string) *stubTransport {
	return &stubTransport{routes: routes}
}

func (s *stubTransport) Do(_ context.Context, req apiclient.Request) (*apiclient.Response, error) {
	s.requests = append(s.requests, req)
	body, ok := s.routes[req.Method+" "+req.Path]
	if !ok {
		return nil, models.NewAPIError(http.StatusNotFound, "no route")
	}
	return &apiclient.Response{Status: http.StatusOK, Body: []byte(body)}, nil
}

func (s *stubTransport) paths() []string {
	out := make([]string, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r.Path)
	}
	return out
}

const hexID = "0123456789abcdef01234567"

func TestIsObjectID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want bool
	}{
		{hexID, true},
		{strings.ToUpper(hexID), true},
		{"0123456789abcdef0123456", false},
		{"0123456789abcdef012345678", false},
		{"0123456789abcdef0123456g", false},
		{"alice", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsObjectID(tt.in), tt.in)
	}
}

func TestUsernameResolution_RoutesByShape(t *testing.T) {
	ctx := context.Background()
	routes := map[string]string{
		"GET /users":                       `{"users":[{"_id":"` + hexID + `","username":"alice"}]}`,
		"GET /users/" + hexID:              `{"user":{"_id":"` + hexID + `","username":"alice"}}`,
		"GET /users/" + hexID + "/stats":   `{"postsCount":3,"totalGiftsReceived":120}`,
		"GET /posts/user/" + hexID:         `{"posts":[{"_id":"p1","author":{"_id":"` + hexID + `","username":"alice"}}],"pagination":{"page":1}}`,
	}

	operations := map[string]func(c *Client, s string) error{
		"user": func(c *Client, s string) error {
			u, err := c.Users.ByUsername(ctx, s)
			if err == nil {
				assert.Equal(t, "alice", u.Username)
			}
			return err
		},
		"stats": func(c *Client, s string) error {
			st, err := c.Users.StatsByUsername(ctx, s)
			if err == nil {
				assert.Equal(t, 3, st.PostsCount)
			}
			return err
		},
		"posts": func(c *Client, s string) error {
			page, err := c.Posts.ByUsername(ctx, s, models.PostFilters{})
			if err == nil {
				assert.Len(t, page.Posts, 1)
			}
			return err
		},
	}

	for name, op := range operations {
		t.Run(name+" by id", func(t *testing.T) {
			stub := newStub(routes)
			require.NoError(t, op(New(stub), hexID))
			for _, p := range stub.paths() {
				assert.NotEqual(t, "/users", p, "hex ids never hit the search path")
			}
		})

		t.Run(name+" by username", func(t *testing.T) {
			stub := newStub(routes)
			require.NoError(t, op(New(stub), "alice"))
			require.NotEmpty(t, stub.requests)
			first := stub.requests[0]
			assert.Equal(t, "/users", first.Path)
			assert.Equal(t, "alice", first.Query.Get("search"))
			assert.Equal(t, "1", first.Query.Get("limit"))
		})

		t.Run(name+" not found", func(t *testing.T) {
			stub := newStub(map[string]string{"GET /users": `{"users":[]}`})
			err := op(New(stub), "nobody")
			assert.ErrorIs(t, err, ErrUserNotFound)
			assert.True(t, IsNotFound(err))
			assert.Len(t, stub.requests, 1)
		})
	}
}

func TestPosts_LikeAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrapped", `{"message":"Post liked","post":{"_id":"p1","likesCount":5,"isLikedByUser":true}}`},
		{"bare", `{"likesCount":5,"isLikedByUser":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub(map[string]string{"POST /posts/p1/like": tt.body})
			res, err := New(stub).Posts.Like(context.Background(), "p1")
			require.NoError(t, err)
			assert.Equal(t, models.LikeResult{PostID: "p1", LikesCount: 5, IsLikedByUser: true}, *res)
		})
	}
}

func TestPosts_ListQuery(t *testing.T) {
	stub := newStub(map[string]string{"GET /posts": `{"posts":[],"pagination":{"currentPage":2,"hasNextPage":true}}`})
	page, err := New(stub).Posts.List(context.Background(), models.PostFilters{Sort: "popular", Page: 2, Limit: 10})
	require.NoError(t, err)

	q := stub.requests[0].Query
	assert.Equal(t, "popular", q.Get("sort"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, 2, page.Pagination.Page)
	assert.True(t, page.Pagination.HasNext)
}

func TestPosts_CreateSendsMultipart(t *testing.T) {
	stub := newStub(map[string]string{"POST /posts": `{"message":"created","post":{"_id":"p9","caption":"hi"}}`})
	post, err := New(stub).Posts.Create(context.Background(), models.CreatePostInput{
		ImageName: "a.png",
		Image:     []byte("img"),
		Caption:   "hi",
		Tags:      []string{"sun", "sea"},
	})
	require.NoError(t, err)
	assert.Equal(t, "p9", post.ID)

	form := stub.requests[0].Form
	require.NotNil(t, form)
	caption, _ := form.Value("caption")
	assert.Equal(t, "hi", caption)
	tags, _ := form.Value("tags")
	assert.Equal(t, `["sun","sea"]`, tags)
	_, hasLocation := form.Value("location")
	assert.False(t, hasLocation)
}

func TestPosts_AddComment(t *testing.T) {
	stub := newStub(map[string]string{
		"POST /posts/p1/comments": `{"comment":{"_id":"c1","content":"nice","author":{"_id":"u1","username":"bob"}},"commentsCount":4}`,
	})
	res, err := New(stub).Posts.AddComment(context.Background(), "p1", "nice")
	require.NoError(t, err)
	assert.Equal(t, 4, res.CommentsCount)
	assert.Equal(t, "nice", res.Comment.Content)
	assert.Equal(t, map[string]string{"content": "nice"}, stub.requests[0].Body)
}

func TestGifts(t *testing.T) {
	ctx := context.Background()
	stub := newStub(map[string]string{
		"POST /gifts":                    `{"gift":{"_id":"g1","post":"p1","amount":10,"status":"pending","transactionId":"tx"}}`,
		"GET /gifts/user/u1":             `{"gifts":[],"pagination":{"page":1}}`,
		"POST /gifts/tx/verify":          `{"_id":"g1","status":"confirmed"}`,
		"GET /gifts/user/u1/stats":       `{"sent":{"total":2,"amount":30,"average":15}}`,
	})
	c := New(stub)

	g, err := c.Gifts.Create(ctx, models.CreateGiftInput{PostID: "p1", Amount: 10, TransactionID: "tx"})
	require.NoError(t, err)
	assert.Equal(t, "p1", g.PostID)
	assert.Equal(t, models.GiftPending, g.Status)

	_, err = c.Gifts.ForUser(ctx, "u1", models.GiftsReceived, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "received", stub.requests[1].Query.Get("type"))

	g, err = c.Gifts.VerifyPayment(ctx, "tx", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.GiftConfirmed, g.Status)

	stats, err := c.Gifts.UserStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sent.Total)
}

func TestLeaderboardQuery(t *testing.T) {
	stub := newStub(map[string]string{"GET /leaderboard/users": `{"leaderboard":[{"rank":1,"user":{"_id":"u1","username":"a"},"trend":12.5}]}`})
	board, err := New(stub).Leaderboard.Users(context.Background(),
		models.LeaderboardFilters{Timeframe: models.TimeframeWeekly, Limit: 5})
	require.NoError(t, err)
	require.Len(t, board.Leaderboard, 1)
	assert.Equal(t, 12.5, board.Leaderboard[0].Trend)

	q := stub.requests[0].Query
	assert.Equal(t, "weekly", q.Get("timeframe"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.False(t, q.Has("sortBy"))
}

func TestUsers_SearchAcceptsBareArray(t *testing.T) {
	stub := newStub(map[string]string{"GET /users/search": `[{"_id":"u1","username":"al"}]`})
	users, err := New(stub).Users.Search(context.Background(), "al")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "al", stub.requests[0].Query.Get("q"))
}

func TestErrorsPropagateUnchanged(t *testing.T) {
	boom := errors.New("connection reset")
	c := New(transportFunc(func(context.Context, apiclient.Request) (*apiclient.Response, error) {
		return nil, boom
	}))
	_, err := c.Posts.Get(context.Background(), "p1")
	assert.Same(t, boom, err)
}

type transportFunc func(context.Context, apiclient.Request) (*apiclient.Response, error)

func (f transportFunc) Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error) {
	return f(ctx, req)
}
