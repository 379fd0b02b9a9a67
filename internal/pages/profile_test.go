package pages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smilegift/internal/api"
	"smilegift/internal/models"
)

func TestProfile_Load(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	alice := b.signup(t, "alice")
	alice.post(t, "First")
	alice.post(t, "Second")
	bob := b.signup(t, "bob")

	tests := []struct {
		name   string
		viewer *client
		key    string
		isSelf bool
	}{
		{name: "by username", viewer: bob, key: "alice"},
		{name: "by id", viewer: bob, key: alice.Session.User().ID},
		{name: "own profile", viewer: alice, key: "alice", isSelf: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := NewProfile(tt.viewer.Deps, tt.key).Load(ctx)
			require.NoError(t, err)
			assert.False(t, view.NotFound)
			assert.Empty(t, view.Error)
			assert.Equal(t, "alice", view.User.Username)
			assert.Equal(t, tt.isSelf, view.IsSelf)
			require.Len(t, view.Posts, 2)
			require.NotNil(t, view.Stats)
			assert.Equal(t, 2, view.Stats.PostsCount)
		})
	}
}

func TestProfile_NotFound(t *testing.T) {
	ctx := context.Background()
	c := newBackend(t).client(t)

	for _, key := range []string{"", "   ", "nobody", "0123456789abcdef01234567"} {
		view, err := NewProfile(c.Deps, key).Load(ctx)
		require.Error(t, err, key)
		assert.True(t, api.IsNotFound(err), key)
		assert.True(t, view.NotFound, key)
		assert.Empty(t, view.Error, key)
		assert.Nil(t, view.User, key)
	}
}

func TestProfile_LoadFailure(t *testing.T) {
	c := newBackend(t).client(t)
	c.API = api.New(failingTransport{})

	view, err := NewProfile(c.Deps, "alice").Load(context.Background())
	require.Error(t, err)
	assert.False(t, view.NotFound)
	assert.Equal(t, MsgProfileLoadFailed, view.Error)
}

func TestMyProfile(t *testing.T) {
	b := newBackend(t)

	guest := b.client(t)
	MyProfile(guest.Deps)
	assert.Equal(t, LoginPath, guest.nav.Location())

	alice := b.signup(t, "alice")
	MyProfile(alice.Deps)
	assert.Equal(t, UserPath(alice.Session.User().ID), alice.nav.Location())
}

func TestLeaderboard_Load(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	alice := b.signup(t, "alice")
	post := alice.post(t, "Sunset")
	bob := b.signup(t, "bob")

	flow, err := NewPostDetail(bob.Deps, post.ID).Gift(post)
	require.NoError(t, err)
	require.NoError(t, flow.Enter(120, ""))
	_, err = flow.Submit(ctx)
	require.NoError(t, err)

	page := NewLeaderboard(bob.Deps)
	require.Error(t, page.SetTimeframe("yearly"))
	require.NoError(t, page.SetTimeframe("monthly"))

	view, err := page.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TimeframeMonthly, view.Timeframe)
	require.NotEmpty(t, view.Users)
	assert.Equal(t, "alice", view.Users[0].User.Username)
	assert.Equal(t, 120.0, view.Users[0].TotalGiftsReceived)
	assert.Equal(t, 1, view.Users[0].Rank)
	require.Len(t, view.Posts, 1)
	assert.Equal(t, post.ID, view.Posts[0].Post.ID)
	assert.Equal(t, 120.0, view.Posts[0].TotalGiftAmount)

	trending, err := page.Trending(ctx)
	require.NoError(t, err)
	require.Len(t, trending.TrendingPosts, 1)
	assert.Equal(t, 1, trending.Stats.Last24Hours.GiftsCount)
}
