package pages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"smilegift/internal/api"
	"smilegift/internal/devapi"
	"smilegift/internal/feed"
)

func TestHome_PagesThroughSeededFeed(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	_, err := devapi.Seed(ctx, b.repo, devapi.SeedOptions{Users: 4, PostsPerUser: 3, BcryptCost: bcrypt.MinCost, Seed: 7})
	require.NoError(t, err)

	c := b.client(t)
	c.FeedPageSize = 5
	home := NewHome(c.Deps)

	view, err := home.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, view.WidgetErr)
	assert.Len(t, view.Feed.Items, 5)
	assert.True(t, view.Feed.HasMore)
	assert.LessOrEqual(t, len(view.TopGifters), feed.WidgetLimit)
	assert.NotEmpty(t, view.TopGifters)

	snap, fetched, err := home.More(ctx)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Len(t, snap.Items, 10)

	snap, _, err = home.More(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 12)
	assert.False(t, snap.HasMore)

	snap, fetched, err = home.More(ctx)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Len(t, snap.Items, 12)

	snap, err = home.SetSort(ctx, feed.SortPopular)
	require.NoError(t, err)
	assert.Equal(t, feed.SortPopular, snap.Sort)
	assert.Equal(t, 1, snap.Page)
	require.Len(t, snap.Items, 5)
	for i := 1; i < len(snap.Items); i++ {
		assert.GreaterOrEqual(t, snap.Items[i-1].LikesCount, snap.Items[i].LikesCount)
	}

	snap, err = home.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 5)
}

func TestHome_FeedFailure(t *testing.T) {
	c := newBackend(t).client(t)
	c.API = api.New(failingTransport{})

	view, err := NewHome(c.Deps).Load(context.Background())
	require.Error(t, err)
	assert.Error(t, view.Feed.Err)
	assert.Error(t, view.WidgetErr)
	assert.Empty(t, view.Feed.Items)
}
