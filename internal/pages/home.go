package pages

import (
	"context"

	"golang.org/x/sync/errgroup"

	"smilegift/internal/feed"
	"smilegift/internal/models"
)

// HomeView is the feed with the top gifters widget next to it.
type HomeView struct {
	Feed       feed.Snapshot
	TopGifters []models.LeaderboardUserEntry
	// WidgetErr is the widget's load failure. The feed renders without it.
	WidgetErr error
}

// Home controls the feed view.
type Home struct {
	feed   *feed.Pager
	widget *feed.LeaderboardWidget
}

func NewHome(d Deps) *Home {
	return &Home{
		feed:   feed.NewPager(d.API.Posts, d.Cache, d.FeedPageSize, d.FeedStale),
		widget: feed.NewLeaderboardWidget(d.API.Leaderboard, d.Cache, d.LeaderboardStale),
	}
}

// Load fetches the current feed page and the widget concurrently. Only the
// feed's failure is returned.
func (h *Home) Load(ctx context.Context) (HomeView, error) {
	var view HomeView
	var g errgroup.Group
	g.Go(func() error {
		return h.feed.Load(ctx)
	})
	g.Go(func() error {
		view.TopGifters, view.WidgetErr = h.widget.Top(ctx)
		return nil
	})
	err := g.Wait()
	view.Feed = h.feed.Snapshot()
	return view, err
}

// SetSort switches the feed ordering and loads its first page.
func (h *Home) SetSort(ctx context.Context, s feed.Sort) (feed.Snapshot, error) {
	h.feed.SetSort(s)
	err := h.feed.Load(ctx)
	return h.feed.Snapshot(), err
}

// More is the end-of-feed signal. It reports whether another page was requested.
func (h *Home) More(ctx context.Context) (feed.Snapshot, bool, error) {
	fetched, err := h.feed.OnVisible(ctx)
	return h.feed.Snapshot(), fetched, err
}

// Refresh reloads the feed from its first page.
func (h *Home) Refresh(ctx context.Context) (feed.Snapshot, error) {
	err := h.feed.Refresh(ctx)
	return h.feed.Snapshot(), err
}
