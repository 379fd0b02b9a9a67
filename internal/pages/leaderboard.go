package pages

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"smilegift/internal/cache"
	"smilegift/internal/feed"
	"smilegift/internal/models"
)

// LeaderboardLimit is the number of entries per leaderboard tab.
const LeaderboardLimit = 20

// LeaderboardView holds both tabs of the leaderboard for one timeframe.
type LeaderboardView struct {
	Timeframe models.Timeframe              `json:"timeframe"`
	Users     []models.LeaderboardUserEntry `json:"users"`
	Posts     []models.LeaderboardPostEntry `json:"posts"`
}

// Leaderboard controls the ranking view.
type Leaderboard struct {
	d         Deps
	timeframe models.Timeframe
}

func NewLeaderboard(d Deps) *Leaderboard {
	if d.LeaderboardStale <= 0 {
		d.LeaderboardStale = feed.WidgetStale
	}
	return &Leaderboard{d: d, timeframe: models.TimeframeWeekly}
}

// SetTimeframe selects the aggregation window. Unknown names are rejected.
func (l *Leaderboard) SetTimeframe(name string) error {
	tf, ok := models.ParseTimeframe(name)
	if !ok {
		return fmt.Errorf("unknown timeframe %q (want weekly, monthly or allTime)", name)
	}
	l.timeframe = tf
	return nil
}

// Load fetches the user and post rankings concurrently.
func (l *Leaderboard) Load(ctx context.Context) (LeaderboardView, error) {
	filters := models.LeaderboardFilters{Timeframe: l.timeframe, Limit: LeaderboardLimit}
	view := LeaderboardView{Timeframe: l.timeframe}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		key := fmt.Sprintf("leaderboard:users:%s:%d", filters.Timeframe, filters.Limit)
		board, err := cache.Fetch(ctx, l.d.Cache, key, l.d.LeaderboardStale, func(ctx context.Context) (*models.UserLeaderboard, error) {
			return l.d.API.Leaderboard.Users(ctx, filters)
		})
		if err != nil {
			return err
		}
		view.Users = board.Leaderboard
		return nil
	})
	g.Go(func() error {
		key := fmt.Sprintf("leaderboard:posts:%s:%d", filters.Timeframe, filters.Limit)
		board, err := cache.Fetch(ctx, l.d.Cache, key, l.d.LeaderboardStale, func(ctx context.Context) (*models.PostLeaderboard, error) {
			return l.d.API.Leaderboard.Posts(ctx, filters)
		})
		if err != nil {
			return err
		}
		view.Posts = board.Leaderboard
		return nil
	})
	return view, g.Wait()
}

// Trending fetches the last day's posts and the week's most active users.
func (l *Leaderboard) Trending(ctx context.Context) (*models.TrendingData, error) {
	return cache.Fetch(ctx, l.d.Cache, "leaderboard:trending", l.d.LeaderboardStale, l.d.API.Leaderboard.Trending)
}
