package feed

import (
	"context"
	"fmt"
	"time"

	"smilegift/internal/cache"
	"smilegift/internal/models"
)

// Widget window.
const (
	WidgetLimit = 5
	WidgetStale = 5 * time.Minute
)

// LeaderboardLister lists ranked users.
type LeaderboardLister interface {
	Users(ctx context.Context, f models.LeaderboardFilters) (*models.UserLeaderboard, error)
}

// LeaderboardWidget shows the weekly top gifted users, independent of the feed.
type LeaderboardWidget struct {
	board   LeaderboardLister
	cache   *cache.QueryCache
	stale   time.Duration
	filters models.LeaderboardFilters
}

func NewLeaderboardWidget(board LeaderboardLister, qc *cache.QueryCache, stale time.Duration) *LeaderboardWidget {
	if stale <= 0 {
		stale = WidgetStale
	}
	return &LeaderboardWidget{
		board: board,
		cache: qc,
		stale: stale,
		filters: models.LeaderboardFilters{
			Timeframe: models.TimeframeWeekly,
			Period:    "week",
			Limit:     WidgetLimit,
		},
	}
}

// Top returns at most WidgetLimit entries.
func (w *LeaderboardWidget) Top(ctx context.Context) ([]models.LeaderboardUserEntry, error) {
	key := fmt.Sprintf("leaderboard:users:%s:%d", w.filters.Timeframe, w.filters.Limit)
	board, err := cache.Fetch(ctx, w.cache, key, w.stale, func(ctx context.Context) (*models.UserLeaderboard, error) {
		return w.board.Users(ctx, w.filters)
	})
	if err != nil {
		return nil, err
	}
	entries := board.Leaderboard
	if len(entries) > WidgetLimit {
		entries = entries[:WidgetLimit]
	}
	return entries, nil
}
