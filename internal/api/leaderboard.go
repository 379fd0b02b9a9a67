package api

import (
	"context"
	"net/url"

	"smilegift/internal/models"
)

// LeaderboardAPI covers /leaderboard.
type LeaderboardAPI struct {
	t Transport
}

func leaderboardQuery(f models.LeaderboardFilters) url.Values {
	q := url.Values{}
	setString(q, "timeframe", string(f.Timeframe))
	setString(q, "period", f.Period)
	setString(q, "sortBy", f.SortBy)
	setInt(q, "limit", f.Limit)
	return q
}

func (l *LeaderboardAPI) Users(ctx context.Context, f models.LeaderboardFilters) (*models.UserLeaderboard, error) {
	resp, err := get(ctx, l.t, "/leaderboard/users", leaderboardQuery(f))
	if err != nil {
		return nil, err
	}
	var out models.UserLeaderboard
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (l *LeaderboardAPI) Posts(ctx context.Context, f models.LeaderboardFilters) (*models.PostLeaderboard, error) {
	resp, err := get(ctx, l.t, "/leaderboard/posts", leaderboardQuery(f))
	if err != nil {
		return nil, err
	}
	var out models.PostLeaderboard
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (l *LeaderboardAPI) Trending(ctx context.Context) (*models.TrendingData, error) {
	resp, err := get(ctx, l.t, "/leaderboard/trending", nil)
	if err != nil {
		return nil, err
	}
	var out models.TrendingData
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
