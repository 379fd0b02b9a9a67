package models

import "time"

// Timeframe is the aggregation window of a leaderboard.
type Timeframe string

const (
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeAllTime Timeframe = "allTime"
)

// ParseTimeframe returns the timeframe named s and whether it is known.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch Timeframe(s) {
	case TimeframeWeekly, TimeframeMonthly, TimeframeAllTime:
		return Timeframe(s), true
	}
	return "", false
}

type LeaderboardFilters struct {
	Timeframe Timeframe
	Period    string // today, week, month, all
	SortBy    string // gifts, posts, likes, activity
	Limit     int
}

type LeaderboardUserEntry struct {
	Rank               int        `json:"rank"`
	User               User       `json:"user"`
	TotalGiftsReceived float64    `json:"totalGiftsReceived"`
	TotalGiftsSent     float64    `json:"totalGiftsSent"`
	PostsCount         int        `json:"postsCount"`
	LikesReceived      int        `json:"likesReceived"`
	ActivityScore      float64    `json:"activityScore"`
	Trend              float64    `json:"trend"`
	JoinedAt           time.Time  `json:"joinedAt"`
	LastActive         *time.Time `json:"lastActive,omitempty"`
	IsCurrentUser      bool       `json:"isCurrentUser"`
}

type LeaderboardPost struct {
	ID        string    `json:"_id"`
	Caption   string    `json:"caption,omitempty"`
	Image     Image     `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

type LeaderboardPostEntry struct {
	Rank              int             `json:"rank"`
	Post              LeaderboardPost `json:"post"`
	User              User            `json:"user"`
	LikesCount        int             `json:"likesCount"`
	GiftsCount        int             `json:"giftsCount"`
	TotalGiftAmount   float64         `json:"totalGiftAmount"`
	EngagementScore   float64         `json:"engagementScore"`
	Trend             float64         `json:"trend"`
	IsCurrentUserPost bool            `json:"isCurrentUserPost"`
}

type UserLeaderboard struct {
	Leaderboard []LeaderboardUserEntry `json:"leaderboard"`
	SortBy      string                 `json:"sortBy,omitempty"`
}

type PostLeaderboard struct {
	Leaderboard []LeaderboardPostEntry `json:"leaderboard"`
	Period      string                 `json:"period,omitempty"`
}

type WindowStats struct {
	GiftsCount  int     `json:"giftsCount"`
	TotalAmount float64 `json:"totalAmount"`
}

type TrendingData struct {
	TrendingPosts []LeaderboardPostEntry `json:"trendingPosts"`
	TrendingUsers []LeaderboardUserEntry `json:"trendingUsers"`
	Stats         struct {
		Last24Hours WindowStats `json:"last24Hours"`
		LastWeek    WindowStats `json:"lastWeek"`
	} `json:"stats"`
}
