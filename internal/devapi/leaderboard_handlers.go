package devapi

import (
	"time"

	"smilegift/internal/models"

	"github.com/gofiber/fiber/v2"
)

const defaultLeaderboardLimit = 10

func leaderboardLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("limit", defaultLeaderboardLimit)
	if limit <= 0 {
		return defaultLeaderboardLimit
	}
	if limit > maxPaginationLimit {
		return maxPaginationLimit
	}
	return limit
}

// leaderboardWindow prefers an explicit period over the timeframe.
func (s *Server) leaderboardWindow(c *fiber.Ctx) (string, time.Time, bool) {
	if period := c.Query("period"); period != "" {
		switch period {
		case "today", "week", "month", "all":
			return period, windowStart(period, s.now()), true
		}
		return "", time.Time{}, false
	}
	tf, ok := models.ParseTimeframe(c.Query("timeframe", string(models.TimeframeWeekly)))
	if !ok {
		return "", time.Time{}, false
	}
	return string(tf), windowStart(string(tf), s.now()), true
}

// UserLeaderboard handles GET /api/leaderboard/users
func (s *Server) UserLeaderboard(c *fiber.Ctx) error {
	_, since, ok := s.leaderboardWindow(c)
	if !ok {
		return badRequest(c, "Invalid timeframe")
	}
	sortBy := c.Query("sortBy", "gifts")
	switch sortBy {
	case "gifts", "posts", "likes", "activity":
	default:
		return badRequest(c, "Invalid sortBy")
	}

	ds, err := s.repo.Snapshot(c.UserContext())
	if err != nil {
		return respondWithRepoError(c, "Leaderboard", err)
	}
	return c.JSON(models.UserLeaderboard{
		Leaderboard: userLeaderboard(ds, since, sortBy, currentUserID(c), leaderboardLimit(c)),
		SortBy:      sortBy,
	})
}

// PostLeaderboard handles GET /api/leaderboard/posts
func (s *Server) PostLeaderboard(c *fiber.Ctx) error {
	window, since, ok := s.leaderboardWindow(c)
	if !ok {
		return badRequest(c, "Invalid timeframe")
	}
	ds, err := s.repo.Snapshot(c.UserContext())
	if err != nil {
		return respondWithRepoError(c, "Leaderboard", err)
	}
	return c.JSON(models.PostLeaderboard{
		Leaderboard: postLeaderboard(ds, since, currentUserID(c), leaderboardLimit(c)),
		Period:      window,
	})
}

// Trending handles GET /api/leaderboard/trending
func (s *Server) Trending(c *fiber.Ctx) error {
	ds, err := s.repo.Snapshot(c.UserContext())
	if err != nil {
		return respondWithRepoError(c, "Leaderboard", err)
	}
	now := s.now()
	viewer := currentUserID(c)

	var out models.TrendingData
	out.TrendingPosts = postLeaderboard(ds, now.Add(-day), viewer, 10)
	out.TrendingUsers = userLeaderboard(ds, now.Add(-7*day), "activity", viewer, 10)
	out.Stats.Last24Hours = windowStats(ds.Gifts, now.Add(-day))
	out.Stats.LastWeek = windowStats(ds.Gifts, now.Add(-7*day))
	return c.JSON(out)
}
