package devapi

import (
	"math"
	"sort"
	"time"

	"smilegift/internal/models"
)

const day = 24 * time.Hour

// windowStart maps a timeframe or period name to the start of its window.
// The zero time means no lower bound.
func windowStart(name string, now time.Time) time.Time {
	switch name {
	case "today":
		return now.Add(-day)
	case string(models.TimeframeWeekly), "week":
		return now.Add(-7 * day)
	case string(models.TimeframeMonthly), "month":
		return now.Add(-30 * day)
	default:
		return time.Time{}
	}
}

func giftTotals(gifts []models.Gift) models.GiftTotals {
	var t models.GiftTotals
	for _, g := range gifts {
		if !countsTowardTotals(g.Status) {
			continue
		}
		t.TotalAmount += g.Amount
		t.TotalCount++
	}
	if t.TotalCount > 0 {
		t.AverageAmount = round2(t.TotalAmount / float64(t.TotalCount))
	}
	return t
}

func giftStats(userID string, gifts []models.Gift, now time.Time) models.GiftStats {
	var stats models.GiftStats
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)
	var lastMonthReceived float64

	for _, g := range gifts {
		if !countsTowardTotals(g.Status) {
			continue
		}
		sent := g.Sender != nil && g.Sender.ID == userID
		received := g.Recipient != nil && g.Recipient.ID == userID
		thisMonth := !g.CreatedAt.Before(monthStart)
		if sent {
			stats.Sent.Total++
			stats.Sent.Amount += g.Amount
			if thisMonth {
				stats.ThisMonth.Sent += g.Amount
			}
		}
		if received {
			stats.Received.Total++
			stats.Received.Amount += g.Amount
			if thisMonth {
				stats.ThisMonth.Received += g.Amount
			} else if !g.CreatedAt.Before(lastMonthStart) {
				lastMonthReceived += g.Amount
			}
		}
	}
	if stats.Sent.Total > 0 {
		stats.Sent.Average = round2(stats.Sent.Amount / float64(stats.Sent.Total))
	}
	if stats.Received.Total > 0 {
		stats.Received.Average = round2(stats.Received.Amount / float64(stats.Received.Total))
	}

	change := percentChange(stats.ThisMonth.Received, lastMonthReceived)
	stats.Trend.Percentage = math.Abs(change)
	switch {
	case change > 0:
		stats.Trend.Direction = "up"
	case change < 0:
		stats.Trend.Direction = "down"
	default:
		stats.Trend.Direction = "stable"
	}
	return stats
}

func percentChange(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return round2((current - previous) / previous * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// userLeaderboard ranks every user by sortBy over the window starting at since.
func userLeaderboard(ds *Dataset, since time.Time, sortBy, viewerID string, limit int) []models.LeaderboardUserEntry {
	byID := make(map[string]*models.LeaderboardUserEntry, len(ds.Users))
	for _, u := range ds.Users {
		u.Email = ""
		byID[u.ID] = &models.LeaderboardUserEntry{
			User:          u,
			JoinedAt:      u.CreatedAt,
			LastActive:    u.LastLogin,
			IsCurrentUser: u.ID == viewerID,
		}
	}

	for _, g := range ds.Gifts {
		if !countsTowardTotals(g.Status) || g.CreatedAt.Before(since) {
			continue
		}
		if e, ok := byID[g.Recipient.ID]; ok {
			e.TotalGiftsReceived += g.Amount
		}
		if e, ok := byID[g.Sender.ID]; ok {
			e.TotalGiftsSent += g.Amount
		}
	}
	for _, p := range ds.Posts {
		e, ok := byID[p.Author.ID]
		if !ok {
			continue
		}
		if !p.CreatedAt.Before(since) {
			e.PostsCount++
		}
		for _, at := range ds.Likes[p.ID] {
			if !at.Before(since) {
				e.LikesReceived++
			}
		}
	}

	entries := make([]models.LeaderboardUserEntry, 0, len(byID))
	for _, e := range byID {
		e.ActivityScore = round2(e.TotalGiftsReceived + e.TotalGiftsSent + float64(e.PostsCount*10+e.LikesReceived*2))
		entries = append(entries, *e)
	}

	key := func(e *models.LeaderboardUserEntry) float64 {
		switch sortBy {
		case "posts":
			return float64(e.PostsCount)
		case "likes":
			return float64(e.LikesReceived)
		case "activity":
			return e.ActivityScore
		default:
			return e.TotalGiftsReceived
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ki, kj := key(&entries[i]), key(&entries[j])
		if ki != kj {
			return ki > kj
		}
		return entries[i].User.Username < entries[j].User.Username
	})

	return rankUsers(entries, limit)
}

func rankUsers(entries []models.LeaderboardUserEntry, limit int) []models.LeaderboardUserEntry {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// postLeaderboard ranks posts by gift amount received in the window, then likes.
func postLeaderboard(ds *Dataset, since time.Time, viewerID string, limit int) []models.LeaderboardPostEntry {
	users := make(map[string]models.User, len(ds.Users))
	for _, u := range ds.Users {
		u.Email = ""
		users[u.ID] = u
	}

	byID := make(map[string]*models.LeaderboardPostEntry, len(ds.Posts))
	for _, p := range ds.Posts {
		e := &models.LeaderboardPostEntry{
			Post: models.LeaderboardPost{
				ID:        p.ID,
				Caption:   p.Caption,
				CreatedAt: p.CreatedAt,
			},
			User:              users[p.Author.ID],
			IsCurrentUserPost: p.Author.ID == viewerID,
		}
		if p.Image != nil {
			e.Post.Image = *p.Image
		}
		for _, at := range ds.Likes[p.ID] {
			if !at.Before(since) {
				e.LikesCount++
			}
		}
		e.EngagementScore = float64(e.LikesCount + 2*p.CommentsCount)
		byID[p.ID] = e
	}
	for _, g := range ds.Gifts {
		if !countsTowardTotals(g.Status) || g.CreatedAt.Before(since) {
			continue
		}
		if e, ok := byID[g.PostID]; ok {
			e.GiftsCount++
			e.TotalGiftAmount += g.Amount
		}
	}

	entries := make([]models.LeaderboardPostEntry, 0, len(byID))
	for _, e := range byID {
		e.EngagementScore = round2(e.EngagementScore + e.TotalGiftAmount/10)
		entries = append(entries, *e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalGiftAmount != b.TotalGiftAmount {
			return a.TotalGiftAmount > b.TotalGiftAmount
		}
		if a.LikesCount != b.LikesCount {
			return a.LikesCount > b.LikesCount
		}
		return a.Post.CreatedAt.After(b.Post.CreatedAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func windowStats(gifts []models.Gift, since time.Time) models.WindowStats {
	var w models.WindowStats
	for _, g := range gifts {
		if countsTowardTotals(g.Status) && !g.CreatedAt.Before(since) {
			w.GiftsCount++
			w.TotalAmount += g.Amount
		}
	}
	return w
}

func userStats(user *models.User, ds *Dataset, now time.Time) models.UserStats {
	stats := models.UserStats{
		TotalGiftsReceived: user.TotalGiftsReceived,
		TotalGiftsSent:     user.TotalGiftsSent,
		PostsCount:         user.PostsCount,
		LikesReceived:      user.LikesReceived,
	}

	for _, e := range userLeaderboard(ds, time.Time{}, "gifts", "", 0) {
		if e.User.ID == user.ID {
			rank := e.Rank
			stats.Rank = &rank
			break
		}
	}

	var trend models.GiftTrend
	weekAgo, twoWeeksAgo := now.Add(-7*day), now.Add(-14*day)
	for _, g := range ds.Gifts {
		if g.Recipient == nil || g.Recipient.ID != user.ID || !countsTowardTotals(g.Status) {
			continue
		}
		switch {
		case !g.CreatedAt.Before(weekAgo):
			trend.ThisWeek += g.Amount
		case !g.CreatedAt.Before(twoWeeksAgo):
			trend.LastWeek += g.Amount
		}
	}
	trend.Change = percentChange(trend.ThisWeek, trend.LastWeek)
	stats.GiftTrend = &trend

	if user.PostsCount > 0 {
		var comments int
		var giftsOnPosts float64
		own := make(map[string]bool)
		for _, p := range ds.Posts {
			if p.Author.ID == user.ID {
				own[p.ID] = true
				comments += p.CommentsCount
			}
		}
		for _, g := range ds.Gifts {
			if own[g.PostID] && countsTowardTotals(g.Status) {
				giftsOnPosts += g.Amount
			}
		}
		n := float64(user.PostsCount)
		stats.PostPerformance = &models.PostPerformance{
			AverageLikes:    round2(float64(user.LikesReceived) / n),
			AverageGifts:    round2(giftsOnPosts / n),
			TotalEngagement: float64(user.LikesReceived+comments) + giftsOnPosts,
		}
	}
	return stats
}
