package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"smilegift/internal/models"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func validFormat(f string) bool {
	switch f {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// render writes v in the configured format. text prints the human form.
func (a *App) render(v any, text func(w io.Writer) error) error {
	switch a.format {
	case FormatJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		// yaml.v3 ignores json tags, so round-trip through JSON to keep the wire names.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(a.out)
	}
}

func displayName(u models.Author) string {
	if u.FullName != "" {
		return fmt.Sprintf("%s (@%s)", u.FullName, u.Username)
	}
	return "@" + u.Username
}

func writeUser(w io.Writer, u *models.User) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", u.ID)
	fmt.Fprintf(tw, "Username:\t@%s\n", u.Username)
	fmt.Fprintf(tw, "Name:\t%s\n", u.FullName)
	if u.Email != "" {
		fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	}
	if u.UpiID != "" {
		fmt.Fprintf(tw, "UPI ID:\t%s\n", u.UpiID)
	}
	if u.Bio != "" {
		fmt.Fprintf(tw, "Bio:\t%s\n", u.Bio)
	}
	if u.Avatar != nil {
		fmt.Fprintf(tw, "Avatar:\t%s\n", u.Avatar.URL)
	}
	return tw.Flush()
}

func writePosts(w io.Writer, posts []models.Post) error {
	if len(posts) == 0 {
		_, err := fmt.Fprintln(w, "No posts yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tLIKES\tCOMMENTS\tCAPTION")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t@%s\t%d\t%d\t%s\n", p.ID, p.Author.Username, p.LikesCount, p.CommentsCount, truncate(p.Text(), 60))
	}
	return tw.Flush()
}

func writePost(w io.Writer, p *models.Post) error {
	fmt.Fprintf(w, "%s\n", displayName(p.Author))
	fmt.Fprintf(w, "%s\n", p.Text())
	if p.Location != "" {
		fmt.Fprintf(w, "📍 %s\n", p.Location)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "#%s\n", strings.Join(p.Tags, " #"))
	}
	if p.Image != nil {
		fmt.Fprintf(w, "%s\n", p.Image.URL)
	}
	liked := ""
	if p.IsLikedByUser {
		liked = " (you liked this)"
	}
	fmt.Fprintf(w, "♥ %d%s  💬 %d  %s\n", p.LikesCount, liked, p.CommentsCount, p.CreatedAt.Format("2 Jan 2006"))
	for _, c := range p.Comments {
		fmt.Fprintf(w, "  @%s: %s\n", c.Author.Username, c.Content)
	}
	return nil
}

func writeUserBoard(w io.Writer, entries []models.LeaderboardUserEntry) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tRECEIVED\tSENT\tPOSTS\tLIKES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t@%s\t₹%.2f\t₹%.2f\t%d\t%d\n",
			e.Rank, e.User.Username, e.TotalGiftsReceived, e.TotalGiftsSent, e.PostsCount, e.LikesReceived)
	}
	return tw.Flush()
}

func writePostBoard(w io.Writer, entries []models.LeaderboardPostEntry) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPOST\tAUTHOR\tGIFTS\tAMOUNT\tLIKES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t@%s\t%d\t₹%.2f\t%d\n",
			e.Rank, e.Post.ID, e.User.Username, e.GiftsCount, e.TotalGiftAmount, e.LikesCount)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
