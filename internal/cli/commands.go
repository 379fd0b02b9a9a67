package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"smilegift/internal/feed"
	"smilegift/internal/gift"
	"smilegift/internal/models"
	"smilegift/internal/pages"
)

var errNotLoggedIn = errors.New("not logged in")

func runLogin(ctx context.Context, a *App, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Password (prompted when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	pw, err := a.secret(*password, "Password: ")
	if err != nil {
		return err
	}
	if err := pages.NewAuth(a.deps).Login(ctx, pages.LoginForm{Email: *email, Password: pw}); err != nil {
		return err
	}
	return a.renderMe()
}

func runRegister(ctx context.Context, a *App, args []string) error {
	fs := a.flags("register")
	form := pages.RegisterForm{}
	fs.StringVar(&form.Username, "username", "", "Username (3-30 letters, digits, underscores)")
	fs.StringVar(&form.Email, "email", "", "Email")
	fs.StringVar(&form.FullName, "full-name", "", "Full name")
	fs.StringVar(&form.UpiID, "upi-id", "", "UPI ID that receives gifts")
	fs.StringVar(&form.Password, "password", "", "Password (prompted when empty)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if form.Password == "" {
		var err error
		if form.Password, err = a.password("Password: "); err != nil {
			return err
		}
		if form.ConfirmPassword, err = a.password("Confirm password: "); err != nil {
			return err
		}
	} else {
		form.ConfirmPassword = form.Password
	}
	if err := pages.NewAuth(a.deps).Register(ctx, form); err != nil {
		return err
	}
	return a.renderMe()
}

func runLogout(ctx context.Context, a *App, _ []string) error {
	pages.NewAuth(a.deps).Logout(ctx)
	return nil
}

func runWhoami(_ context.Context, a *App, _ []string) error {
	return a.renderMe()
}

func (a *App) renderMe() error {
	user := a.deps.Session.User()
	if user == nil {
		return errNotLoggedIn
	}
	return a.render(user, func(w io.Writer) error { return writeUser(w, user) })
}

func runFeed(ctx context.Context, a *App, args []string) error {
	fs := a.flags("feed")
	sortName := fs.String("sort", string(feed.SortLatest), "latest, popular or trending")
	pageCount := fs.Int("pages", 1, "Number of pages to load")
	if err := parse(fs, args); err != nil {
		return err
	}
	sort, err := feed.ParseSort(*sortName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	home := pages.NewHome(a.deps)
	snap, err := home.SetSort(ctx, sort)
	if err != nil {
		return err
	}
	for i := 1; i < *pageCount; i++ {
		var fetched bool
		if snap, fetched, err = home.More(ctx); err != nil {
			return err
		}
		if !fetched {
			break
		}
	}

	out := struct {
		Sort    feed.Sort     `json:"sort"`
		Page    int           `json:"page"`
		HasMore bool          `json:"hasMore"`
		Posts   []models.Post `json:"posts"`
	}{snap.Sort, snap.Page, snap.HasMore, snap.Items}
	return a.render(out, func(w io.Writer) error {
		if err := writePosts(w, snap.Items); err != nil {
			return err
		}
		if snap.HasMore {
			_, err := fmt.Fprintf(w, "\nMore posts available: -pages %d\n", snap.Page+1)
			return err
		}
		return nil
	})
}

func postArg(args []string, name string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%w: %s needs a post id", ErrUsage, name)
	}
	return args[0], args[1:], nil
}

func (a *App) renderPost(view pages.PostView) error {
	return a.render(view.Post, func(w io.Writer) error { return writePost(w, view.Post) })
}

func runPost(ctx context.Context, a *App, args []string) error {
	id, _, err := postArg(args, "post")
	if err != nil {
		return err
	}
	view, err := pages.NewPostDetail(a.deps, id).Load(ctx)
	if view.NotFound {
		return fmt.Errorf("%s: %w", view.Error, err)
	}
	if err != nil {
		return err
	}
	return a.renderPost(view)
}

func runLike(ctx context.Context, a *App, args []string) error {
	id, _, err := postArg(args, "like")
	if err != nil {
		return err
	}
	view, err := pages.NewPostDetail(a.deps, id).ToggleLike(ctx)
	if err != nil {
		return err
	}
	return a.renderPost(view)
}

func runComment(ctx context.Context, a *App, args []string) error {
	id, rest, err := postArg(args, "comment")
	if err != nil {
		return err
	}
	view, err := pages.NewPostDetail(a.deps, id).Comment(ctx, strings.Join(rest, " "))
	if err != nil {
		return err
	}
	return a.renderPost(view)
}

func runGift(ctx context.Context, a *App, args []string) error {
	id, rest, err := postArg(args, "gift")
	if err != nil {
		return err
	}
	fs := a.flags("gift")
	amountText := fs.String("amount", "", fmt.Sprintf("Amount in ₹ (default %v)", gift.DefaultAmount))
	message := fs.String("message", "", "Message for the author (up to 100 characters)")
	dispatch := fs.Bool("dispatch", false, "Open the UPI payment link before recording the gift (mobile user agents only)")
	if err := parse(fs, rest); err != nil {
		return err
	}
	amount := float64(gift.DefaultAmount)
	if *amountText != "" {
		if amount, err = gift.ParseAmount(*amountText); err != nil {
			return err
		}
	}

	page := pages.NewPostDetail(a.deps, id)
	view, err := page.Load(ctx)
	if err != nil {
		return err
	}
	flow, err := page.Gift(view.Post)
	if err != nil {
		return err
	}
	if err := flow.Enter(amount, *message); err != nil {
		return err
	}
	if *dispatch {
		// A refused link still lets the gift be recorded without a transaction id.
		_, err := flow.Dispatch(ctx)
		switch {
		case errors.Is(err, gift.ErrDesktopDevice):
			fmt.Fprintf(a.errOut, "Payment link not opened: %v; recording the gift without a transaction ID\n", err)
		case err != nil:
			return err
		}
	}
	created, err := flow.Submit(ctx)
	if err != nil {
		return err
	}
	return a.render(created, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "₹%.2f to @%s (transaction %s, %s)\n",
			created.Amount, flow.Recipient().Username, created.TransactionID, created.Status)
		return err
	})
}

func runLeaderboard(ctx context.Context, a *App, args []string) error {
	fs := a.flags("leaderboard")
	timeframe := fs.String("timeframe", string(models.TimeframeWeekly), "weekly, monthly or allTime")
	trending := fs.Bool("trending", false, "Show the last day's trending posts and users instead")
	if err := parse(fs, args); err != nil {
		return err
	}
	page := pages.NewLeaderboard(a.deps)

	if *trending {
		data, err := page.Trending(ctx)
		if err != nil {
			return err
		}
		return a.render(data, func(w io.Writer) error {
			fmt.Fprintf(w, "Last 24 hours: %d gifts, ₹%.2f\n\n", data.Stats.Last24Hours.GiftsCount, data.Stats.Last24Hours.TotalAmount)
			if err := writePostBoard(w, data.TrendingPosts); err != nil {
				return err
			}
			fmt.Fprintln(w)
			return writeUserBoard(w, data.TrendingUsers)
		})
	}

	if err := page.SetTimeframe(*timeframe); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	view, err := page.Load(ctx)
	if err != nil {
		return err
	}
	return a.render(view, func(w io.Writer) error {
		fmt.Fprintf(w, "Top users (%s)\n", view.Timeframe)
		if err := writeUserBoard(w, view.Users); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nTop posts (%s)\n", view.Timeframe)
		return writePostBoard(w, view.Posts)
	})
}

func runProfile(ctx context.Context, a *App, args []string) error {
	key := ""
	if len(args) > 0 {
		key = args[0]
	} else if me := a.deps.Session.User(); me != nil {
		key = me.ID
	} else {
		return fmt.Errorf("%w: profile needs a username or id when not logged in", ErrUsage)
	}

	view, err := pages.NewProfile(a.deps, key).Load(ctx)
	switch {
	case view.NotFound:
		return fmt.Errorf("user %q not found: %w", key, err)
	case view.Error != "":
		return fmt.Errorf("%s: %w", view.Error, err)
	case err != nil:
		return err
	}
	return a.render(view, func(w io.Writer) error {
		if err := writeUser(w, view.User); err != nil {
			return err
		}
		if s := view.Stats; s != nil {
			fmt.Fprintf(w, "Gifts received: ₹%.2f  sent: ₹%.2f  posts: %d  likes: %d\n\n",
				s.TotalGiftsReceived, s.TotalGiftsSent, s.PostsCount, s.LikesReceived)
		}
		return writePosts(w, view.Posts)
	})
}

func runCreatePost(ctx context.Context, a *App, args []string) error {
	fs := a.flags("create-post")
	imagePath := fs.String("image", "", "Path to a JPEG, PNG or WebP image")
	form := pages.CreatePostForm{}
	fs.StringVar(&form.Caption, "caption", "", "Caption (up to 500 characters)")
	fs.StringVar(&form.Location, "location", "", "Location")
	fs.StringVar(&form.Tags, "tags", "", "Comma-separated tags")
	if err := parse(fs, args); err != nil {
		return err
	}

	page := pages.NewCreatePost(a.deps)
	if !page.Enter() {
		return errNotLoggedIn
	}
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		form.Image = data
		form.ImageName = filepath.Base(*imagePath)
	}
	post, err := page.Submit(ctx, form)
	if err != nil {
		return err
	}
	return a.render(post, func(w io.Writer) error { return writePost(w, post) })
}

func runSettings(ctx context.Context, a *App, args []string) error {
	page := pages.NewSettings(a.deps)
	form, ok := page.Form()
	if !ok {
		return errNotLoggedIn
	}

	fs := a.flags("settings")
	fs.StringVar(&form.FullName, "full-name", form.FullName, "Full name")
	fs.StringVar(&form.Username, "username", form.Username, "Username")
	fs.StringVar(&form.Email, "email", form.Email, "Email")
	fs.StringVar(&form.Bio, "bio", form.Bio, "Bio (up to 200 characters)")
	fs.StringVar(&form.UpiID, "upi-id", form.UpiID, "UPI ID")
	avatarPath := fs.String("avatar", "", "Path to a new avatar image")
	fs.BoolVar(&form.ChangePassword, "change-password", false, "Prompt for a new password")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *avatarPath != "" {
		data, err := os.ReadFile(*avatarPath)
		if err != nil {
			return fmt.Errorf("read avatar: %w", err)
		}
		form.Avatar = data
		form.AvatarName = filepath.Base(*avatarPath)
	}
	if form.ChangePassword {
		var err error
		if form.CurrentPassword, err = a.password("Current password: "); err != nil {
			return err
		}
		if form.NewPassword, err = a.password("New password: "); err != nil {
			return err
		}
		if form.ConfirmNewPassword, err = a.password("Confirm new password: "); err != nil {
			return err
		}
	}

	user, err := page.Submit(ctx, form)
	if err != nil {
		return err
	}
	return a.render(user, func(w io.Writer) error { return writeUser(w, user) })
}
