package pages

import (
	"context"
	"strings"
	"unicode/utf8"

	"smilegift/internal/cache"
	"smilegift/internal/gift"
	"smilegift/internal/models"
	"smilegift/internal/observability"
)

// Post detail notifications.
const (
	MsgPostLoadFailed   = "Failed to load post"
	MsgLoginToLike      = "Please login to like posts"
	MsgLoginToComment   = "Please login to comment"
	MsgLoginToGift      = "Please login to send gifts"
	MsgCommentEmpty     = "Comment cannot be empty"
	MsgCommentTooLong   = "Comment cannot exceed 500 characters"
	MsgLikeFailed       = "Failed to like post"
	MsgCommentFailed    = "Failed to add comment"
	MsgPostDeleted      = "Post deleted successfully"
	MsgPostDeleteFailed = "Failed to delete post"
	MsgPostUpdated      = "Post updated successfully"
	MsgPostUpdateFailed = "Failed to update post"
)

const MaxCommentLength = 500

// PostView is the post detail view. NotFound replaces the whole view with
// Error and a way back.
type PostView struct {
	Post     *models.Post `json:"post"`
	IsOwner  bool         `json:"isOwner"`
	NotFound bool         `json:"notFound,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// PostDetail controls the view of a single post.
type PostDetail struct {
	d  Deps
	id string
}

func NewPostDetail(d Deps, id string) *PostDetail {
	return &PostDetail{d: d, id: id}
}

func (p *PostDetail) cacheKey() string { return "post:" + p.id }

// Load fetches the post through the query cache.
func (p *PostDetail) Load(ctx context.Context) (PostView, error) {
	post, err := p.post(ctx)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "post load failed", "post_id", p.id, "error", err)
		return PostView{NotFound: true, Error: MsgPostLoadFailed}, err
	}
	view := PostView{Post: post}
	if user := p.d.Session.User(); user != nil {
		view.IsOwner = user.ID == post.Author.ID
	}
	return view, nil
}

func (p *PostDetail) post(ctx context.Context) (*models.Post, error) {
	return cache.Fetch(ctx, p.d.Cache, p.cacheKey(), PostStale, func(ctx context.Context) (*models.Post, error) {
		return p.d.API.Posts.Get(ctx, p.id)
	})
}

// refetch drops the cached post and loads it again.
func (p *PostDetail) refetch(ctx context.Context) (PostView, error) {
	if err := p.d.Cache.Invalidate(ctx, p.cacheKey()); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "post cache invalidation failed", "post_id", p.id, "error", err)
	}
	return p.Load(ctx)
}

// requireLogin notifies msg and returns ErrLoginRequired without a session.
func (p *PostDetail) requireLogin(msg string) error {
	if p.d.Session.IsAuthenticated() {
		return nil
	}
	p.d.Notifier.Error(msg)
	return ErrLoginRequired
}

// ToggleLike likes or unlikes the post, then reloads it.
func (p *PostDetail) ToggleLike(ctx context.Context) (PostView, error) {
	if err := p.requireLogin(MsgLoginToLike); err != nil {
		return PostView{}, err
	}
	if _, err := p.d.API.Posts.Like(ctx, p.id); err != nil {
		p.d.Notifier.Error(models.MessageOr(err, MsgLikeFailed))
		return PostView{}, err
	}
	return p.refetch(ctx)
}

// ValidateComment checks a comment before it is sent.
func ValidateComment(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.NewFieldError("comment", MsgCommentEmpty)
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return models.NewFieldError("comment", MsgCommentTooLong)
	}
	return nil
}

// Comment adds a comment, then reloads the post.
func (p *PostDetail) Comment(ctx context.Context, content string) (PostView, error) {
	if err := p.requireLogin(MsgLoginToComment); err != nil {
		return PostView{}, err
	}
	if err := ValidateComment(content); err != nil {
		p.d.Notifier.Error(models.MessageOr(err, MsgCommentEmpty))
		return PostView{}, err
	}
	if _, err := p.d.API.Posts.AddComment(ctx, p.id, strings.TrimSpace(content)); err != nil {
		p.d.Notifier.Error(models.MessageOr(err, MsgCommentFailed))
		return PostView{}, err
	}
	return p.refetch(ctx)
}

// Comments pages through the post's comments, newest first.
func (p *PostDetail) Comments(ctx context.Context, page, limit int) (*models.CommentsPage, error) {
	return p.d.API.Posts.Comments(ctx, p.id, page, limit)
}

// Gift opens the gift flow for post. A successful gift drops the cached post.
func (p *PostDetail) Gift(post *models.Post) (*gift.Flow, error) {
	if err := p.requireLogin(MsgLoginToGift); err != nil {
		return nil, err
	}
	return gift.NewFlow(post, gift.Deps{
		Gifts:     p.d.API.Gifts,
		Navigator: p.d.Navigator,
		Notifier:  p.d.Notifier,
		UserAgent: p.d.UserAgent,
		OnSuccess: func() {
			if err := p.d.Cache.Invalidate(context.Background(), p.cacheKey()); err != nil {
				observability.GlobalLogger.Warn("post cache invalidation failed", "post_id", p.id, "error", err)
			}
		},
	}), nil
}

// Update changes the caption or location of the viewer's own post.
func (p *PostDetail) Update(ctx context.Context, in models.UpdatePostInput) (PostView, error) {
	fe := FieldErrors{}
	if in.Caption != nil {
		fe.Add(validateCaption(*in.Caption))
	}
	if in.Location != nil {
		fe.Add(validateLocation(*in.Location))
	}
	if err := fe.err(); err != nil {
		return PostView{}, err
	}
	if _, err := p.d.API.Posts.Update(ctx, p.id, in); err != nil {
		p.d.Notifier.Error(models.MessageOr(err, MsgPostUpdateFailed))
		return PostView{}, err
	}
	p.d.Notifier.Success(MsgPostUpdated)
	return p.refetch(ctx)
}

// Delete removes the post and returns to the home view.
func (p *PostDetail) Delete(ctx context.Context) error {
	if err := p.d.API.Posts.Delete(ctx, p.id); err != nil {
		p.d.Notifier.Error(MsgPostDeleteFailed)
		return err
	}
	// "post" covers both the detail entries and the feed pages.
	if err := p.d.Cache.Invalidate(ctx, "post"); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "post cache invalidation failed", "post_id", p.id, "error", err)
	}
	p.d.Notifier.Success(MsgPostDeleted)
	p.d.Navigator.Navigate(HomePath)
	return nil
}
