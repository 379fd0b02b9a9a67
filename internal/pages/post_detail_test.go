package pages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smilegift/internal/gift"
	"smilegift/internal/models"
	"smilegift/internal/notify"
)

func TestPostDetail_MissingPost(t *testing.T) {
	c := newBackend(t).client(t)

	view, err := NewPostDetail(c.Deps, "0123456789abcdef01234567").Load(context.Background())
	require.Error(t, err)
	assert.True(t, view.NotFound)
	assert.Equal(t, MsgPostLoadFailed, view.Error)
	assert.Nil(t, view.Post)
}

func TestPostDetail_ActionsRequireLogin(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	post := b.signup(t, "alice").post(t, "Sunset")
	guest := b.client(t)
	page := NewPostDetail(guest.Deps, post.ID)

	view, err := page.Load(ctx)
	require.NoError(t, err)
	assert.False(t, view.IsOwner)

	_, err = page.ToggleLike(ctx)
	assert.ErrorIs(t, err, ErrLoginRequired)
	_, err = page.Comment(ctx, "hi")
	assert.ErrorIs(t, err, ErrLoginRequired)
	_, err = page.Gift(view.Post)
	assert.ErrorIs(t, err, ErrLoginRequired)

	assert.Equal(t, []notify.Notification{
		{Level: notify.LevelError, Message: MsgLoginToLike},
		{Level: notify.LevelError, Message: MsgLoginToComment},
		{Level: notify.LevelError, Message: MsgLoginToGift},
	}, guest.notes.All())
}

func TestPostDetail_LikeAndCommentRefetch(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	post := b.signup(t, "alice").post(t, "Sunset")
	bob := b.signup(t, "bob")
	page := NewPostDetail(bob.Deps, post.ID)

	view, err := page.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Post.LikesCount)

	view, err = page.ToggleLike(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Post.LikesCount)
	assert.True(t, view.Post.IsLikedByUser)

	view, err = page.ToggleLike(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Post.LikesCount)
	assert.False(t, view.Post.IsLikedByUser)

	view, err = page.Comment(ctx, "  Lovely colours  ")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Post.CommentsCount)

	comments, err := page.Comments(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, comments.Comments, 1)
	assert.Equal(t, "Lovely colours", comments.Comments[0].Content)
	assert.Equal(t, "bob", comments.Comments[0].Author.Username)
	assert.Empty(t, bob.notes.All())
}

func TestPostDetail_SwitchingUsersDropsLikeState(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	post := b.signup(t, "alice").post(t, "Sunset")
	b.signup(t, "carol")

	c := b.signup(t, "bob")
	c.FeedStale = time.Minute
	_, err := NewPostDetail(c.Deps, post.ID).ToggleLike(ctx)
	require.NoError(t, err)

	home, err := NewHome(c.Deps).Load(ctx)
	require.NoError(t, err)
	require.Len(t, home.Feed.Items, 1)
	assert.True(t, home.Feed.Items[0].IsLikedByUser)

	auth := NewAuth(c.Deps)
	auth.Logout(ctx)
	require.NoError(t, auth.Login(ctx, LoginForm{Email: "carol@example.com", Password: "secret1"}))

	view, err := NewPostDetail(c.Deps, post.ID).Load(ctx)
	require.NoError(t, err)
	assert.False(t, view.Post.IsLikedByUser)
	assert.Equal(t, 1, view.Post.LikesCount)

	home, err = NewHome(c.Deps).Load(ctx)
	require.NoError(t, err)
	require.Len(t, home.Feed.Items, 1)
	assert.False(t, home.Feed.Items[0].IsLikedByUser)

	auth.Logout(ctx)
	home, err = NewHome(c.Deps).Load(ctx)
	require.NoError(t, err)
	require.Len(t, home.Feed.Items, 1)
	assert.False(t, home.Feed.Items[0].IsLikedByUser)
}

func TestPostDetail_LikeSurvivesInvalidationFailure(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	post := b.signup(t, "alice").post(t, "Sunset")
	bob := b.signup(t, "bob")
	bob.breakInvalidation()

	view, err := NewPostDetail(bob.Deps, post.ID).ToggleLike(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Post.LikesCount)
	assert.True(t, view.Post.IsLikedByUser)
	assert.Empty(t, bob.notes.All())
}

func TestPostDetail_CommentValidation(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	post := b.signup(t, "alice").post(t, "Sunset")
	bob := b.signup(t, "bob")
	page := NewPostDetail(bob.Deps, post.ID)

	_, err := page.Comment(ctx, "   ")
	require.Error(t, err)
	assert.Equal(t, MsgCommentEmpty, bob.lastNote(t).Message)

	_, err = page.Comment(ctx, strings.Repeat("x", MaxCommentLength+1))
	require.Error(t, err)
	assert.Equal(t, MsgCommentTooLong, bob.lastNote(t).Message)

	_, err = page.Comment(ctx, strings.Repeat("é", MaxCommentLength))
	require.NoError(t, err)
}

func TestPostDetail_GiftFlow(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	alice := b.signup(t, "alice")
	post := alice.post(t, "Sunset")
	bob := b.signup(t, "bob")
	page := NewPostDetail(bob.Deps, post.ID)

	view, err := page.Load(ctx)
	require.NoError(t, err)
	flow, err := page.Gift(view.Post)
	require.NoError(t, err)
	assert.Equal(t, "alice@upi", flow.Recipient().UpiID)

	require.NoError(t, flow.Enter(50, "Great shot"))
	link, err := flow.Dispatch(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "upi://pay?pa=alice%40upi"), link)
	assert.Equal(t, []string{link}, bob.nav.External())

	created, err := flow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.GiftPending, created.Status)
	assert.Equal(t, 50.0, created.Amount)
	assert.Len(t, created.TransactionID, 26)
	assert.Equal(t, gift.MsgGiftSent, bob.lastNote(t).Message)
	assert.Equal(t, gift.Idle, flow.State())

	stats, err := alice.API.Gifts.UserStats(ctx, alice.Session.User().ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Received.Total)
	assert.Equal(t, 50.0, stats.Received.Amount)
}

func TestPostDetail_DesktopCannotDispatch(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	post := b.signup(t, "alice").post(t, "Sunset")
	bob := b.signup(t, "bob")
	bob.UserAgent = "Mozilla/5.0 (X11; Linux x86_64)"
	page := NewPostDetail(bob.Deps, post.ID)

	view, err := page.Load(ctx)
	require.NoError(t, err)
	flow, err := page.Gift(view.Post)
	require.NoError(t, err)
	require.NoError(t, flow.Enter(20, ""))

	_, err = flow.Dispatch(ctx)
	assert.ErrorIs(t, err, gift.ErrDesktopDevice)
	assert.Empty(t, bob.nav.External())
	assert.Equal(t, gift.MsgDesktopOnly, bob.lastNote(t).Message)
}

func TestPostDetail_Delete(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	alice := b.signup(t, "alice")
	post := alice.post(t, "Sunset")
	bob := b.signup(t, "bob")

	// Only the author may delete.
	err := NewPostDetail(bob.Deps, post.ID).Delete(ctx)
	require.Error(t, err)
	assert.Equal(t, MsgPostDeleteFailed, bob.lastNote(t).Message)

	page := NewPostDetail(alice.Deps, post.ID)
	view, err := page.Load(ctx)
	require.NoError(t, err)
	assert.True(t, view.IsOwner)

	alice.nav.Navigate(PostPath(post.ID))
	require.NoError(t, page.Delete(ctx))
	assert.Equal(t, MsgPostDeleted, alice.lastNote(t).Message)
	assert.Equal(t, HomePath, alice.nav.Location())

	view, err = page.Load(ctx)
	require.Error(t, err)
	assert.True(t, view.NotFound)
}

func TestPostDetail_UpdateByOwner(t *testing.T) {
	ctx := context.Background()
	alice := newBackend(t).signup(t, "alice")
	post := alice.post(t, "Sunset")
	page := NewPostDetail(alice.Deps, post.ID)

	_, err := page.Load(ctx)
	require.NoError(t, err)

	caption := "Sunset over Goa"
	view, err := page.Update(ctx, models.UpdatePostInput{Caption: &caption})
	require.NoError(t, err)
	assert.Equal(t, caption, view.Post.Caption)
	assert.Equal(t, MsgPostUpdated, alice.lastNote(t).Message)

	empty := ""
	_, err = page.Update(ctx, models.UpdatePostInput{Caption: &empty})
	fe, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, MsgCaptionRequired, fe["caption"])
}
