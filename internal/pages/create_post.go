package pages

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"unicode/utf8"

	_ "golang.org/x/image/webp"

	"smilegift/internal/models"
	"smilegift/internal/observability"
)

// Create post notifications and field messages.
const (
	MsgPostCreated       = "Post created successfully!"
	MsgPostCreateFailed  = "Failed to create post"
	MsgImageRequired     = "Please upload an image"
	MsgInvalidImageType  = "Invalid file type. Please upload a JPEG, PNG, or WebP image."
	MsgCaptionRequired   = "Caption is required"
	MsgCaptionTooLong    = "Caption cannot exceed 500 characters"
	MsgLocationTooLong   = "Location cannot exceed 100 characters"
	MsgTagsTooLong       = "Tags cannot exceed 100 characters"
	MaxCaptionLength     = 500
	MaxLocationLength    = 100
	MaxTagsLength        = 100
	MaxPostImageSize     = 5 << 20
	MaxAvatarImageSize   = 2 << 20
	postImageSizeMessage = "File size is too large. Maximum size is %dMB."
)

var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ValidateImage checks an upload's size, sniffed content type and header.
// field names the form field the error is attached to.
func ValidateImage(field string, data []byte, maxSize int) error {
	if len(data) == 0 {
		return models.NewFieldError(field, MsgImageRequired)
	}
	if !acceptedImageTypes[http.DetectContentType(data)] {
		return models.NewFieldError(field, MsgInvalidImageType)
	}
	if len(data) > maxSize {
		return models.NewFieldError(field, fmt.Sprintf(postImageSizeMessage, maxSize>>20))
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return models.NewFieldError(field, MsgInvalidImageType)
	}
	return nil
}

func validateCaption(caption string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(caption))
	switch {
	case n == 0:
		return models.NewFieldError("caption", MsgCaptionRequired)
	case n > MaxCaptionLength:
		return models.NewFieldError("caption", MsgCaptionTooLong)
	}
	return nil
}

func validateLocation(location string) error {
	if utf8.RuneCountInString(location) > MaxLocationLength {
		return models.NewFieldError("location", MsgLocationTooLong)
	}
	return nil
}

// CreatePostForm is the create post view's form. Tags is the comma-separated
// text the user typed.
type CreatePostForm struct {
	ImageName string
	Image     []byte
	Caption   string
	Location  string
	Tags      string
}

func (f CreatePostForm) Validate() FieldErrors {
	fe := FieldErrors{}
	fe.Add(ValidateImage("image", f.Image, MaxPostImageSize))
	fe.Add(validateCaption(f.Caption))
	fe.Add(validateLocation(f.Location))
	if utf8.RuneCountInString(f.Tags) > MaxTagsLength {
		fe.Set("tags", MsgTagsTooLong)
	}
	return fe
}

// SplitTags turns comma-separated text into trimmed, non-empty tags.
func SplitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// CreatePost controls the create post view.
type CreatePost struct {
	d Deps
}

func NewCreatePost(d Deps) *CreatePost {
	return &CreatePost{d: d}
}

// Enter sends a visitor without a session to the login view and reports
// whether the form should be shown.
func (c *CreatePost) Enter() bool {
	if !c.d.Session.IsAuthenticated() {
		c.d.Navigator.Navigate(LoginPath)
		return false
	}
	return true
}

// Submit validates and uploads the post. The cached feed pages are dropped
// so the home view shows the new post.
func (c *CreatePost) Submit(ctx context.Context, f CreatePostForm) (*models.Post, error) {
	if err := f.Validate().err(); err != nil {
		return nil, err
	}
	post, err := c.d.API.Posts.Create(ctx, models.CreatePostInput{
		ImageName: f.ImageName,
		Image:     f.Image,
		Caption:   strings.TrimSpace(f.Caption),
		Location:  strings.TrimSpace(f.Location),
		Tags:      SplitTags(f.Tags),
	})
	if err != nil {
		c.d.Notifier.Error(models.MessageOr(err, MsgPostCreateFailed))
		return nil, err
	}
	if err := c.d.Cache.Invalidate(ctx, "posts:"); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "feed cache invalidation failed", "post_id", post.ID, "error", err)
	}
	c.d.Notifier.Success(MsgPostCreated)
	c.d.Navigator.Navigate(HomePath)
	return post, nil
}
