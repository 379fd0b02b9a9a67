package models

import (
	"encoding/json"
	"time"
)

// Author is the normalized author of a post or comment.
type Author struct {
	ID       string  `json:"_id"`
	Username string  `json:"username"`
	FullName string  `json:"fullName,omitempty"`
	Avatar   *Avatar `json:"avatar,omitempty"`
	UpiID    string  `json:"upiId,omitempty"`
}

func (a *Author) empty() bool {
	return a == nil || (a.ID == "" && a.Username == "")
}

// fill copies the fields a lacks from other.
func (a *Author) fill(other *Author) {
	if other == nil {
		return
	}
	if a.ID == "" {
		a.ID = other.ID
	}
	if a.Username == "" {
		a.Username = other.Username
	}
	if a.FullName == "" {
		a.FullName = other.FullName
	}
	if a.Avatar == nil {
		a.Avatar = other.Avatar
	}
	if a.UpiID == "" {
		a.UpiID = other.UpiID
	}
}

type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
}

type Comment struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is a shared image post. Author is resolved once at decode time from the
// current "author" field, falling back to the legacy "user" field.
type Post struct {
	ID            string    `json:"_id"`
	Author        Author    `json:"author"`
	Title         string    `json:"title,omitempty"`
	Content       string    `json:"content,omitempty"`
	Caption       string    `json:"caption,omitempty"`
	Location      string    `json:"location,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Image         *Image    `json:"image,omitempty"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	IsLikedByUser bool      `json:"isLikedByUser"`
	Comments      []Comment `json:"comments,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (p *Post) UnmarshalJSON(data []byte) error {
	type plain Post
	var raw struct {
		plain
		Author *Author `json:"author"`
		User   *Author `json:"user"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Post(raw.plain)
	p.Author = resolveAuthor(raw.Author, raw.User)
	return nil
}

func resolveAuthor(current, legacy *Author) Author {
	if current.empty() {
		if legacy == nil {
			return Author{}
		}
		return *legacy
	}
	resolved := *current
	if legacy != nil && (legacy.ID == "" || legacy.ID == resolved.ID) {
		resolved.fill(legacy)
	}
	return resolved
}

// Text returns the caption, or the content/title for older posts.
func (p *Post) Text() string {
	switch {
	case p.Caption != "":
		return p.Caption
	case p.Content != "":
		return p.Content
	default:
		return p.Title
	}
}

// PostFilters are the query parameters of post list endpoints.
type PostFilters struct {
	Sort   string
	Page   int
	Limit  int
	Author string
	Search string
}

type PostsPage struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// CreatePostInput is the multipart create-post form.
type CreatePostInput struct {
	ImageName string
	Image     []byte
	Caption   string
	Location  string
	Tags      []string
}

type UpdatePostInput struct {
	Caption  *string `json:"caption,omitempty"`
	Location *string `json:"location,omitempty"`
}

// LikeResult is the post state after a like toggle.
type LikeResult struct {
	PostID        string `json:"_id"`
	LikesCount    int    `json:"likesCount"`
	IsLikedByUser bool   `json:"isLikedByUser"`
}

// CommentResult is the outcome of adding a comment.
type CommentResult struct {
	Comment       *Comment `json:"comment"`
	CommentsCount int      `json:"commentsCount"`
}

type CommentsPage struct {
	Comments   []Comment  `json:"comments"`
	Pagination Pagination `json:"pagination"`
}
