// Package devapi is an in-memory development backend serving the Smile & Gift REST API.
package devapi

import (
	"context"
	"errors"
	"time"

	"smilegift/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("record already exists")
)

// PostQuery selects a page of posts.
type PostQuery struct {
	Sort     string
	AuthorID string
	Search   string
	ViewerID string
	Offset   int
	Limit    int
}

// GiftQuery selects a page of gifts. Empty fields match everything.
type GiftQuery struct {
	// ParticipantID matches gifts sent or received by the user.
	ParticipantID string
	SenderID      string
	RecipientID   string
	PostID        string
	Status        models.GiftStatus
	Offset        int
	Limit         int
}

// Dataset is a consistent copy of every record, used for aggregate endpoints.
type Dataset struct {
	Users []models.User
	Posts []models.Post
	Gifts []models.Gift
	Likes map[string][]time.Time
}

// Repository is the storage the handlers depend on. Returned records are
// copies with author, sender and recipient references populated.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User, passwordHash []byte) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, []byte, error)
	ListUsers(ctx context.Context, search string, limit int) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error)
	SetPassword(ctx context.Context, id string, hash []byte) error

	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id, viewerID string) (*models.Post, error)
	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, int, error)
	UpdatePost(ctx context.Context, id string, fn func(*models.Post) error) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, userID string) (*models.LikeResult, error)
	AddComment(ctx context.Context, postID string, comment *models.Comment) (int, error)
	ListComments(ctx context.Context, postID string, offset, limit int) ([]models.Comment, int, error)

	CreateGift(ctx context.Context, gift *models.Gift) error
	GetGift(ctx context.Context, id string) (*models.Gift, error)
	GetGiftByTransaction(ctx context.Context, transactionID string) (*models.Gift, error)
	UpdateGift(ctx context.Context, id string, fn func(*models.Gift) error) (*models.Gift, error)
	ListGifts(ctx context.Context, q GiftQuery) ([]models.Gift, int, error)

	SaveMedia(ctx context.Context, id, contentType string, data []byte) error
	GetMedia(ctx context.Context, id string) (string, []byte, error)

	Snapshot(ctx context.Context) (*Dataset, error)
}
