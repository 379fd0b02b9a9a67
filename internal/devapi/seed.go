package devapi

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"smilegift/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

// SeedOptions controls how much demo data Seed creates.
type SeedOptions struct {
	Users        int
	PostsPerUser int
	MaxDays      int
	BcryptCost   int
	// Seed makes the generated data reproducible. Zero uses the clock.
	Seed int64
}

// SeedResult lists the seeded users, in creation order.
type SeedResult struct {
	Users []models.User
	Posts int
	Gifts int
}

var nonUsernameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Seed fills repo with fake users, posts, likes, comments and pending gifts.
func Seed(ctx context.Context, repo Repository, opts SeedOptions) (*SeedResult, error) {
	if opts.Users <= 0 {
		return &SeedResult{}, nil
	}
	if opts.PostsPerUser <= 0 {
		opts.PostsPerUser = 3
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(opts.Seed)

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	res := &SeedResult{}
	for i := 0; i < opts.Users; i++ {
		username := seedUsername(faker.Username(), i)
		user := &models.User{
			Username: username,
			Email:    strings.ToLower(username) + "@example.com",
			FullName: faker.Name(),
			Bio:      faker.Sentence(8),
			UpiID:    strings.ToLower(username) + "@upi",
		}
		if err := repo.CreateUser(ctx, user, hash); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", username, err)
		}
		res.Users = append(res.Users, *user)
	}

	now := time.Now()
	var posts []models.Post
	for _, u := range res.Users {
		for j := 0; j < opts.PostsPerUser; j++ {
			post := &models.Post{
				Author:    models.Author{ID: u.ID},
				Caption:   faker.Sentence(10),
				Location:  faker.City(),
				Tags:      []string{strings.ToLower(faker.Word()), strings.ToLower(faker.Word())},
				Image:     &models.Image{URL: fmt.Sprintf("https://picsum.photos/seed/%s/800/800", faker.UUID())},
				CreatedAt: faker.DateRange(now.AddDate(0, 0, -opts.MaxDays), now),
			}
			if err := repo.CreatePost(ctx, post); err != nil {
				return nil, fmt.Errorf("seed post: %w", err)
			}
			posts = append(posts, *post)
		}
	}
	res.Posts = len(posts)

	for _, p := range posts {
		for _, u := range res.Users {
			if u.ID == p.Author.ID {
				continue
			}
			if faker.Number(1, 100) <= 40 {
				if _, err := repo.ToggleLike(ctx, p.ID, u.ID); err != nil {
					return nil, fmt.Errorf("seed like: %w", err)
				}
			}
			if faker.Number(1, 100) <= 15 {
				comment := &models.Comment{Content: faker.Sentence(6), Author: models.Author{ID: u.ID}}
				if _, err := repo.AddComment(ctx, p.ID, comment); err != nil {
					return nil, fmt.Errorf("seed comment: %w", err)
				}
			}
			if faker.Number(1, 100) <= 10 {
				gift := &models.Gift{
					Sender:        &models.User{ID: u.ID},
					Recipient:     &models.User{ID: p.Author.ID},
					PostID:        p.ID,
					Amount:        float64(faker.Number(1, 50) * 10),
					TransactionID: strings.ReplaceAll(faker.UUID(), "-", ""),
					Status:        models.GiftPending,
					Message:       faker.Sentence(4),
					PaymentMethod: models.PaymentMethodUPI,
					CreatedAt:     faker.DateRange(p.CreatedAt, now),
				}
				if err := repo.CreateGift(ctx, gift); err != nil {
					return nil, fmt.Errorf("seed gift: %w", err)
				}
				res.Gifts++
			}
		}
	}
	return res, nil
}

// seedUsername makes a faker username valid and unique by index.
func seedUsername(raw string, i int) string {
	name := nonUsernameChars.ReplaceAllString(raw, "")
	if len(name) > 24 {
		name = name[:24]
	}
	if len(name) < 2 {
		name = "user"
	}
	return fmt.Sprintf("%s_%d", name, i+1)
}
