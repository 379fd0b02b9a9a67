package devapi

import (
	"context"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"smilegift/internal/models"
)

type userRecord struct {
	user models.User
	hash []byte
}

type postRecord struct {
	post     models.Post
	likes    map[string]time.Time
	comments []models.Comment
}

type mediaRecord struct {
	contentType string
	data        []byte
}

// MemoryRepository keeps every record in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*userRecord
	posts map[string]*postRecord
	gifts map[string]*models.Gift
	media map[string]mediaRecord
	now   func() time.Time
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]*userRecord),
		posts: make(map[string]*postRecord),
		gifts: make(map[string]*models.Gift),
		media: make(map[string]mediaRecord),
		now:   time.Now,
	}
}

func (r *MemoryRepository) CreateUser(_ context.Context, user *models.User, passwordHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.user.Email, user.Email) || strings.EqualFold(existing.user.Username, user.Username) {
			return ErrConflict
		}
	}
	if user.ID == "" {
		user.ID = newObjectID()
	}
	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now
	user.IsActive = true
	r.users[user.ID] = &userRecord{user: *user, hash: passwordHash}
	return nil
}

func (r *MemoryRepository) GetUser(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.users[id]; !ok {
		return nil, ErrNotFound
	}
	return r.userView(id), nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*models.User, []byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, rec := range r.users {
		if strings.EqualFold(rec.user.Email, email) {
			return r.userView(id), slices.Clone(rec.hash), nil
		}
	}
	return nil, nil, ErrNotFound
}

// ListUsers returns exact username matches first, then partial matches on
// username or full name. An empty search lists the newest users.
func (r *MemoryRepository) ListUsers(_ context.Context, search string, limit int) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))
	var exact, partial []models.User
	for id, rec := range r.users {
		username := strings.ToLower(rec.user.Username)
		switch {
		case search == "":
			partial = append(partial, *r.userView(id))
		case username == search:
			exact = append(exact, *r.userView(id))
		case strings.Contains(username, search) || strings.Contains(strings.ToLower(rec.user.FullName), search):
			partial = append(partial, *r.userView(id))
		}
	}
	sort.Slice(partial, func(i, j int) bool { return partial[i].CreatedAt.After(partial[j].CreatedAt) })

	out := append(exact, partial...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) UpdateUser(_ context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	updated := rec.user
	if err := fn(&updated); err != nil {
		return nil, err
	}
	for otherID, other := range r.users {
		if otherID == id {
			continue
		}
		if strings.EqualFold(other.user.Email, updated.Email) || strings.EqualFold(other.user.Username, updated.Username) {
			return nil, ErrConflict
		}
	}
	updated.ID = id
	updated.UpdatedAt = r.now()
	rec.user = updated
	return r.userView(id), nil
}

func (r *MemoryRepository) SetPassword(_ context.Context, id string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	rec.hash = hash
	return nil
}

func (r *MemoryRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[post.Author.ID]; !ok {
		return ErrNotFound
	}
	if post.ID == "" {
		post.ID = newObjectID()
	}
	now := r.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	stored := *post
	stored.Author = models.Author{ID: post.Author.ID}
	stored.Tags = slices.Clone(post.Tags)
	stored.Comments = nil
	r.posts[post.ID] = &postRecord{post: stored, likes: make(map[string]time.Time)}
	*post = *r.postView(r.posts[post.ID], "")
	return nil
}

func (r *MemoryRepository) GetPost(_ context.Context, id, viewerID string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	post := r.postView(rec, viewerID)
	post.Comments = r.commentViews(rec.comments)
	return post, nil
}

func (r *MemoryRepository) ListPosts(_ context.Context, q PostQuery) ([]models.Post, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))
	var matched []*postRecord
	for _, rec := range r.posts {
		if q.AuthorID != "" && rec.post.Author.ID != q.AuthorID {
			continue
		}
		if search != "" && !postMatches(&rec.post, search) {
			continue
		}
		matched = append(matched, rec)
	}

	now := r.now()
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch q.Sort {
		case "popular":
			if len(a.likes) != len(b.likes) {
				return len(a.likes) > len(b.likes)
			}
		case "trending":
			sa, sb := hotScore(a, now), hotScore(b, now)
			if sa != sb {
				return sa > sb
			}
		}
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.post.ID > b.post.ID
	})

	total := len(matched)
	page := window(matched, q.Offset, q.Limit)
	out := make([]models.Post, 0, len(page))
	for _, rec := range page {
		out = append(out, *r.postView(rec, q.ViewerID))
	}
	return out, total, nil
}

func postMatches(p *models.Post, search string) bool {
	if strings.Contains(strings.ToLower(p.Text()), search) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// hotScore decays engagement with age so new activity rises above old.
func hotScore(rec *postRecord, now time.Time) float64 {
	engagement := float64(len(rec.likes) + 2*len(rec.comments))
	hours := now.Sub(rec.post.CreatedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return engagement / math.Pow(hours+2, 1.5)
}

func (r *MemoryRepository) UpdatePost(_ context.Context, id string, fn func(*models.Post) error) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	updated := rec.post
	if err := fn(&updated); err != nil {
		return nil, err
	}
	updated.ID = id
	updated.Author = rec.post.Author
	updated.UpdatedAt = r.now()
	rec.post = updated
	return r.postView(rec, ""), nil
}

func (r *MemoryRepository) DeletePost(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *MemoryRepository) ToggleLike(_ context.Context, postID, userID string) (*models.LikeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	_, liked := rec.likes[userID]
	if liked {
		delete(rec.likes, userID)
	} else {
		rec.likes[userID] = r.now()
	}
	return &models.LikeResult{
		PostID:        postID,
		LikesCount:    len(rec.likes),
		IsLikedByUser: !liked,
	}, nil
}

func (r *MemoryRepository) AddComment(_ context.Context, postID string, comment *models.Comment) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.posts[postID]
	if !ok {
		return 0, ErrNotFound
	}
	if comment.ID == "" {
		comment.ID = newObjectID()
	}
	comment.CreatedAt = r.now()
	stored := *comment
	stored.Author = models.Author{ID: comment.Author.ID}
	rec.comments = append(rec.comments, stored)
	comment.Author = r.author(stored.Author.ID)
	return len(rec.comments), nil
}

// ListComments pages through a post's comments, newest first.
func (r *MemoryRepository) ListComments(_ context.Context, postID string, offset, limit int) ([]models.Comment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.posts[postID]
	if !ok {
		return nil, 0, ErrNotFound
	}
	newest := slices.Clone(rec.comments)
	slices.Reverse(newest)
	return r.commentViews(window(newest, offset, limit)), len(newest), nil
}

func (r *MemoryRepository) CreateGift(_ context.Context, gift *models.Gift) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gift.TransactionID != models.ManualTransactionID {
		for _, existing := range r.gifts {
			if existing.TransactionID == gift.TransactionID {
				return ErrConflict
			}
		}
	}
	if gift.ID == "" {
		gift.ID = newObjectID()
	}
	now := r.now()
	if gift.CreatedAt.IsZero() {
		gift.CreatedAt = now
	}
	gift.UpdatedAt = now

	stored := *gift
	stored.Sender = &models.User{ID: gift.Sender.ID}
	stored.Recipient = &models.User{ID: gift.Recipient.ID}
	r.gifts[gift.ID] = &stored
	*gift = *r.giftView(&stored)
	return nil
}

func (r *MemoryRepository) GetGift(_ context.Context, id string) (*models.Gift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.gifts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.giftView(g), nil
}

func (r *MemoryRepository) GetGiftByTransaction(_ context.Context, transactionID string) (*models.Gift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.gifts {
		if g.TransactionID == transactionID {
			return r.giftView(g), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) UpdateGift(_ context.Context, id string, fn func(*models.Gift) error) (*models.Gift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.gifts[id]
	if !ok {
		return nil, ErrNotFound
	}
	updated := *g
	if err := fn(&updated); err != nil {
		return nil, err
	}
	updated.ID = id
	updated.Sender, updated.Recipient = g.Sender, g.Recipient
	updated.UpdatedAt = r.now()
	*g = updated
	return r.giftView(g), nil
}

func (r *MemoryRepository) ListGifts(_ context.Context, q GiftQuery) ([]models.Gift, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.Gift
	for _, g := range r.gifts {
		if q.ParticipantID != "" && g.Sender.ID != q.ParticipantID && g.Recipient.ID != q.ParticipantID {
			continue
		}
		if q.SenderID != "" && g.Sender.ID != q.SenderID {
			continue
		}
		if q.RecipientID != "" && g.Recipient.ID != q.RecipientID {
			continue
		}
		if q.PostID != "" && g.PostID != q.PostID {
			continue
		}
		if q.Status != "" && g.Status != q.Status {
			continue
		}
		matched = append(matched, g)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	page := window(matched, q.Offset, q.Limit)
	out := make([]models.Gift, 0, len(page))
	for _, g := range page {
		out = append(out, *r.giftView(g))
	}
	return out, len(matched), nil
}

func (r *MemoryRepository) SaveMedia(_ context.Context, id, contentType string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.media[id] = mediaRecord{contentType: contentType, data: slices.Clone(data)}
	return nil
}

func (r *MemoryRepository) GetMedia(_ context.Context, id string) (string, []byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.media[id]
	if !ok {
		return "", nil, ErrNotFound
	}
	return m.contentType, m.data, nil
}

func (r *MemoryRepository) Snapshot(_ context.Context) (*Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds := &Dataset{Likes: make(map[string][]time.Time, len(r.posts))}
	for id := range r.users {
		ds.Users = append(ds.Users, *r.userView(id))
	}
	for id, rec := range r.posts {
		ds.Posts = append(ds.Posts, *r.postView(rec, ""))
		for _, at := range rec.likes {
			ds.Likes[id] = append(ds.Likes[id], at)
		}
	}
	for _, g := range r.gifts {
		ds.Gifts = append(ds.Gifts, *r.giftView(g))
	}
	return ds, nil
}

// userView copies a user and fills its derived counters. Callers hold the lock.
func (r *MemoryRepository) userView(id string) *models.User {
	u := r.users[id].user
	u.PostsCount, u.LikesReceived = 0, 0
	u.TotalGiftsReceived, u.TotalGiftsSent = 0, 0
	for _, rec := range r.posts {
		if rec.post.Author.ID == id {
			u.PostsCount++
			u.LikesReceived += len(rec.likes)
		}
	}
	for _, g := range r.gifts {
		if !countsTowardTotals(g.Status) {
			continue
		}
		if g.Recipient.ID == id {
			u.TotalGiftsReceived += g.Amount
		}
		if g.Sender.ID == id {
			u.TotalGiftsSent += g.Amount
		}
	}
	if u.Avatar != nil {
		avatar := *u.Avatar
		u.Avatar = &avatar
	}
	return &u
}

func (r *MemoryRepository) author(id string) models.Author {
	rec, ok := r.users[id]
	if !ok {
		return models.Author{ID: id}
	}
	a := models.Author{
		ID:       id,
		Username: rec.user.Username,
		FullName: rec.user.FullName,
		UpiID:    rec.user.UpiID,
	}
	if rec.user.Avatar != nil {
		avatar := *rec.user.Avatar
		a.Avatar = &avatar
	}
	return a
}

func (r *MemoryRepository) postView(rec *postRecord, viewerID string) *models.Post {
	p := rec.post
	p.Author = r.author(rec.post.Author.ID)
	p.Tags = slices.Clone(rec.post.Tags)
	p.LikesCount = len(rec.likes)
	p.CommentsCount = len(rec.comments)
	_, p.IsLikedByUser = rec.likes[viewerID]
	if viewerID == "" {
		p.IsLikedByUser = false
	}
	if rec.post.Image != nil {
		img := *rec.post.Image
		p.Image = &img
	}
	return &p
}

func (r *MemoryRepository) commentViews(comments []models.Comment) []models.Comment {
	out := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		c.Author = r.author(c.Author.ID)
		out = append(out, c)
	}
	return out
}

func (r *MemoryRepository) giftView(g *models.Gift) *models.Gift {
	out := *g
	out.Sender = r.publicUser(g.Sender.ID)
	out.Recipient = r.publicUser(g.Recipient.ID)
	return &out
}

func (r *MemoryRepository) publicUser(id string) *models.User {
	if _, ok := r.users[id]; !ok {
		return &models.User{ID: id}
	}
	u := r.users[id].user
	u.Email = ""
	return &u
}

func countsTowardTotals(status models.GiftStatus) bool {
	return status == models.GiftPending || status == models.GiftConfirmed
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
