// Package feed accumulates paginated posts for the home feed and serves the
// small leaderboard widgets shown next to it.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smilegift/internal/cache"
	"smilegift/internal/models"
)

// Sort is a feed ordering.
type Sort string

const (
	SortLatest   Sort = "latest"
	SortPopular  Sort = "popular"
	SortTrending Sort = "trending"
)

// ParseSort validates a sort name.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case SortLatest, SortPopular, SortTrending:
		return Sort(s), nil
	}
	return "", fmt.Errorf("unknown sort %q (want latest, popular or trending)", s)
}

// Defaults for the home feed.
const (
	DefaultPageSize = 10
	DefaultStale    = time.Minute
)

// PostLister lists a page of posts.
type PostLister interface {
	List(ctx context.Context, f models.PostFilters) (*models.PostsPage, error)
}

// Snapshot is a copy of the pager state.
type Snapshot struct {
	Sort     Sort
	Page     int
	Items    []models.Post
	HasMore  bool
	Fetching bool
	Err      error
}

// Pager accumulates pages of one sort order. A response is applied only if
// its sort is still current; pages of the same sort are not sequenced, so a
// late page-1 response replaces whatever has accumulated since.
type Pager struct {
	posts    PostLister
	cache    *cache.QueryCache
	pageSize int
	stale    time.Duration

	mu       sync.Mutex
	sort     Sort
	page     int
	items    []models.Post
	hasMore  bool
	inflight int
	err      error
}

// NewPager creates a pager on the latest sort. pageSize and stale fall back to the defaults when zero.
func NewPager(posts PostLister, qc *cache.QueryCache, pageSize int, stale time.Duration) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if stale <= 0 {
		stale = DefaultStale
	}
	return &Pager{
		posts:    posts,
		cache:    qc,
		pageSize: pageSize,
		stale:    stale,
		sort:     SortLatest,
		page:     1,
		hasMore:  true,
	}
}

// SetSort switches the ordering. A different sort resets the page to 1,
// empties the items and assumes there is more to load.
func (p *Pager) SetSort(s Sort) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s == p.sort {
		return
	}
	p.sort = s
	p.page = 1
	p.items = nil
	p.hasMore = true
	p.err = nil
}

// Load fetches the current page.
func (p *Pager) Load(ctx context.Context) error {
	p.mu.Lock()
	p.inflight++
	sort, page := p.sort, p.page
	p.mu.Unlock()

	return p.fetch(ctx, sort, page)
}

// OnVisible is the infinite-scroll signal. It advances to the next page
// unless there is nothing more or a page is already being fetched, and
// reports whether a request was made. A page that fails to load is not
// counted, so the next signal requests it again.
func (p *Pager) OnVisible(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if !p.hasMore || p.inflight > 0 {
		p.mu.Unlock()
		return false, nil
	}
	p.page++
	p.inflight++
	sort, page := p.sort, p.page
	p.mu.Unlock()

	err := p.fetch(ctx, sort, page)
	if err != nil {
		p.mu.Lock()
		if p.sort == sort && p.page == page {
			p.page = page - 1
		}
		p.mu.Unlock()
	}
	return true, err
}

// Refresh drops cached feed pages and reloads from page 1.
func (p *Pager) Refresh(ctx context.Context) error {
	if err := p.cache.Invalidate(ctx, "posts:"); err != nil {
		return err
	}
	p.mu.Lock()
	p.page = 1
	p.hasMore = true
	p.mu.Unlock()
	return p.Load(ctx)
}

func (p *Pager) fetch(ctx context.Context, sort Sort, page int) error {
	key := fmt.Sprintf("posts:%s:%d", sort, page)
	result, err := cache.Fetch(ctx, p.cache, key, p.stale, func(ctx context.Context) (*models.PostsPage, error) {
		return p.posts.List(ctx, models.PostFilters{Sort: string(sort), Page: page, Limit: p.pageSize})
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight--

	if sort != p.sort {
		return err
	}
	if err != nil {
		p.err = err
		return err
	}
	p.err = nil
	if page == 1 {
		p.items = append([]models.Post(nil), result.Posts...)
	} else {
		p.items = append(p.items, result.Posts...)
	}
	p.hasMore = result.Pagination.HasNext
	return nil
}

// Snapshot returns a copy of the current state.
func (p *Pager) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Sort:     p.sort,
		Page:     p.page,
		Items:    append([]models.Post(nil), p.items...),
		HasMore:  p.hasMore,
		Fetching: p.inflight > 0,
		Err:      p.err,
	}
}
