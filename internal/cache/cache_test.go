package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Items []string `json:"items"`
	Page  int      `json:"page"`
}

func TestFetch_CachesWithinStaleWindow(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	backend.now = func() time.Time { return now }
	qc := New(backend)

	calls := 0
	fetch := func(context.Context) (page, error) {
		calls++
		return page{Items: []string{"a"}, Page: calls}, nil
	}

	first, err := Fetch(ctx, qc, "posts:latest:1", time.Minute, fetch)
	require.NoError(t, err)
	second, err := Fetch(ctx, qc, "posts:latest:1", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	now = now.Add(61 * time.Second)
	third, err := Fetch(ctx, qc, "posts:latest:1", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Page)
	assert.Equal(t, 2, calls)
}

func TestFetch_DistinctKeys(t *testing.T) {
	ctx := context.Background()
	qc := New(NewMemoryBackend())
	calls := 0
	fetch := func(context.Context) (int, error) { calls++; return calls, nil }

	_, _ = Fetch(ctx, qc, "posts:latest:1", time.Minute, fetch)
	_, _ = Fetch(ctx, qc, "posts:popular:1", time.Minute, fetch)
	assert.Equal(t, 2, calls)
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	qc := New(NewMemoryBackend())
	boom := errors.New("boom")

	_, err := Fetch(ctx, qc, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Fetch(ctx, qc, "k", time.Minute, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFetch_SharesInFlightRequest(t *testing.T) {
	ctx := context.Background()
	qc := New(NewMemoryBackend())

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 3)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = Fetch(ctx, qc, "posts:popular:1", time.Minute, fetch)
	}()
	<-started
	for i := 1; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Fetch(ctx, qc, "posts:popular:1", time.Minute, fetch)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []int{42, 42, 42}, results)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	qc := New(NewMemoryBackend())
	require.NoError(t, qc.SetJSON(ctx, "post:p1", 1, time.Minute))
	require.NoError(t, qc.SetJSON(ctx, "post:p2", 2, time.Minute))
	require.NoError(t, qc.SetJSON(ctx, "posts:latest:1", 3, time.Minute))

	require.NoError(t, qc.Invalidate(ctx, "post:"))

	var v int
	found, _ := qc.GetJSON(ctx, "post:p1", &v)
	assert.False(t, found)
	found, _ = qc.GetJSON(ctx, "posts:latest:1", &v)
	assert.True(t, found)
}

func TestScopeTo_SeparatesViewers(t *testing.T) {
	ctx := context.Background()
	qc := New(NewMemoryBackend())
	viewer := "u1"
	qc.ScopeTo(func() string { return viewer })

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return viewer, nil
	}

	v, err := Fetch(ctx, qc, "post:p1", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "u1", v)

	viewer = "u2"
	v, err = Fetch(ctx, qc, "post:p1", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "u2", v)
	assert.Equal(t, 2, calls)

	viewer = ""
	v, err = Fetch(ctx, qc, "post:p1", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "", v)
	assert.Equal(t, 3, calls)

	// u2 invalidates only its own entries.
	viewer = "u2"
	require.NoError(t, qc.Invalidate(ctx, "post:"))
	var got string
	found, err := qc.GetJSON(ctx, "post:p1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	viewer = "u1"
	found, err = qc.GetJSON(ctx, "post:p1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "u1", got)
}

func TestFetch_ZeroStaleAlwaysRefetches(t *testing.T) {
	ctx := context.Background()
	qc := New(NewMemoryBackend())
	calls := 0
	fetch := func(context.Context) (int, error) { calls++; return calls, nil }

	first, err := Fetch(ctx, qc, "post:p1", 0, fetch)
	require.NoError(t, err)
	second, err := Fetch(ctx, qc, "post:p1", 0, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	var v int
	found, err := qc.GetJSON(ctx, "post:p1", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	backend := NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer func() { _ = backend.Close() }()
	qc := New(backend)

	calls := 0
	fetch := func(context.Context) (page, error) { calls++; return page{Page: 1}, nil }

	_, err = Fetch(ctx, qc, "leaderboard:weekly:5", 5*time.Minute, fetch)
	require.NoError(t, err)
	_, err = Fetch(ctx, qc, "leaderboard:weekly:5", 5*time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(KeyPrefix+"leaderboard:weekly:5"))

	mr.FastForward(5*time.Minute + time.Second)
	_, err = Fetch(ctx, qc, "leaderboard:weekly:5", 5*time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	require.NoError(t, qc.Invalidate(ctx, "leaderboard:"))
	assert.False(t, mr.Exists(KeyPrefix+"leaderboard:weekly:5"))
}

func TestOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	qc, closeFn, err := Open(context.Background(), "redis", "redis://"+mr.Addr())
	require.NoError(t, err)
	assert.IsType(t, &RedisBackend{}, qc.backend)
	assert.NoError(t, closeFn())

	qc, _, err = Open(context.Background(), "memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, qc.backend)

	_, _, err = Open(context.Background(), "disk", "")
	assert.Error(t, err)
}
