package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventaperdida/internal/shared/testutil"
)

func TestMemo_LRU(t *testing.T) {
	m := New(Options{Name: "test", MaxEntries: 2})

	m.Put("a", 1)
	m.Put("b", 2)
	_, ok := m.Get("a") // a becomes most recent
	require.True(t, ok)
	m.Put("c", 3)

	_, ok = m.Get("b")
	assert.False(t, ok, "least recently used entry evicted")
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, m.Len())

	m.Put("a", 10)
	v, _ = m.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, m.Len())

	m.Purge(context.Background())
	assert.Equal(t, 0, m.Len())
}

func TestDo(t *testing.T) {
	m := New(Options{Name: "test", MaxEntries: 8})
	ctx := context.Background()
	var calls int

	compute := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := Do(ctx, m, "k", compute)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)
}

func TestDo_ErrorsAreNotCached(t *testing.T) {
	m := New(Options{Name: "test", MaxEntries: 8})
	boom := errors.New("boom")
	var calls int

	fail := func(context.Context) (int, error) {
		calls++
		return 0, boom
	}
	_, err := Do(context.Background(), m, "k", fail)
	assert.ErrorIs(t, err, boom)
	_, err = Do(context.Background(), m, "k", fail)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, m.Len())
}

func TestDo_Coalesces(t *testing.T) {
	m := New(Options{Name: "test", MaxEntries: 8})
	var calls atomic.Int32
	release := make(chan struct{})

	slow := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Do(context.Background(), m, "same", slow)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Let the goroutines pile up on the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 42, v)
	}
	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestDo_FirstCallerCancelDoesNotFailOthers(t *testing.T) {
	m := New(Options{Name: "test", MaxEntries: 8})
	started := make(chan struct{})
	release := make(chan struct{})

	slow := func(ctx context.Context) (int, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 42, nil
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Do(firstCtx, m, "shared", slow)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := Do(context.Background(), m, "shared", slow)
		second <- result{v, err}
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 42, got.v)

	v, ok := m.Get("shared")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestDo_AfterPurgeRecomputes(t *testing.T) {
	m := New(Options{Name: "test", MaxEntries: 8})
	ctx := context.Background()
	version := 1
	compute := func(context.Context) (int, error) { return version, nil }

	v, err := Do(ctx, m, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	version = 2
	v, _ = Do(ctx, m, "k", compute)
	assert.Equal(t, 1, v, "served from cache")

	m.Purge(ctx)
	v, _ = Do(ctx, m, "k", compute)
	assert.Equal(t, 2, v)
}

func TestDo_RemoteFailureIsNotFatal(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	remote := newRedisTier(client, time.Minute)
	t.Cleanup(func() { remote.Close() })

	logger, handler := testutil.NewTestLogger(t)
	m := New(Options{Name: "test", MaxEntries: 8, Remote: remote, Logger: logger})

	v, err := Do(context.Background(), m, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	assert.True(t, handler.ContainsMessage("Shared cache read failed"))
	assert.True(t, handler.ContainsMessage("Shared cache write failed"))

	m.Purge(context.Background())
	assert.True(t, handler.ContainsMessage("Shared cache purge failed"))
}

func TestNewRedisTier_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := NewRedisTier(ctx, "127.0.0.1:1", 0, time.Minute)
	assert.Error(t, err)
}

func TestRedisKey(t *testing.T) {
	k := redisKey("v1|week|PMI")
	assert.Equal(t, k, redisKey("v1|week|PMI"))
	assert.NotEqual(t, k, redisKey("v2|week|PMI"))
	assert.Len(t, k, len(keyPrefix)+64)
}
