package cache

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"ventaperdida/internal/infrastructure"
)

// Memo is a bounded, least-recently-used memoization table. Concurrent
// computations of the same key are coalesced into one call.
type Memo struct {
	name    string
	max     int
	remote  *RedisTier
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	group   singleflight.Group
}

type entry struct {
	key   string
	value any
}

// Options configures a Memo
type Options struct {
	// Name labels log lines and cache metrics.
	Name       string
	MaxEntries int
	// Remote is an optional shared tier consulted after a local miss.
	Remote  *RedisTier
	Logger  *slog.Logger
	Metrics *infrastructure.PipelineMetrics
}

// New creates a Memo. MaxEntries below one means a single entry.
func New(opts Options) *Memo {
	if opts.MaxEntries < 1 {
		opts.MaxEntries = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = infrastructure.NoopPipelineMetrics()
	}
	return &Memo{
		name:    opts.Name,
		max:     opts.MaxEntries,
		remote:  opts.Remote,
		logger:  opts.Logger.With(slog.String("component", "cache"), slog.String("cache", opts.Name)),
		metrics: opts.Metrics,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the local value for key.
func (m *Memo) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	m.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

// Put stores value under key, evicting the least recently used entry when full.
func (m *Memo) Put(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		el.Value.(*entry).value = value
		m.order.MoveToFront(el)
		return
	}
	m.entries[key] = m.order.PushFront(&entry{key: key, value: value})
	for m.order.Len() > m.max {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*entry).key)
	}
}

// Len returns the number of local entries.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Purge drops every local entry and, when configured, the shared tier.
func (m *Memo) Purge(ctx context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]*list.Element)
	m.order.Init()
	m.mu.Unlock()

	if m.remote != nil {
		if err := m.remote.Purge(ctx); err != nil {
			m.logger.WarnContext(ctx, "Shared cache purge failed", slog.String("error", err.Error()))
		}
	}
}

func (m *Memo) hit(ctx context.Context, tier string) {
	m.metrics.CacheHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", m.name), attribute.String("tier", tier)))
}

func (m *Memo) miss(ctx context.Context) {
	m.metrics.CacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", m.name)))
}

// Do returns the memoized value for key, computing it with fn on a miss.
// Errors are never cached. Shared tier failures are logged and ignored.
// Concurrent callers share one fn call, which runs detached from any single
// caller's cancellation; each caller still returns early when its own ctx ends.
func Do[V any](ctx context.Context, m *Memo, key string, fn func(context.Context) (V, error)) (V, error) {
	if v, ok := m.Get(key); ok {
		m.hit(ctx, "local")
		return v.(V), nil
	}

	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		ctx := shared
		if v, ok := m.Get(key); ok {
			return v, nil
		}

		if m.remote != nil {
			var v V
			found, err := m.remote.Get(ctx, key, &v)
			if err != nil {
				m.logger.WarnContext(ctx, "Shared cache read failed", slog.String("error", err.Error()))
			} else if found {
				m.hit(ctx, "remote")
				m.Put(key, v)
				return v, nil
			}
		}

		m.miss(ctx)
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		m.Put(key, v)

		if m.remote != nil {
			if err := m.remote.Set(ctx, key, v); err != nil {
				m.logger.WarnContext(ctx, "Shared cache write failed", slog.String("error", err.Error()))
			}
		}
		return v, nil
	})

	var res any
	select {
	case r := <-ch:
		if r.Err != nil {
			var zero V
			return zero, r.Err
		}
		res = r.Val
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}

	v, ok := res.(V)
	if !ok {
		var zero V
		return zero, fmt.Errorf("cache %s: key %q holds %T", m.name, key, res)
	}
	return v, nil
}
