package querycache

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/querycache/codec"
)

type Status uint8

const (
	StatusIdle    Status = iota // gated, or not started
	StatusLoading               // first fetch for the key in flight, no data to show
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is a snapshot of a query.
type Result[T any] struct {
	Key    Key
	Status Status
	Data   T
	// HasData is false until a value (own or previous) is available.
	HasData bool
	// Err is the request function's error, unchanged.
	Err        error
	IsFetching bool
	// IsPreviousData is true while Data belongs to the previous key.
	IsPreviousData bool
	UpdatedAt      time.Time
}

// QueryConfig describes one keyed read.
type QueryConfig[T any] struct {
	Key     Key
	Fn      QueryFunc[T]
	Codec   codec.Codec[T] // nil => msgpack
	Options QueryOptions
}

func (cfg QueryConfig[T]) withDefaults() QueryConfig[T] {
	if cfg.Codec == nil {
		cfg.Codec = codec.Msgpack[T]{}
	}
	return cfg
}

// Query observes one key at a time. Obtain it with Run, re-key it with Update
// and release it with Close.
type Query[T any] struct {
	c *Client

	mu      sync.Mutex
	cfg     QueryConfig[T]
	set     settings
	sk      string
	res     Result[T]
	seq     uint64
	cancel  context.CancelFunc
	done    chan struct{} // closed when the current fetch settles; nil if none
	closed  bool
	started bool
}

var _ observer = (*Query[struct{}])(nil)

// Run mounts a query on c.
//
// Gated (Enabled=false) queries stay idle and never call cfg.Fn. A fresh stored
// result is served without a request. Otherwise a fetch starts; with Suspense
// Run blocks until it settles or ctx is done, without it Run returns at once
// with StatusLoading.
//
// ctx bounds the fetches this call starts; cancelling it cancels them.
func Run[T any](ctx context.Context, c *Client, cfg QueryConfig[T]) *Query[T] {
	q := &Query[T]{c: c}
	c.mount(q)
	q.apply(ctx, cfg)
	return q
}

// Update switches the query to cfg. When the key changes the fetch for the old
// key is cancelled; with KeepPreviousData the old data stays readable, marked
// IsPreviousData, until the new key settles. Re-applying the same key with data
// already shown only rereads the store and never starts a request; use Refetch
// for that.
func (q *Query[T]) Update(ctx context.Context, cfg QueryConfig[T]) Result[T] {
	q.apply(ctx, cfg)
	return q.Result()
}

func (q *Query[T]) apply(ctx context.Context, cfg QueryConfig[T]) {
	cfg = cfg.withDefaults()
	s := resolve(q.c.defaults, cfg.Options)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	rekey := !q.started || !q.res.Key.Equal(cfg.Key)
	q.cfg, q.set, q.sk = cfg, s, q.c.storageKey(cfg.Key)
	q.started = true
	if rekey {
		q.abortLocked()
		prev := q.res
		q.res = Result[T]{Key: cfg.Key, Status: StatusIdle}
		if s.keepPrevious && prev.HasData {
			q.res.Data, q.res.HasData, q.res.UpdatedAt = prev.Data, true, prev.UpdatedAt
			q.res.IsPreviousData = true
			q.res.Status = StatusSuccess
		}
	}
	fetching := q.done != nil
	hasOwn := !rekey && q.res.HasData && !q.res.IsPreviousData
	q.mu.Unlock()

	if cfg.Fn == nil {
		q.fail(ErrNoQueryFn)
		return
	}
	if err := cfg.Key.Err(); err != nil {
		q.fail(err)
		return
	}
	if !s.enabled || fetching {
		return
	}

	if v, at, ok := readCached(ctx, q.c, cfg.Key, cfg.Codec); ok {
		q.mu.Lock()
		if q.res.Key.Equal(cfg.Key) && (!q.res.HasData || q.res.IsPreviousData || at.After(q.res.UpdatedAt)) {
			q.res.Data, q.res.HasData, q.res.UpdatedAt = v, true, at
			q.res.IsPreviousData = false
			q.res.Status, q.res.Err = StatusSuccess, nil
		}
		q.mu.Unlock()
		if time.Since(at) < s.staleTime {
			return
		}
	}
	if hasOwn {
		return
	}

	done := q.start(ctx)
	if s.suspense {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
}

// Result returns the current snapshot without blocking.
func (q *Query[T]) Result() Result[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.res
}

// Wait blocks until the fetch in flight (if any) settles or ctx is done, then
// returns the current snapshot.
func (q *Query[T]) Wait(ctx context.Context) Result[T] {
	q.mu.Lock()
	done := q.done
	q.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return q.Result()
}

// Refetch requests fresh data for the current key regardless of staleness and
// waits for it. Gated queries are left alone.
func (q *Query[T]) Refetch(ctx context.Context) Result[T] {
	q.mu.Lock()
	ok := q.started && !q.closed && q.set.enabled && q.cfg.Fn != nil && q.cfg.Key.Err() == nil
	q.mu.Unlock()
	if !ok {
		return q.Result()
	}
	q.start(ctx)
	return q.Wait(ctx)
}

// Close unmounts the query and cancels its fetch. The last snapshot stays readable.
func (q *Query[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.abortLocked()
	q.mu.Unlock()
	q.c.unmount(q)
}

func (q *Query[T]) scope() (string, string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cfg.Key.Endpoint(), q.sk
}

func (q *Query[T]) refetch(ctx context.Context, r refetchReason) {
	q.mu.Lock()
	if q.closed || !q.set.enabled || q.cfg.Fn == nil {
		q.mu.Unlock()
		return
	}
	switch r {
	case reasonFocus:
		if !q.set.refetchOnFocus || !q.staleLocked() || q.done != nil {
			q.mu.Unlock()
			return
		}
	case reasonInvalidate:
		// a request already in flight may finish with pre-invalidation data
		q.abortLocked()
	}
	q.mu.Unlock()
	q.start(ctx)
}

func (q *Query[T]) staleLocked() bool {
	if !q.res.HasData || q.res.IsPreviousData {
		return true
	}
	return time.Since(q.res.UpdatedAt) >= q.set.staleTime
}

// start launches a fetch for the current key unless one is in flight and
// returns the channel closed when it settles.
func (q *Query[T]) start(parent context.Context) <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done != nil {
		return q.done
	}
	ctx, cancel := context.WithCancel(parent)
	q.seq++
	seq := q.seq
	done := make(chan struct{})
	q.cancel, q.done = cancel, done
	q.res.IsFetching = true
	if !q.res.HasData {
		q.res.Status = StatusLoading
	}

	cfg := q.cfg
	go func() {
		defer close(done)
		defer cancel()
		v, at, err := fetchShared(ctx, q.c, cfg.Key, cfg.Fn, cfg.Codec)
		q.settle(seq, v, at, err)
	}()
	return done
}

func (q *Query[T]) settle(seq uint64, v T, at time.Time, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if seq != q.seq {
		return // superseded by a re-key, invalidation or close
	}
	q.cancel, q.done = nil, nil
	q.res.IsFetching = false
	if err != nil {
		q.res.Err, q.res.Status = err, StatusError
		if q.res.IsPreviousData {
			var zero T
			q.res.Data, q.res.HasData, q.res.IsPreviousData = zero, false, false
			q.res.UpdatedAt = time.Time{}
		}
		return
	}
	q.res.Data, q.res.HasData, q.res.UpdatedAt = v, true, at
	q.res.Err, q.res.Status, q.res.IsPreviousData = nil, StatusSuccess, false
}

func (q *Query[T]) fail(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.res.Err, q.res.Status = err, StatusError
}

// abortLocked cancels the fetch in flight; its result is discarded.
func (q *Query[T]) abortLocked() {
	if q.cancel != nil {
		q.cancel()
	}
	q.seq++
	q.cancel, q.done = nil, nil
	q.res.IsFetching = false
}
