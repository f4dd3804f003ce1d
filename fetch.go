package querycache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/unkn0wn-root/querycache/codec"
)

// flight is the shared request for one storage key. Its context is detached
// from any single caller and cancelled once every caller has left. key is the
// singleflight key: unique per flight, so a detached flight is never joined.
type flight struct {
	key    string
	ctx    context.Context
	cancel context.CancelFunc
	refs   int
}

type fetched[T any] struct {
	v  T
	at time.Time
}

// QueryFunc issues the request for one key. ctx is the cancellation handle:
// it is cancelled when every observer waiting on the request goes away.
type QueryFunc[T any] func(ctx context.Context) (T, error)

// fetchShared runs fn at most once at a time per key. Callers that arrive
// while a request is in flight wait for it instead of issuing their own.
// Errors from fn are returned unchanged, except that a request cancelled by
// Client.Close reports ErrClosed.
func fetchShared[T any](ctx context.Context, c *Client, k Key, fn QueryFunc[T], cd codec.Codec[T]) (T, time.Time, error) {
	var zero T
	if c.closed.Load() {
		return zero, time.Time{}, ErrClosed
	}
	if err := k.Err(); err != nil {
		return zero, time.Time{}, err
	}
	sk := c.storageKey(k)

	c.flightMu.Lock()
	f := c.flights[sk]
	if f == nil {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.flightSeq++
		f = &flight{key: sk + "#" + strconv.FormatUint(c.flightSeq, 10), ctx: fctx, cancel: cancel}
		c.flights[sk] = f
	}
	f.refs++
	ch := c.sf.DoChan(f.key, func() (any, error) {
		return load(f.ctx, c, k, fn, cd)
	})
	c.flightMu.Unlock()

	select {
	case r := <-ch:
		c.leave(sk, f, false)
		if r.Shared {
			c.hooks.FetchShared(sk)
		}
		if r.Err != nil {
			if c.closed.Load() && errors.Is(r.Err, context.Canceled) {
				return zero, time.Time{}, ErrClosed
			}
			return zero, time.Time{}, r.Err
		}
		res, ok := r.Val.(fetched[T])
		if !ok {
			return zero, time.Time{}, fmt.Errorf("%w %s: got %T", ErrResultType, k, r.Val)
		}
		return res.v, res.at, nil
	case <-ctx.Done():
		c.leave(sk, f, true)
		return zero, time.Time{}, ctx.Err()
	}
}

func (c *Client) leave(sk string, f *flight, abandoned bool) {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	f.refs--
	if f.refs > 0 {
		return
	}
	if c.flights[sk] == f {
		delete(c.flights, sk)
	}
	if abandoned {
		// the cancelled request must not be joined by later callers
		c.sf.Forget(f.key)
	}
	f.cancel()
}

// detach drops the flights whose storage key matches so the next caller
// starts a new request. Callers already waiting keep their flight; it is
// cancelled once they all leave.
func (c *Client) detach(match func(sk string) bool) {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	for sk, f := range c.flights {
		if match(sk) {
			delete(c.flights, sk)
			c.sf.Forget(f.key)
		}
	}
}

func load[T any](ctx context.Context, c *Client, k Key, fn QueryFunc[T], cd codec.Codec[T]) (any, error) {
	observed, genErr := c.snapshot(ctx, k)

	v, err := fn(ctx)
	if err != nil {
		c.hooks.FetchFailed(k.String(), err)
		c.log.Debug("fetch failed", Fields{"key": k.String(), "err": err})
		return nil, err
	}
	at := time.Now()

	if genErr == nil && c.enabled {
		payload, err := cd.Encode(v)
		if err != nil {
			c.log.Warn("encode result failed", Fields{"key": k.String(), "err": err})
		} else if err := c.writeEntry(ctx, k, observed, at, payload); err != nil {
			c.log.Warn("store result failed", Fields{"key": k.String(), "err": err})
		}
	}
	return fetched[T]{v: v, at: at}, nil
}

// readCached decodes the stored result for k, if any.
func readCached[T any](ctx context.Context, c *Client, k Key, cd codec.Codec[T]) (T, time.Time, bool) {
	var zero T
	if k.Err() != nil {
		return zero, time.Time{}, false
	}
	e, raw, ok := c.readEntry(ctx, k)
	if !ok {
		return zero, time.Time{}, false
	}
	v, err := cd.Decode(e.Payload)
	if err != nil {
		c.heal(ctx, c.storageKey(k), raw, "value_decode")
		return zero, time.Time{}, false
	}
	return v, e.UpdatedAt, true
}

// Prefetch warms the cache for cfg unless a fresh result is already stored.
// Gated configs are skipped.
func Prefetch[T any](ctx context.Context, c *Client, cfg QueryConfig[T]) error {
	cfg = cfg.withDefaults()
	if cfg.Fn == nil {
		return ErrNoQueryFn
	}
	s := resolve(c.defaults, cfg.Options)
	if !s.enabled {
		return nil
	}
	if _, at, ok := readCached(ctx, c, cfg.Key, cfg.Codec); ok && time.Since(at) < s.staleTime {
		return nil
	}
	_, _, err := fetchShared(ctx, c, cfg.Key, cfg.Fn, cfg.Codec)
	return err
}

// GetQueryData returns the stored result for key without fetching.
// A nil codec means msgpack.
func GetQueryData[T any](ctx context.Context, c *Client, key Key, cd codec.Codec[T]) (T, bool) {
	if cd == nil {
		cd = codec.Msgpack[T]{}
	}
	v, _, ok := readCached(ctx, c, key, cd)
	return v, ok
}

// SetQueryData stores v as the current result for key, e.g. the body returned
// by a mutation. Mounted queries pick it up on their next read.
func SetQueryData[T any](ctx context.Context, c *Client, key Key, v T, cd codec.Codec[T]) error {
	if err := key.Err(); err != nil {
		return err
	}
	if cd == nil {
		cd = codec.Msgpack[T]{}
	}
	payload, err := cd.Encode(v)
	if err != nil {
		return err
	}
	observed, err := c.snapshot(ctx, key)
	if err != nil {
		return err
	}
	return c.writeEntry(ctx, key, observed, time.Now(), payload)
}
