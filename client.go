package querycache

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	gen "github.com/unkn0wn-root/querycache/genstore"
	"github.com/unkn0wn-root/querycache/internal/wire"
	pr "github.com/unkn0wn-root/querycache/provider"
)

const (
	defaultCacheTime    = 5 * time.Minute
	defaultSweep        = time.Hour
	defaultGenRetention = 24 * time.Hour
)

// Client is the shared store behind every query and mutation.
// It is safe for concurrent use.
type Client struct {
	ns             string
	provider       pr.Provider
	gens           gen.GenStore
	ownsGens       bool
	log            Logger
	hooks          Hooks
	defaults       QueryOptions
	cacheTime      time.Duration
	computeSetCost SetCostFunc
	enabled        bool

	sf        singleflight.Group
	flightMu  sync.Mutex
	flights   map[string]*flight
	flightSeq uint64 // guarded by flightMu

	obsMu     sync.Mutex
	observers map[observer]struct{}

	closed    atomic.Bool
	closeOnce sync.Once
}

// observer is a mounted query that reacts to focus and invalidation.
type observer interface {
	scope() (endpoint, storageKey string)
	refetch(ctx context.Context, r refetchReason)
}

type refetchReason uint8

const (
	reasonFocus refetchReason = iota
	reasonInvalidate
)

// genPair is the pair of generations an entry is written under.
type genPair struct {
	scope uint64
	key   uint64
}

func newClient(opts Options) (*Client, error) {
	if opts.Provider == nil {
		return nil, ErrNoProvider
	}
	if opts.Namespace == "" {
		return nil, ErrNamespace
	}

	c := &Client{
		ns:        opts.Namespace,
		provider:  opts.Provider,
		defaults:  opts.Defaults,
		enabled:   !opts.Disabled,
		flights:   make(map[string]*flight),
		observers: make(map[observer]struct{}),
	}

	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.cacheTime = coalesce(opts.CacheTime, defaultCacheTime)

	if opts.ComputeSetCost != nil {
		c.computeSetCost = opts.ComputeSetCost
	} else {
		c.computeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}

	if opts.GenStore != nil {
		c.gens = opts.GenStore
	} else {
		c.gens = gen.NewLocal(
			coalesce(opts.CleanupInterval, defaultSweep),
			coalesce(opts.GenRetention, defaultGenRetention),
		)
		c.ownsGens = true
	}
	return c, nil
}

func (c *Client) Enabled() bool { return c.enabled }

// Close cancels in-flight requests and releases the provider. Queries whose
// fetch is cancelled this way, and any later fetch, settle with ErrClosed.
func (c *Client) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.flightMu.Lock()
		for _, f := range c.flights {
			f.cancel()
			c.sf.Forget(f.key)
		}
		c.flights = make(map[string]*flight)
		c.flightMu.Unlock()

		if c.ownsGens {
			_ = c.gens.Close(ctx)
		}
		err = c.provider.Close(ctx)
	})
	return err
}

// Focus signals that the application regained focus (window focus, resume,
// reconnect). Mounted queries with RefetchOnWindowFocus whose data is stale
// refetch in the background.
func (c *Client) Focus(ctx context.Context) {
	for _, o := range c.mounted() {
		o.refetch(context.WithoutCancel(ctx), reasonFocus)
	}
}

// Invalidate marks every stored result under endpoint as unreadable and
// refetches mounted queries for that endpoint in the background. A request in
// flight while Invalidate runs will not store its result, and no caller
// arriving afterwards joins it.
func (c *Client) Invalidate(ctx context.Context, endpoint string) error {
	scope := endpointScope(endpoint)
	if _, err := c.gens.Bump(ctx, scope); err != nil {
		c.hooks.GenBumpError(scope, err)
		c.log.Error("endpoint invalidation failed", Fields{"endpoint": endpoint, "err": err})
		return &InvalidateError{Key: endpoint, BumpErr: err}
	}
	c.log.Debug("invalidated endpoint", Fields{"endpoint": endpoint})

	prefix := c.endpointPrefix(endpoint)
	c.detach(func(sk string) bool { return strings.HasPrefix(sk, prefix) })

	for _, o := range c.mounted() {
		if ep, _ := o.scope(); ep == endpoint {
			o.refetch(context.WithoutCancel(ctx), reasonInvalidate)
		}
	}
	return nil
}

// InvalidateKey is Invalidate for a single key.
func (c *Client) InvalidateKey(ctx context.Context, key Key) error {
	if err := key.Err(); err != nil {
		return err
	}
	sk := c.storageKey(key)
	scope := keyScope(key)

	_, bumpErr := c.gens.Bump(ctx, scope)
	delErr := c.provider.Del(ctx, sk)
	if bumpErr != nil {
		c.hooks.GenBumpError(scope, bumpErr)
		if delErr != nil {
			c.hooks.InvalidateOutage(sk, bumpErr, delErr)
		}
		return &InvalidateError{Key: key.String(), BumpErr: bumpErr, DelErr: delErr}
	}
	c.log.Debug("invalidated key", Fields{"key": key.String()})

	c.detach(func(osk string) bool { return osk == sk })

	for _, o := range c.mounted() {
		if _, osk := o.scope(); osk == sk {
			o.refetch(context.WithoutCancel(ctx), reasonInvalidate)
		}
	}
	return nil
}

func (c *Client) mount(o observer) {
	c.obsMu.Lock()
	c.observers[o] = struct{}{}
	c.obsMu.Unlock()
}

func (c *Client) unmount(o observer) {
	c.obsMu.Lock()
	delete(c.observers, o)
	c.obsMu.Unlock()
}

func (c *Client) mounted() []observer {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	out := make([]observer, 0, len(c.observers))
	for o := range c.observers {
		out = append(out, o)
	}
	return out
}

func (c *Client) storageKey(k Key) string {
	return c.endpointPrefix(k.Endpoint()) + k.Hash()
}

func (c *Client) endpointPrefix(endpoint string) string {
	return "q:" + c.ns + ":" + endpoint + ":"
}

func endpointScope(endpoint string) string { return "ep:" + endpoint }
func keyScope(k Key) string                { return "key:" + k.Endpoint() + ":" + k.Hash() }

func (c *Client) snapshot(ctx context.Context, k Key) (genPair, error) {
	ep, ks := endpointScope(k.Endpoint()), keyScope(k)
	m, err := c.gens.SnapshotMany(ctx, []string{ep, ks})
	if err != nil {
		c.hooks.GenSnapshotError(2, err)
		return genPair{}, err
	}
	return genPair{scope: m[ep], key: m[ks]}, nil
}

// readEntry returns the stored entry for k, and its raw bytes, if it is intact
// and was written under the current generations. Anything else is deleted.
func (c *Client) readEntry(ctx context.Context, k Key) (wire.Entry, []byte, bool) {
	if !c.enabled || c.closed.Load() {
		return wire.Entry{}, nil, false
	}
	sk := c.storageKey(k)
	raw, ok, err := c.provider.Get(ctx, sk)
	if err != nil {
		c.log.Warn("provider get failed", Fields{"key": sk, "err": err})
		return wire.Entry{}, nil, false
	}
	if !ok {
		return wire.Entry{}, nil, false
	}
	e, err := wire.Decode(raw)
	if err != nil {
		c.heal(ctx, sk, raw, "corrupt")
		return wire.Entry{}, nil, false
	}
	cur, err := c.snapshot(ctx, k)
	if err != nil {
		// can't tell whether it's stale; miss without deleting
		return wire.Entry{}, nil, false
	}
	if e.ScopeGen != cur.scope || e.KeyGen != cur.key {
		c.heal(ctx, sk, raw, "gen_mismatch")
		return wire.Entry{}, nil, false
	}
	return e, raw, true
}

// writeEntry stores payload iff the generations observed before the request
// are still current.
func (c *Client) writeEntry(ctx context.Context, k Key, observed genPair, at time.Time, payload []byte) error {
	if !c.enabled || c.closed.Load() {
		return nil
	}
	sk := c.storageKey(k)
	cur, err := c.snapshot(ctx, k)
	if err != nil {
		return err
	}
	if cur != observed {
		c.hooks.WriteSkipped(sk)
		c.log.Debug("store skipped (gen moved)", Fields{"key": k.String()})
		return nil
	}
	raw := wire.Encode(wire.Entry{ScopeGen: observed.scope, KeyGen: observed.key, UpdatedAt: at, Payload: payload})
	ok, err := c.provider.Set(ctx, sk, raw, c.computeSetCost(sk, raw), c.cacheTime)
	if err != nil {
		return err
	}
	if !ok {
		c.hooks.ProviderSetRejected(sk)
		c.log.Debug("store rejected by provider (pressure)", Fields{"key": k.String()})
	}
	return nil
}

// heal deletes the entry read as bad. It is best effort: the entry is only
// deleted if it still holds bad, but a write landing between that check and
// the delete is lost and costs one extra fetch.
func (c *Client) heal(ctx context.Context, sk string, bad []byte, reason string) {
	cur, ok, err := c.provider.Get(ctx, sk)
	if err != nil || !ok || !bytes.Equal(cur, bad) {
		return
	}
	_ = c.provider.Del(ctx, sk)
	c.hooks.SelfHeal(sk, reason)
}
