package querycache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/querycache/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu sync.Mutex
	m  map[string]memEntry
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.mu.Lock()
	p.m[key] = memEntry{v: append([]byte(nil), value...), exp: exp}
	p.mu.Unlock()
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *memProvider) Close(_ context.Context) error { return nil }

func (p *memProvider) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[key]
	return ok
}

type recHooks struct {
	NopHooks
	mu      sync.Mutex
	heals   []string
	skipped int
	failed  int
}

func (h *recHooks) SelfHeal(_ string, reason string) {
	h.mu.Lock()
	h.heals = append(h.heals, reason)
	h.mu.Unlock()
}

func (h *recHooks) WriteSkipped(string) {
	h.mu.Lock()
	h.skipped++
	h.mu.Unlock()
}

func (h *recHooks) FetchFailed(string, error) {
	h.mu.Lock()
	h.failed++
	h.mu.Unlock()
}

type page struct {
	N     int      `json:"n"`
	Items []string `json:"items"`
}

type pageParams struct {
	Page   int    `json:"page,omitempty"`
	Search string `json:"search,omitempty"`
}

// counter is a request function that counts calls and can be held open.
type counter struct {
	calls atomic.Int32
	gate  chan struct{} // nil => return immediately
	err   error
}

func (c *counter) fn(n int) QueryFunc[page] {
	return func(ctx context.Context) (page, error) {
		c.calls.Add(1)
		if c.gate != nil {
			select {
			case <-c.gate:
			case <-ctx.Done():
				return page{}, ctx.Err()
			}
		}
		if c.err != nil {
			return page{}, c.err
		}
		return page{N: n, Items: []string{"a", "b"}}, nil
	}
}

// numbered returns N = call number; only the first call waits on gate.
func numbered(calls *atomic.Int32, gate chan struct{}) QueryFunc[page] {
	return func(ctx context.Context) (page, error) {
		n := calls.Add(1)
		if n == 1 {
			select {
			case <-gate:
			case <-ctx.Done():
				return page{}, ctx.Err()
			}
		}
		return page{N: int(n)}, nil
	}
}

func newTestClient(t *testing.T, optsOpt func(*Options)) (*Client, *memProvider) {
	t.Helper()
	mp := newMemProvider()
	opts := Options{Namespace: "test", Provider: mp}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, mp
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func clientsKey(p int) Key { return NewKey("CLIENTS", pageParams{Page: p}) }

func suspense() QueryOptions { return QueryOptions{Suspense: Bool(true)} }
