package querycache

import (
	"context"
	"sync"
)

// MutationFunc performs a write. Mutations are neither keyed nor cached.
type MutationFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// MutationOptions are passed through untouched by resource wrappers.
// All callbacks are optional and run on the Mutate caller's goroutine.
type MutationOptions[In, Out any] struct {
	OnMutate  func(ctx context.Context, in In)
	OnSuccess func(ctx context.Context, out Out, in In)
	OnError   func(ctx context.Context, err error, in In)
	OnSettled func(ctx context.Context, out Out, err error, in In)
	// Invalidates lists endpoints invalidated after a successful write.
	Invalidates []string
}

type MutationResult[Out any] struct {
	Status  Status
	Data    Out
	HasData bool
	Err     error
}

// Mutation is a reusable write trigger.
type Mutation[In, Out any] struct {
	c    *Client
	fn   MutationFunc[In, Out]
	opts MutationOptions[In, Out]

	mu  sync.Mutex
	res MutationResult[Out]
	seq uint64
}

func NewMutation[In, Out any](c *Client, fn MutationFunc[In, Out], opts MutationOptions[In, Out]) *Mutation[In, Out] {
	return &Mutation[In, Out]{c: c, fn: fn, opts: opts}
}

// Mutate runs the write and returns its outcome. The error from the mutation
// function is returned unchanged; invalidation failures are logged, not returned.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	var zero Out
	if m.c.closed.Load() {
		m.finish(m.begin(), zero, ErrClosed)
		return zero, ErrClosed
	}
	seq := m.begin()
	if m.opts.OnMutate != nil {
		m.opts.OnMutate(ctx, in)
	}

	out, err := m.fn(ctx, in)
	if err != nil {
		if m.opts.OnError != nil {
			m.opts.OnError(ctx, err, in)
		}
	} else {
		for _, ep := range m.opts.Invalidates {
			if ierr := m.c.Invalidate(ctx, ep); ierr != nil {
				m.c.log.Warn("post-mutation invalidate failed", Fields{"endpoint": ep, "err": ierr})
			}
		}
		if m.opts.OnSuccess != nil {
			m.opts.OnSuccess(ctx, out, in)
		}
	}
	if m.opts.OnSettled != nil {
		m.opts.OnSettled(ctx, out, err, in)
	}
	m.finish(seq, out, err)
	return out, err
}

func (m *Mutation[In, Out]) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.res.Status = StatusLoading
	return m.seq
}

func (m *Mutation[In, Out]) finish(seq uint64, out Out, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		return // a later Mutate or Reset owns the state
	}
	if err != nil {
		m.res = MutationResult[Out]{Status: StatusError, Err: err}
		return
	}
	m.res = MutationResult[Out]{Status: StatusSuccess, Data: out, HasData: true}
}

func (m *Mutation[In, Out]) Result() MutationResult[Out] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.res
}

// Reset returns the mutation to idle.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.res = MutationResult[Out]{}
}
