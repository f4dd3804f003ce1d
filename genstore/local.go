package genstore

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	gen      uint64
	bumpedAt time.Time
}

// Local keeps generations in process. A scope that has not been bumped for
// longer than retention is forgotten and reads as 0 again; entries written
// before that point are long past their cache time.
type Local struct {
	mu     sync.RWMutex
	gens   map[string]localEntry
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ GenStore = (*Local)(nil)

// NewLocal starts a sweep loop when both cleanupInterval and retention are positive.
func NewLocal(cleanupInterval, retention time.Duration) *Local {
	s := &Local{gens: make(map[string]localEntry)}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go s.sweep(retention)
	}
	return s
}

func (s *Local) sweep(retention time.Duration) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ticker.C:
			s.Cleanup(retention)
		case <-s.stopCh:
			return
		}
	}
}

func (s *Local) Snapshot(_ context.Context, scope string) (uint64, error) {
	s.mu.RLock()
	e := s.gens[scope]
	s.mu.RUnlock()
	return e.gen, nil
}

func (s *Local) SnapshotMany(_ context.Context, scopes []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(scopes))
	s.mu.RLock()
	for _, k := range scopes {
		out[k] = s.gens[k].gen
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *Local) Bump(_ context.Context, scope string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.gens[scope]
	e.gen++
	e.bumpedAt = now
	s.gens[scope] = e
	s.mu.Unlock()
	return e.gen, nil
}

func (s *Local) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.gens {
		if e.bumpedAt.Before(cutoff) {
			delete(s.gens, k)
		}
	}
	s.mu.Unlock()
}

func (s *Local) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stopCh != nil {
			s.ticker.Stop()
			close(s.stopCh)
			s.wg.Wait()
		}
	})
	return nil
}
