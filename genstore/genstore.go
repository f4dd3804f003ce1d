// Package genstore keeps invalidation generations for query scopes.
//
// A scope is either an endpoint ("ep:CLIENTS") or a single cache key
// ("key:CLIENTS:<hash>"). Bumping a scope makes every entry written under an
// older generation unreadable.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, scope string) (uint64, error)
	// SnapshotMany returns gens for many scopes; missing => 0.
	SnapshotMany(ctx context.Context, scopes []string) (map[string]uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, scope string) (uint64, error)
	// Cleanup prunes old metadata if applicable.
	Cleanup(retention time.Duration)
	Close(context.Context) error
}
