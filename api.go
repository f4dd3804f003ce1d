package querycache

import (
	"time"

	gen "github.com/unkn0wn-root/querycache/genstore"
	pr "github.com/unkn0wn-root/querycache/provider"
)

// SetCostFunc reports the cost charged to the provider for a stored entry.
type SetCostFunc func(storageKey string, raw []byte) int64

// Options configure a Client. Only Namespace and Provider are required.
type Options struct {
	// Required
	Namespace string // isolates keys when a provider is shared, e.g. "care:prod"
	Provider  pr.Provider

	Logger          Logger        // nil => NopLogger
	Hooks           Hooks         // nil => NopHooks
	GenStore        gen.GenStore  // nil => genstore.Local owned by the client
	Defaults        QueryOptions  // applied under every query's own options
	CacheTime       time.Duration // provider TTL of stored results; 0 => 5m
	CleanupInterval time.Duration // local genstore sweep; 0 => 1h
	GenRetention    time.Duration // local genstore retention; 0 => 24h
	ComputeSetCost  SetCostFunc   // nil => len(raw)
	Disabled        bool          // skip storage entirely; requests are still deduplicated
}

func New(opts Options) (*Client, error) {
	return newClient(opts)
}
