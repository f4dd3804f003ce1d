package querycache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; they run on fetch and read paths.
type Hooks interface {
	// A stored entry was deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// A fetched result was not stored because its endpoint or key was
	// invalidated while the request was in flight.
	WriteSkipped(storageKey string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// A request function returned an error. key is the printable cache key.
	FetchFailed(key string, err error)

	// A fetch joined a request already in flight for the same key.
	FetchShared(storageKey string)

	// GenStore errors. count is the number of scopes involved.
	GenSnapshotError(count int, err error)
	GenBumpError(scope string, err error)

	// Both gen bump and delete failed during InvalidateKey (likely backend outage).
	InvalidateOutage(key string, bumpErr, delErr error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) WriteSkipped(string)                   {}
func (NopHooks) ProviderSetRejected(string)            {}
func (NopHooks) FetchFailed(string, error)             {}
func (NopHooks) FetchShared(string)                    {}
func (NopHooks) GenSnapshotError(int, error)           {}
func (NopHooks) GenBumpError(string, error)            {}
func (NopHooks) InvalidateOutage(string, error, error) {}
