package querycache

import "time"

// QueryOptions tune a single query. Nil fields are unset and never override
// anything, so options can be layered:
//
//	built-in defaults < Options.Defaults < wrapper defaults < caller overrides
//
// Build overrides with Bool and Duration, e.g.
//
//	QueryOptions{Suspense: querycache.Bool(false)}
type QueryOptions struct {
	// Enabled=false gates the query: no request is made until it is re-keyed
	// or updated with Enabled=true. Default true.
	Enabled *bool
	// RefetchOnWindowFocus refetches stale data on Client.Focus. Default true.
	RefetchOnWindowFocus *bool
	// KeepPreviousData keeps the previous key's data readable while the new
	// key loads. Default false.
	KeepPreviousData *bool
	// Suspense makes Run and Update block until the first result settles.
	// Default false.
	Suspense *bool
	// StaleTime is how long fetched data counts as fresh. Default 0 (always stale).
	StaleTime *time.Duration
}

func Bool(b bool) *bool                       { return &b }
func Duration(d time.Duration) *time.Duration { return &d }

// Merge returns o with every set field of over applied in order; later wins.
func (o QueryOptions) Merge(over ...QueryOptions) QueryOptions {
	for _, x := range over {
		if x.Enabled != nil {
			o.Enabled = x.Enabled
		}
		if x.RefetchOnWindowFocus != nil {
			o.RefetchOnWindowFocus = x.RefetchOnWindowFocus
		}
		if x.KeepPreviousData != nil {
			o.KeepPreviousData = x.KeepPreviousData
		}
		if x.Suspense != nil {
			o.Suspense = x.Suspense
		}
		if x.StaleTime != nil {
			o.StaleTime = x.StaleTime
		}
	}
	return o
}

// settings are QueryOptions with every field decided.
type settings struct {
	enabled        bool
	refetchOnFocus bool
	keepPrevious   bool
	suspense       bool
	staleTime      time.Duration
}

func resolve(layers ...QueryOptions) settings {
	o := QueryOptions{}.Merge(layers...)
	return settings{
		enabled:        pick(true, o.Enabled),
		refetchOnFocus: pick(true, o.RefetchOnWindowFocus),
		keepPrevious:   pick(false, o.KeepPreviousData),
		suspense:       pick(false, o.Suspense),
		staleTime:      pick(time.Duration(0), o.StaleTime),
	}
}
