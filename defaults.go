package querycache

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// pick returns the value of the last non-nil pointer, or def.
func pick[T any](def T, ps ...*T) T {
	out := def
	for _, p := range ps {
		if p != nil {
			out = *p
		}
	}
	return out
}
