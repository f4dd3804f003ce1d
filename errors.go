package querycache

import (
	"errors"
	"fmt"
)

var (
	ErrClosed     = errors.New("querycache: client closed")
	ErrNoProvider = errors.New("querycache: provider is required")
	ErrNamespace  = errors.New("querycache: namespace is required")
	ErrNoQueryFn  = errors.New("querycache: query function is required")
	// ErrResultType means two queries sharing a key disagree on the result type.
	ErrResultType = errors.New("querycache: result type mismatch for key")
)

// KeyError reports params that cannot be encoded into a cache key.
type KeyError struct {
	Endpoint string
	Err      error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("querycache: key for %q: %v", e.Endpoint, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("invalidate %q failed: gen bump and delete failed: bump=%v; delete=%v",
			e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("invalidate %q: gen bump failed: %v", e.Key, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Key, e.DelErr)
	default:
		return fmt.Sprintf("invalidate %q: unknown error", e.Key)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
