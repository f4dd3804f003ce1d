package querycache

import (
	"encoding/json"
	"fmt"

	"github.com/unkn0wn-root/querycache/internal/util"
)

// Key identifies a cached result: an endpoint tag followed by the params that
// shaped the request, e.g. ["CLIENTS", {page: 1}].
//
// Keys with the same endpoint and equal params (field by field, map order
// ignored) have the same Hash; any differing field gives a different Hash.
// Params are encoded as CBOR, honoring `cbor` then `json` struct tags, so
// omitempty fields make partial filters compare equal to their shorter forms.
type Key struct {
	parts []any
	hash  string
	err   error
}

func NewKey(endpoint string, params ...any) Key {
	parts := make([]any, 0, 1+len(params))
	parts = append(parts, endpoint)
	parts = append(parts, params...)

	h, err := util.CanonicalHash(parts)
	if err != nil {
		err = &KeyError{Endpoint: endpoint, Err: err}
	}
	return Key{parts: parts, hash: h, err: err}
}

// Endpoint returns the leading tag, "" for the zero Key.
func (k Key) Endpoint() string {
	if len(k.parts) == 0 {
		return ""
	}
	s, _ := k.parts[0].(string)
	return s
}

// Parts returns a copy of the key sequence, endpoint first.
func (k Key) Parts() []any {
	return append([]any(nil), k.parts...)
}

func (k Key) Hash() string { return k.hash }

// Err is non-nil when the params could not be encoded. Such a key never
// reaches the request function.
func (k Key) Err() error { return k.err }

func (k Key) Equal(o Key) bool {
	return k.err == nil && o.err == nil && k.hash == o.hash && k.Endpoint() == o.Endpoint()
}

func (k Key) IsZero() bool { return len(k.parts) == 0 }

// String renders the key as JSON, e.g. ["CLIENTS",{"page":1}].
func (k Key) String() string {
	b, err := json.Marshal(k.parts)
	if err != nil {
		return fmt.Sprintf("%v", k.parts)
	}
	return string(b)
}
