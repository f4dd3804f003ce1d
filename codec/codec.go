// Package codec turns query results into the bytes a provider stores.
package codec

// Codec encodes/decodes values V to []byte for storage.
// Decode must return a value that shares no memory with other decoded values;
// observers of the same key get independent copies.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
