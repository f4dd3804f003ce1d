package util

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
)

var canonical = mustCanonical()

func mustCanonical() cbor.EncMode {
	eo := cbor.CoreDetEncOptions()
	eo.Time = cbor.TimeRFC3339Nano
	em, err := eo.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// CanonicalHash returns a hex digest of parts encoded as RFC 8949 core
// deterministic CBOR. Map keys are sorted, so equal values always hash equal
// regardless of how they were built.
func CanonicalHash(parts []any) (string, error) {
	b, err := canonical.Marshal(parts)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:16]), nil
}
