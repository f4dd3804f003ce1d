package codec

import (
	"testing"
	"time"
)

type visit struct {
	ID      string    `json:"id"`
	Taken   time.Time `json:"taken"`
	Reading float64   `json:"reading,omitempty"`
}

func TestCodecsKeepJSONFieldNames(t *testing.T) {
	in := visit{ID: "v1", Taken: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Reading: 98.6}

	cb, err := NewCBOR[visit](true)
	if err != nil {
		t.Fatalf("NewCBOR: %v", err)
	}
	for name, c := range map[string]Codec[visit]{
		"msgpack": Msgpack[visit]{},
		"json":    JSON[visit]{},
		"cbor":    cb,
	} {
		b, err := c.Encode(in)
		if err != nil {
			t.Fatalf("%s encode: %v", name, err)
		}
		out, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}
		if out.ID != in.ID || !out.Taken.Equal(in.Taken) || out.Reading != in.Reading {
			t.Fatalf("%s: got %+v want %+v", name, out, in)
		}
	}
}

func TestLimitRejectsOversizedPayload(t *testing.T) {
	c := Limit[visit]{Inner: JSON[visit]{}, MaxDecode: 8}
	b, err := c.Encode(visit{ID: "long-enough-to-trip"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := c.Decode(b); err == nil {
		t.Fatalf("expected size error")
	}

	c.MaxDecode = 0
	if _, err := c.Decode(b); err != nil {
		t.Fatalf("limit disabled, got %v", err)
	}
}
