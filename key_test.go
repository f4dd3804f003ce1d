package querycache

import (
	"testing"
	"time"
)

func TestKeyDeterministicForEqualParams(t *testing.T) {
	a := NewKey("CLIENTS", pageParams{Page: 1, Search: "ada"})
	b := NewKey("CLIENTS", pageParams{Page: 1, Search: "ada"})
	if !a.Equal(b) || a.Hash() != b.Hash() {
		t.Fatalf("equal params gave different keys: %s vs %s", a.Hash(), b.Hash())
	}

	// map iteration order must not leak into the key
	m1 := map[string]any{"zip": "10001", "state": "NY", "page": 2}
	m2 := map[string]any{"page": 2, "state": "NY", "zip": "10001"}
	if NewKey("ZIP_CODES", m1).Hash() != NewKey("ZIP_CODES", m2).Hash() {
		t.Fatalf("map order changed the key")
	}

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if NewKey("AUDITS", from).Hash() != NewKey("AUDITS", from).Hash() {
		t.Fatalf("time param not deterministic")
	}
}

func TestKeyDiffersWhenAnyFieldDiffers(t *testing.T) {
	base := NewKey("CLIENTS", pageParams{Page: 1})
	cases := map[string]Key{
		"page":     NewKey("CLIENTS", pageParams{Page: 2}),
		"search":   NewKey("CLIENTS", pageParams{Page: 1, Search: "x"}),
		"endpoint": NewKey("CLIENTS_ALL", pageParams{Page: 1}),
		"extra":    NewKey("CLIENTS", pageParams{Page: 1}, "more"),
		"none":     NewKey("CLIENTS"),
	}
	for name, k := range cases {
		if k.Equal(base) || k.Hash() == base.Hash() {
			t.Fatalf("%s: expected different key from %s", name, base)
		}
	}

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if NewKey("AUDITS", t1).Hash() == NewKey("AUDITS", t1.Add(time.Millisecond)).Hash() {
		t.Fatalf("sub-second time difference collapsed")
	}
}

func TestKeyStringAndParts(t *testing.T) {
	k := clientsKey(1)
	if got := k.String(); got != `["CLIENTS",{"page":1}]` {
		t.Fatalf("String=%s", got)
	}
	if k.Endpoint() != "CLIENTS" {
		t.Fatalf("Endpoint=%q", k.Endpoint())
	}
	parts := k.Parts()
	parts[0] = "MUTATED"
	if k.Endpoint() != "CLIENTS" {
		t.Fatalf("Parts leaked internal slice")
	}
	if !(Key{}).IsZero() || k.IsZero() {
		t.Fatalf("IsZero wrong")
	}
}

func TestKeyErrForUnencodableParams(t *testing.T) {
	k := NewKey("VITALS", make(chan int))
	if k.Err() == nil {
		t.Fatalf("expected key error for channel param")
	}
	if k.Equal(k) {
		t.Fatalf("broken key must not equal anything")
	}
}
