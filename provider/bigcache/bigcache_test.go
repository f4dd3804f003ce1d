package bigcache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Minute, MaxEntriesInWindow: 100, MaxEntrySize: 256})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	val := []byte("QRYC payload")
	if ok, err := p.Set(ctx, "q:test:STATES:1", val, 0, 0); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	got, hit, err := p.Get(ctx, "q:test:STATES:1")
	if err != nil || !hit || !bytes.Equal(got, val) {
		t.Fatalf("Get: hit=%v err=%v got=%q", hit, err, got)
	}

	if err := p.Del(ctx, "q:test:STATES:1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, hit, _ := p.Get(ctx, "q:test:STATES:1"); hit {
		t.Fatal("entry still present after Del")
	}
	// deleting a missing key is not an error
	if err := p.Del(ctx, "q:test:STATES:1"); err != nil {
		t.Fatalf("Del of missing key: %v", err)
	}
}

func TestRequiresLifeWindow(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without life window")
	}
}
