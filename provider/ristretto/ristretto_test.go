package ristretto

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	val := []byte("QRYC payload")
	ok, err := p.Set(ctx, "q:test:CLIENTS:abc", val, int64(len(val)), time.Minute)
	if err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	got, hit, err := p.Get(ctx, "q:test:CLIENTS:abc")
	if err != nil || !hit || !bytes.Equal(got, val) {
		t.Fatalf("Get: hit=%v err=%v got=%q", hit, err, got)
	}

	if err := p.Del(ctx, "q:test:CLIENTS:abc"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, hit, _ := p.Get(ctx, "q:test:CLIENTS:abc"); hit {
		t.Fatal("entry still present after Del")
	}
}

func TestMissAndInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for zero config")
	}
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(context.Background())
	if _, hit, err := p.Get(context.Background(), "nope"); hit || err != nil {
		t.Fatalf("miss expected, hit=%v err=%v", hit, err)
	}
}
