package genstore

import (
	"context"
	"testing"
	"time"
)

func TestLocalSnapshotManyIncludesAllAndZeroForMissing(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	scopes := []string{"ep:CLIENTS", "ep:AUDITS", "key:CLIENTS:abc"}
	for i := 0; i < 2; i++ {
		if _, err := s.Bump(ctx, "ep:AUDITS"); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.SnapshotMany(ctx, scopes)
	if err != nil {
		t.Fatal(err)
	}
	if got["ep:CLIENTS"] != 0 || got["ep:AUDITS"] != 2 || got["key:CLIENTS:abc"] != 0 {
		t.Fatalf("got=%v want CLIENTS=0,AUDITS=2,key=0", got)
	}
}

func TestLocalBumpIsMonotonic(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	var last uint64
	for i := 0; i < 5; i++ {
		g, err := s.Bump(ctx, "ep:PATIENTS")
		if err != nil {
			t.Fatal(err)
		}
		if g <= last {
			t.Fatalf("gen went from %d to %d", last, g)
		}
		last = g
	}
}

func TestLocalCleanupPrunesOld(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, time.Second)
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Bump(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1200 * time.Millisecond)
	if _, err := s.Bump(ctx, "recent"); err != nil {
		t.Fatal(err)
	}
	s.Cleanup(time.Second)

	if g, _ := s.Snapshot(ctx, "old"); g != 0 {
		t.Fatalf("expected pruned -> 0, got %d", g)
	}
	if g, _ := s.Snapshot(ctx, "recent"); g != 1 {
		t.Fatalf("recent scope pruned, got %d", g)
	}
}

func TestLocalCloseIsIdempotent(t *testing.T) {
	s := NewLocal(10*time.Millisecond, time.Minute)
	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
}
