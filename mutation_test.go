package querycache

import (
	"context"
	"errors"
	"testing"
)

type audit struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

func TestMutationSuccessRunsCallbacksAndInvalidates(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, nil)
	k := NewKey("AUDITS", pageParams{Page: 1})
	if err := SetQueryData(ctx, c, k, page{N: 1}, nil); err != nil {
		t.Fatal(err)
	}

	var order []string
	m := NewMutation(c, func(_ context.Context, in audit) (audit, error) {
		order = append(order, "fn")
		in.ID = "a-1"
		return in, nil
	}, MutationOptions[audit, audit]{
		OnMutate:    func(context.Context, audit) { order = append(order, "mutate") },
		OnSuccess:   func(context.Context, audit, audit) { order = append(order, "success") },
		OnError:     func(context.Context, error, audit) { order = append(order, "error") },
		OnSettled:   func(context.Context, audit, error, audit) { order = append(order, "settled") },
		Invalidates: []string{"AUDITS"},
	})

	out, err := m.Mutate(ctx, audit{Action: "login"})
	if err != nil || out.ID != "a-1" {
		t.Fatalf("Mutate=%+v err=%v", out, err)
	}
	want := []string{"mutate", "fn", "success", "settled"}
	if len(order) != len(want) {
		t.Fatalf("order=%v want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order=%v want %v", order, want)
		}
	}
	if res := m.Result(); res.Status != StatusSuccess || !res.HasData || res.Data.ID != "a-1" {
		t.Fatalf("result=%+v", res)
	}
	if _, ok := GetQueryData[page](ctx, c, k, nil); ok {
		t.Fatalf("AUDITS not invalidated after mutation")
	}
}

func TestMutationErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, nil)
	k := NewKey("AUDITS")
	if err := SetQueryData(ctx, c, k, page{N: 1}, nil); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("422 unprocessable")
	var gotErr error
	m := NewMutation(c, func(context.Context, audit) (audit, error) { return audit{}, boom },
		MutationOptions[audit, audit]{
			OnError:     func(_ context.Context, err error, _ audit) { gotErr = err },
			Invalidates: []string{"AUDITS"},
		})

	if _, err := m.Mutate(ctx, audit{}); err != boom {
		t.Fatalf("error transformed: %v", err)
	}
	if gotErr != boom {
		t.Fatalf("OnError got %v", gotErr)
	}
	if res := m.Result(); res.Status != StatusError || res.Err != boom || res.HasData {
		t.Fatalf("result=%+v", res)
	}
	if _, ok := GetQueryData[page](ctx, c, k, nil); !ok {
		t.Fatalf("failed mutation must not invalidate")
	}

	m.Reset()
	if res := m.Result(); res.Status != StatusIdle || res.Err != nil {
		t.Fatalf("after Reset: %+v", res)
	}
}
