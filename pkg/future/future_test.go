package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFuture_ResolveOnce(t *testing.T) {
	f := New[string]()

	if !f.Resolve("first") {
		t.Fatalf("expected first resolve to settle the future")
	}
	if f.Resolve("second") {
		t.Fatalf("expected second resolve to be ignored")
	}
	if f.Reject(errors.New("late")) {
		t.Fatalf("expected reject after resolve to be ignored")
	}

	v, err := f.Wait(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v != "first" {
		t.Fatalf("expected first, got %s", v)
	}
}

func TestFuture_Peek(t *testing.T) {
	f := New[int]()
	if _, _, ok := f.Peek(); ok {
		t.Fatalf("expected pending future")
	}

	f.Reject(errors.New("boom"))
	_, err, ok := f.Peek()
	if !ok {
		t.Fatalf("expected settled future")
	}
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestFuture_WaitContextCancelled(t *testing.T) {
	f := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestFuture_ManyWaiters(t *testing.T) {
	f := New[int]()

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := f.Wait(context.Background())
			results[i] = v
		}(i)
	}

	f.Resolve(7)
	wg.Wait()

	for i, v := range results {
		if v != 7 {
			t.Fatalf("waiter %d got %d", i, v)
		}
	}
}

func TestResolvedRejected(t *testing.T) {
	if _, _, ok := Resolved(1).Peek(); !ok {
		t.Fatalf("expected resolved future to be settled")
	}
	if _, err, ok := Rejected[int](errors.New("x")).Peek(); !ok || err == nil {
		t.Fatalf("expected rejected future to be settled with error")
	}
}
