package containers

import (
	"errors"
	"testing"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](3)
	if !rq.IsEmpty() {
		t.Fatal("new queue should be empty")
	}
	for i := 1; i <= 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if !rq.IsFull() {
		t.Fatal("queue should be full")
	}
	if err := rq.Enqueue(4); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	if v, _ := rq.Peek(); v != 1 {
		t.Fatalf("peek = %d, want 1", v)
	}
	for want := 1; want <= 3; want++ {
		v, err := rq.Dequeue()
		if err != nil || v != want {
			t.Fatalf("dequeue = %d, %v; want %d", v, err, want)
		}
	}
	if _, err := rq.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}
}

func TestRingQueueWrapsAround(t *testing.T) {
	rq := NewRingQueue[string](2)
	_ = rq.Enqueue("a")
	_ = rq.Enqueue("b")
	_, _ = rq.Dequeue()
	if err := rq.Enqueue("c"); err != nil {
		t.Fatal(err)
	}
	if rq.Len() != 2 {
		t.Fatalf("len = %d, want 2", rq.Len())
	}
	a, _ := rq.Dequeue()
	b, _ := rq.Dequeue()
	if a != "b" || b != "c" {
		t.Fatalf("got %q %q, want b c", a, b)
	}
}

func TestWrapIndex(t *testing.T) {
	cases := []struct{ i, n, want uint32 }{
		{0, 3, 1},
		{1, 3, 2},
		{2, 3, 0},
		{1, 2, 0},
	}
	for _, c := range cases {
		if got := WrapIndex(c.i, c.n); got != c.want {
			t.Errorf("WrapIndex(%d, %d) = %d, want %d", c.i, c.n, got, c.want)
		}
	}
}
