package queue

import (
	"sync"
	"testing"
)

type sample struct {
	Tick uint64
	Name string
}

func TestQueue_New(t *testing.T) {
	q := New[sample]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestQueue_PushPop(t *testing.T) {
	q := New[sample]()

	if _, ok := q.Pop(); ok {
		t.Error("pop from empty queue should report false")
	}

	q.Push(sample{Tick: 1, Name: "first"}, sample{Tick: 2, Name: "second"})
	first, ok := q.Pop()
	if !ok || first.Tick != 1 || first.Name != "first" {
		t.Errorf("expected {1, first}, got %+v", first)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
}

func TestQueue_TakeBatch(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3, 4, 5)

	batch := q.TakeBatch(2)
	if len(batch) != 2 || batch[0] != 1 || batch[1] != 2 {
		t.Errorf("expected [1 2], got %v", batch)
	}

	rest := q.TakeBatch(0)
	if len(rest) != 3 || rest[2] != 5 {
		t.Errorf("expected remaining [3 4 5], got %v", rest)
	}
	if !q.Empty() {
		t.Error("queue should be empty")
	}
	if got := q.TakeBatch(10); len(got) != 0 {
		t.Errorf("expected empty batch, got %v", got)
	}
}

func TestQueue_BatchDoesNotAlias(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)
	batch := q.TakeBatch(1)
	q.Push(9)
	if batch[0] != 1 {
		t.Errorf("batch changed underneath the caller: %v", batch)
	}
}

func TestQueue_BoundedDropsOldest(t *testing.T) {
	q := NewBounded[int](3)

	if n := q.Push(1, 2, 3); n != 0 {
		t.Errorf("expected no drops, got %d", n)
	}
	if n := q.Push(4, 5); n != 2 {
		t.Errorf("expected 2 drops, got %d", n)
	}

	got := q.GetAndEmpty()
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Errorf("expected [3 4 5], got %v", got)
	}
	if q.Dropped() != 2 {
		t.Errorf("expected 2 dropped in total, got %d", q.Dropped())
	}
}

func TestQueue_GetAndEmpty(t *testing.T) {
	q := New[string]()
	q.Push("truck.state", "door.state")

	items := q.GetAndEmpty()
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
	if !q.Empty() {
		t.Error("expected empty queue after GetAndEmpty")
	}

	q.Push("crew.done")
	if items[0] != "truck.state" {
		t.Error("returned slice must not be reused")
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(base*100 + i)
			}
		}(g)
	}
	wg.Wait()

	if q.Len() != 1000 {
		t.Errorf("expected 1000 items, got %d", q.Len())
	}

	var taken int
	var mu sync.Mutex
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				b := q.TakeBatch(37)
				if len(b) == 0 {
					return
				}
				mu.Lock()
				taken += len(b)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if taken != 1000 {
		t.Errorf("expected 1000 taken, got %d", taken)
	}
}
