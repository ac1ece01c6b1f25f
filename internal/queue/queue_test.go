package queue

import (
	"testing"
)

// testItem is a simple struct for testing the generic queue
type testItem struct {
	ID   int
	Name string
}

func TestQueue_New(t *testing.T) {
	q := New[testItem]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}

	seeded := New(1, 2, 3)
	if seeded.Len() != 3 {
		t.Errorf("expected length 3, got %d", seeded.Len())
	}
}

func TestQueue_Push(t *testing.T) {
	q := New[testItem]()

	q.Push(testItem{ID: 1, Name: "first"})
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}

	q.Push(testItem{ID: 2}, testItem{ID: 3})
	if q.Len() != 3 {
		t.Errorf("expected length 3, got %d", q.Len())
	}
}

func TestQueue_Pop(t *testing.T) {
	q := New[testItem]()

	// Pop from empty queue reports false
	result, ok := q.Pop()
	if ok || result.ID != 0 || result.Name != "" {
		t.Errorf("expected zero value and false, got %+v, %v", result, ok)
	}

	q.Push(testItem{ID: 1, Name: "first"}, testItem{ID: 2, Name: "second"})

	result, ok = q.Pop()
	if !ok || result.ID != 1 {
		t.Errorf("expected ID 1, got %+v", result)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1 after pop, got %d", q.Len())
	}

	result, ok = q.Pop()
	if !ok || result.ID != 2 {
		t.Errorf("expected ID 2, got %+v", result)
	}
	if !q.Empty() {
		t.Error("expected empty queue after popping all items")
	}
}

func TestQueue_FIFOOrderAcrossRefills(t *testing.T) {
	q := New[int]()
	next := 0
	for round := 0; round < 5; round++ {
		for i := 0; i < 4; i++ {
			q.Push(round*4 + i)
		}
		for i := 0; i < 3; i++ {
			v, ok := q.Pop()
			if !ok || v != next {
				t.Fatalf("expected %d, got %d (ok=%v)", next, v, ok)
			}
			next++
		}
	}

	for !q.Empty() {
		v, _ := q.Pop()
		if v != next {
			t.Fatalf("expected %d, got %d", next, v)
		}
		next++
	}
	if next != 20 {
		t.Errorf("expected to drain 20 items, drained %d", next)
	}
}

func TestQueue_Peek(t *testing.T) {
	q := New[int]()
	if _, ok := q.Peek(); ok {
		t.Error("expected peek on empty queue to report false")
	}

	q.Push(7, 8)
	v, ok := q.Peek()
	if !ok || v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
	if q.Len() != 2 {
		t.Errorf("peek must not remove, length is %d", q.Len())
	}
}

func TestQueue_ClearAndReset(t *testing.T) {
	q := New(1, 2, 3)
	q.Pop()
	q.Clear()
	if !q.Empty() {
		t.Error("expected empty queue after Clear")
	}

	q.Reset([]int{4, 5})
	got := q.Items()
	if len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Errorf("expected [4 5], got %v", got)
	}
}

func TestQueue_ItemsIsCopy(t *testing.T) {
	q := New(1, 2, 3)
	q.Pop()

	items := q.Items()
	if len(items) != 2 || items[0] != 2 || items[1] != 3 {
		t.Fatalf("expected [2 3], got %v", items)
	}

	items[0] = 99
	v, _ := q.Peek()
	if v != 2 {
		t.Errorf("mutating Items result changed the queue: front is %d", v)
	}
}
