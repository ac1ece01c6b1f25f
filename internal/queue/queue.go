package queue

// Queue is a generic FIFO. It is not safe for concurrent use; a round owns
// its queues exclusively.
type Queue[T any] struct {
	items []T
	head  int
}

// New creates a queue holding items in order.
func New[T any](items ...T) *Queue[T] {
	q := &Queue[T]{items: make([]T, 0, len(items))}
	q.items = append(q.items, items...)
	return q
}

// Push appends items to the back of the queue.
func (q *Queue[T]) Push(items ...T) {
	q.items = append(q.items, items...)
}

// Pop removes and returns the front item. ok is false when the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	if q.head >= len(q.items) {
		return item, false
	}
	item = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return item, true
}

// Peek returns the front item without removing it.
func (q *Queue[T]) Peek() (item T, ok bool) {
	if q.head >= len(q.items) {
		return item, false
	}
	return q.items[q.head], true
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	return q.head >= len(q.items)
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	return len(q.items) - q.head
}

// Clear removes all items from the queue.
func (q *Queue[T]) Clear() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}

// Reset replaces the contents with items.
func (q *Queue[T]) Reset(items []T) {
	q.Clear()
	q.items = append(q.items, items...)
}

// Items returns a copy of the queued items, front first.
func (q *Queue[T]) Items() []T {
	out := make([]T, q.Len())
	copy(out, q.items[q.head:])
	return out
}
