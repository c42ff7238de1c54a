package history

import "errors"

// ErrInvalidCapacity is returned when a buffer is constructed with capacity < 1.
var ErrInvalidCapacity = errors.New("history capacity must be >= 1")

type slot[T any] struct {
	value   T
	present bool
}

// Buffer is a fixed-capacity circular undo stack. It retains at most Cap()-1
// snapshots: the cell after the cursor is always kept empty and marks the
// bottom of the stack, so a push into a full buffer overwrites the oldest
// snapshot without any explicit full check.
//
// A Buffer is not safe for concurrent use.
type Buffer[T any] struct {
	slots  []slot[T]
	cursor int
	count  int
}

// New constructs a buffer with the given capacity. A capacity of 1 is
// accepted; such a buffer never retains a snapshot.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Buffer[T]{slots: make([]slot[T], capacity)}, nil
}

// Push stores v as the newest snapshot, silently evicting the oldest one
// when the buffer is full.
func (b *Buffer[T]) Push(v T) {
	b.cursor = b.next(b.cursor)
	b.slots[b.cursor] = slot[T]{value: v, present: true}
	b.slots[b.next(b.cursor)] = slot[T]{}
	if b.count < len(b.slots)-1 {
		b.count++
	}
}

// Pop removes and returns the newest snapshot. The boolean is false when the
// buffer is empty, in which case the cursor does not move.
func (b *Buffer[T]) Pop() (T, bool) {
	s := b.slots[b.cursor]
	if !s.present {
		var zero T
		return zero, false
	}
	b.slots[b.cursor] = slot[T]{}
	b.cursor = b.prev(b.cursor)
	b.count--
	return s.value, true
}

// Peek returns the newest snapshot without removing it.
func (b *Buffer[T]) Peek() (T, bool) {
	s := b.slots[b.cursor]
	return s.value, s.present
}

// Each calls fn for every retained snapshot from newest (age 0) to oldest
// and stops early when fn returns false.
func (b *Buffer[T]) Each(fn func(age int, v T) bool) {
	idx := b.cursor
	for age := 0; age < b.count; age++ {
		if !fn(age, b.slots[idx].value) {
			return
		}
		idx = b.prev(idx)
	}
}

// Clear drops every retained snapshot.
func (b *Buffer[T]) Clear() {
	for i := range b.slots {
		b.slots[i] = slot[T]{}
	}
	b.cursor = 0
	b.count = 0
}

// Len returns the number of retrievable snapshots.
func (b *Buffer[T]) Len() int { return b.count }

// Cap returns the fixed slot count. At most Cap()-1 snapshots are retained.
func (b *Buffer[T]) Cap() int { return len(b.slots) }

func (b *Buffer[T]) next(i int) int {
	i++
	if i == len(b.slots) {
		return 0
	}
	return i
}

func (b *Buffer[T]) prev(i int) int {
	if i == 0 {
		return len(b.slots) - 1
	}
	return i - 1
}
