// Package spsc provides a bounded, lock-free, single-producer
// single-consumer ring-buffer channel.
//
// # Thread-Safety Guarantees
//
//   - Exactly one goroutine may call Write on a Writer (the producer).
//   - Exactly one goroutine may call Read on a Reader (the consumer).
//   - Any other usage (two writers, two readers, or calling either from
//     more than one goroutine concurrently) is undefined behavior and is
//     not detected at runtime.
//
// # Full/Empty Behavior
//
// Unlike an overwrite-on-full telemetry ring, this channel is strictly
// bounded: Write busy-yields while the buffer is full and Read
// busy-yields while the buffer is empty. Neither side blocks on a kernel
// object and neither allocates once constructed.
package spsc

import (
	"runtime"
	"sync/atomic"

	"github.com/duskcast/streampipe/pkg/cacheline"
)

// buffer is the state shared between a Writer and a Reader. head and tail
// are placed on their own cache lines (via cacheline.Pad) so the
// producer's writes to head never invalidate the consumer's cached copy
// of tail, and vice versa.
type buffer[T any] struct {
	head cacheline.Pad[atomic.Uint64]
	tail cacheline.Pad[atomic.Uint64]
	mask uint64
	cells []cacheline.Pad[T]
}

// Writer is the exclusive write-side endpoint of a channel.
type Writer[T any] struct {
	buf *buffer[T]
}

// Reader is the exclusive read-side endpoint of a channel.
type Reader[T any] struct {
	buf *buffer[T]
}

// Channel constructs a bounded SPSC channel pre-populated with init. The
// length of init is the channel's fixed capacity N and must be a power of
// two; ok is false otherwise and the zero Writer/Reader are returned.
//
// On success head = tail = 0 and the cells hold init unchanged — this is
// a cursor-based channel over always-initialized storage, not a queue of
// uninitialized slots.
func Channel[T any](init []T) (w Writer[T], r Reader[T], ok bool) {
	n := uint64(len(init))
	if n == 0 || n&(n-1) != 0 {
		return Writer[T]{}, Reader[T]{}, false
	}

	cells := make([]cacheline.Pad[T], n)
	for i, v := range init {
		cells[i] = cacheline.New(v)
	}

	buf := &buffer[T]{
		mask:  n - 1,
		cells: cells,
	}

	return Writer[T]{buf: buf}, Reader[T]{buf: buf}, true
}

// Cap returns the channel's fixed capacity N.
func (w Writer[T]) Cap() int { return len(w.buf.cells) }

// Cap returns the channel's fixed capacity N.
func (r Reader[T]) Cap() int { return len(r.buf.cells) }

// Write claims the next slot, invokes op with that slot's index and a
// pointer to its cell, and publishes the slot once op returns. Write
// busy-yields while the buffer is full (head - tail == N) and never
// blocks on a kernel primitive.
//
// op must not retain the pointer past its own return: the writer may
// reuse the cell as soon as the reader later observes and drains it. A
// panic escaping op propagates without publishing the slot, so a reader
// never observes a half-written cell.
func Write[T, S, R any](w Writer[T], args S, op func(index int, cell *T, args S) R) R {
	head := w.buf.head.Value.Load()
	for {
		tail := w.buf.tail.Value.Load()
		// Wrapping subtraction: correct even after head/tail wrap past
		// the width of uint64, per spec.md's "small-delta" note.
		if head-tail != uint64(len(w.buf.cells)) {
			break
		}
		runtime.Gosched()
	}

	index := head & w.buf.mask
	result := op(int(index), &w.buf.cells[index].Value, args)

	w.buf.head.Value.Store(head + 1)
	return result
}

// Read waits for the next published slot, invokes op with a pointer to
// its cell, and releases the slot once op returns. Read busy-yields while
// the buffer is empty (head == tail).
func Read[T, R any](r Reader[T], op func(cell *T) R) R {
	tail := r.buf.tail.Value.Load()
	for {
		head := r.buf.head.Value.Load()
		if head != tail {
			break
		}
		runtime.Gosched()
	}

	index := tail & r.buf.mask
	result := op(&r.buf.cells[index].Value)

	r.buf.tail.Value.Store(tail + 1)
	return result
}
