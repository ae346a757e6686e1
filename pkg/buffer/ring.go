// Package buffer provides a lock-free SPSC ring buffer of interleaved
// int16 PCM samples — the jitter buffer between the Opus decode path and
// a PortAudio output callback.
package buffer

import (
	"sync/atomic"

	"github.com/duskcast/streampipe/pkg/cacheline"
)

// PCMRing is a lock-free SPSC ring buffer of int16 samples.
//
// The writer goroutine (the WebSocket/decode path) is the sole modifier
// of w. The reader goroutine (the PortAudio callback) is the sole
// modifier of r. Available samples are computed as w - r (modular
// arithmetic on int64). w and r are each wrapped in a cacheline.Pad so
// the producer's and consumer's cursors never share a cache line.
type PCMRing struct {
	w cacheline.Pad[atomic.Int64]
	r cacheline.Pad[atomic.Int64]

	buf    []int16
	size   int64
	closed atomic.Bool
}

// New creates a ring buffer holding capacitySamples int16 samples.
func New(capacitySamples int) *PCMRing {
	return &PCMRing{
		buf:  make([]int16, capacitySamples),
		size: int64(capacitySamples),
	}
}

// Write appends samples to the buffer. Returns the number of samples
// written. Only safe to call from a single producer goroutine.
func (rb *PCMRing) Write(samples []int16) int {
	if rb.closed.Load() {
		return 0
	}

	r := rb.r.Value.Load()
	w := rb.w.Value.Load() // producer owns w, Load is just for clarity here

	avail := rb.size - (w - r)
	n := int64(len(samples))
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}

	pos := w % rb.size
	first := min(n, rb.size-pos)
	copy(rb.buf[pos:pos+first], samples[:first])
	if first < n {
		copy(rb.buf[0:n-first], samples[first:n])
	}

	// Publish the new write position. The store must be atomic so the
	// consumer sees a consistent value.
	rb.w.Value.Store(w + n)
	return int(n)
}

// Read fills out with available samples. Returns the number of samples
// read and whether the buffer is closed with no remaining data. Only
// safe to call from a single consumer goroutine (the PortAudio
// callback).
func (rb *PCMRing) Read(out []int16) (int, bool) {
	w := rb.w.Value.Load()
	r := rb.r.Value.Load() // consumer owns r, Load is just for clarity here

	avail := w - r
	n := int64(len(out))
	if n > avail {
		n = avail
	}

	if n == 0 {
		return 0, rb.closed.Load()
	}

	pos := r % rb.size
	first := min(n, rb.size-pos)
	copy(out[:first], rb.buf[pos:pos+first])
	if first < n {
		copy(out[first:n], rb.buf[0:n-first])
	}

	rb.r.Value.Store(r + n)
	closed := rb.closed.Load() && (r+n) == rb.w.Value.Load()
	return int(n), closed
}

// Length returns the number of unread samples in the buffer.
func (rb *PCMRing) Length() int {
	return int(rb.w.Value.Load() - rb.r.Value.Load())
}

// Close marks the buffer as closed. Subsequent writes return 0. Reads
// continue to drain remaining data.
func (rb *PCMRing) Close() {
	rb.closed.Store(true)
}

// IsClosed reports whether the buffer has been closed.
func (rb *PCMRing) IsClosed() bool {
	return rb.closed.Load()
}

// IsEmpty reports whether there is no unread data.
func (rb *PCMRing) IsEmpty() bool {
	return rb.Length() == 0
}

// Clear discards all unread data by advancing the read cursor to the
// current write cursor. Safe to call from the consumer side.
func (rb *PCMRing) Clear() {
	rb.r.Value.Store(rb.w.Value.Load())
}
