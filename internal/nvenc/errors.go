package nvenc

import "github.com/pkg/errors"

// Kind classifies an encoder/decoder failure per the shared error
// taxonomy used by both the video (NVENC-shaped) and audio (Opus) halves
// of the pipeline.
type Kind int

const (
	// KindBadArgument: caller passed an out-of-range argument.
	KindBadArgument Kind = iota
	// KindBufferTooSmall: output buffer cannot hold the result.
	KindBufferTooSmall
	// KindInvalidPacket: decoder input is corrupted.
	KindInvalidPacket
	// KindUnimplemented: codec feature unsupported by the driver.
	KindUnimplemented
	// KindInvalidState: operation called on a torn-down resource.
	KindInvalidState
	// KindAllocationFailed: driver/library allocation failed.
	KindAllocationFailed
	// KindInternalError: unclassified driver/library failure; the
	// session should be considered fatal.
	KindInternalError
	// KindWaitTimeout: the completion event did not fire within the
	// timeout. Retryable without side effects.
	KindWaitTimeout
	// KindEndOfStream: the consumer observed an end-of-stream slot.
	// Terminal for the consumer side.
	KindEndOfStream
	// KindDeviceInvalidated: the capture device vanished; the caller
	// must rebuild the capture source.
	KindDeviceInvalidated
)

func (k Kind) String() string {
	switch k {
	case KindBadArgument:
		return "bad_argument"
	case KindBufferTooSmall:
		return "buffer_too_small"
	case KindInvalidPacket:
		return "invalid_packet"
	case KindUnimplemented:
		return "unimplemented"
	case KindInvalidState:
		return "invalid_state"
	case KindAllocationFailed:
		return "allocation_failed"
	case KindInternalError:
		return "internal_error"
	case KindWaitTimeout:
		return "wait_timeout"
	case KindEndOfStream:
		return "end_of_stream"
	case KindDeviceInvalidated:
		return "device_invalidated"
	default:
		return "unknown"
	}
}

// Error is the error type returned by the encoder and codec adapters. It
// carries a Kind for programmatic dispatch and wraps the underlying
// driver/library failure (if any) so the standard library's errors.Is
// and errors.As still reach the original error through Unwrap. Error
// has no Cause method, so github.com/pkg/errors.Cause stops at it.
type Error struct {
	Kind Kind
	Op   string
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String() + ": " + e.err.Error()
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// newError builds an *Error, wrapping cause with errors.WithStack when
// non-nil so a backtrace survives to the top of the call stack.
func newError(op string, kind Kind, cause error) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Error{Kind: kind, Op: op, err: cause}
}

// NewError is the exported constructor other packages use to report
// failures through the same Kind taxonomy (e.g. the Opus adapter mapping
// gopus error codes onto KindBadArgument/KindInvalidPacket/...).
func NewError(op string, kind Kind, cause error) *Error {
	return newError(op, kind, cause)
}

// ErrEndOfStream is a sentinel usable with errors.Is for the common case
// of checking only whether the stream ended, without caring about Op.
var ErrEndOfStream = &Error{Kind: KindEndOfStream, Op: "wait_for_output"}

// ErrWaitTimeout is the sentinel for a retryable completion-event
// timeout.
var ErrWaitTimeout = &Error{Kind: KindWaitTimeout, Op: "wait_for_output"}

// Is reports equality by Kind so callers can do errors.Is(err,
// nvenc.ErrEndOfStream) regardless of which Op produced the error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
