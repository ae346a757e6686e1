package nvenc

import "github.com/duskcast/streampipe/pkg/spsc"

// Result is one encoded payload handed back by WaitForOutput, carrying
// the same presentation timestamp its picture was submitted with. The
// stream's end is not a Result — it is the sentinel error
// ErrEndOfStream, matching spec Result<(), EncodeError>'s error-typed
// completion.
type Result struct {
	Data      []byte
	Timestamp int64
}

// EncoderOutput is the exclusive consumer-side handle onto an
// EncoderCore.
type EncoderOutput struct {
	core *EncoderCore

	// pending holds a slot index already popped off the ready channel
	// whose event has not yet fired, so a timed-out WaitForOutput call
	// resumes waiting on the same slot instead of losing it.
	pending    *int
	pendingOK  bool
	scratch    []byte
}

// WaitForOutput waits up to timeoutMillis (negative: forever) for the
// next slot's completion event, then copies its encoded bytes out. A
// timeout returns ErrWaitTimeout and is safe to retry — the same slot is
// waited on again rather than re-popped from the ready channel.
func (out *EncoderOutput) WaitForOutput(timeoutMillis int) (Result, error) {
	var idx int
	if out.pendingOK {
		idx = *out.pending
	} else {
		idx = spsc.Read(out.core.rdyR, func(cell *int) int { return *cell })
		out.pending = &idx
		out.pendingOK = true
	}

	slot := out.core.slots[idx]
	fired, err := slot.Event.Wait(timeoutMillis)
	if err != nil {
		return Result{}, err
	}
	if !fired {
		return Result{}, ErrWaitTimeout
	}
	out.pendingOK = false

	defer func() {
		spsc.Write(out.core.freeW, idx, func(_ int, cell *int, v int) struct{} {
			*cell = v
			return struct{}{}
		})
	}()

	if slot.EndOfStream {
		return Result{}, ErrEndOfStream
	}

	if out.scratch == nil {
		out.scratch = make([]byte, out.core.cfg.Width*out.core.cfg.Height*4)
	}
	n, err := out.core.session.ReadBitstream(slot.OutputHandle, out.scratch)
	for err != nil {
		if e, ok := err.(*Error); !ok || e.Kind != KindBufferTooSmall {
			return Result{}, err
		}
		// The payload outgrew scratch: grow it and copy again.
		out.scratch = make([]byte, 2*len(out.scratch))
		n, err = out.core.session.ReadBitstream(slot.OutputHandle, out.scratch)
	}
	data := make([]byte, n)
	copy(data, out.scratch[:n])
	return Result{Data: data, Timestamp: slot.Timestamp}, nil
}
