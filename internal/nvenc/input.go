package nvenc

import "github.com/duskcast/streampipe/pkg/spsc"

// EncoderInput is the exclusive producer-side handle onto an
// EncoderCore: exactly one goroutine may call Submit/EndOfStream, the
// same single-producer requirement the underlying SPSC channels carry.
type EncoderInput struct {
	core *EncoderCore
}

// Submit claims a free slot and passes pixels, together with the slot's
// input and output handles, to Session.EncodePicture; pixels are not
// copied into the slot's registered input buffer first. timestamp is the picture's presentation
// timestamp, carried through unchanged to the Result the consumer
// eventually observes for this slot. Submit busy-waits for a free slot
// if all N are currently in flight, mirroring spsc.Write's back-pressure.
func (in EncoderInput) Submit(pixels []byte, timestamp int64) error {
	return in.submit(pixels, timestamp, false)
}

// EndOfStream submits a flush picture: no further Submit/EndOfStream
// calls are valid on this EncoderInput afterwards. The consumer observes
// it as exactly one KindEndOfStream result once all prior slots have
// drained.
func (in EncoderInput) EndOfStream() error {
	return in.submit(nil, 0, true)
}

func (in EncoderInput) submit(pixels []byte, timestamp int64, endOfStream bool) error {
	idx := spsc.Read(in.core.freeR, func(cell *int) int { return *cell })
	slot := in.core.slots[idx]
	slot.reset()
	slot.EndOfStream = endOfStream
	slot.Timestamp = timestamp

	err := in.core.session.EncodePicture(slot.InputHandle, slot.OutputHandle, slot.Event, pixels, endOfStream)
	if err != nil {
		// Return the slot to the free pool; a failed submit must not
		// leak it.
		spsc.Write(in.core.freeW, idx, func(_ int, cell *int, v int) struct{} {
			*cell = v
			return struct{}{}
		})
		return err
	}

	spsc.Write(in.core.rdyW, idx, func(_ int, cell *int, v int) struct{} {
		*cell = v
		return struct{}{}
	})
	return nil
}
