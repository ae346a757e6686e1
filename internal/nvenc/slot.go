package nvenc

// SlotResources is the per-slot state an EncoderCore cycles a frame
// through: a registered input handle passed to the session with each
// submitted picture, an
// output bitstream handle the consumer reads an encoded payload from, and
// the completion event that hands the slot from producer to consumer.
//
// Slots are addressed by index into EncoderCore.slots, never copied or
// passed by value across goroutines — aliasing two slots at the same
// index is the one invariant the SPSC channel beneath them exists to
// prevent.
type SlotResources struct {
	Index        int
	InputHandle  uintptr
	OutputHandle uintptr
	Event        EventHandle

	// EndOfStream marks a slot as carrying the flush picture rather than
	// real pixel data; the consumer must surface it as KindEndOfStream
	// and stop waiting on further slots.
	EndOfStream bool

	// BytesWritten is cleared on each submission and is not set
	// anywhere else; WaitForOutput takes the payload length from
	// Session.ReadBitstream instead.
	BytesWritten int

	// Timestamp is the presentation timestamp submitted alongside this
	// slot's picture, carried through to the Result the consumer
	// observes once the slot's event fires.
	Timestamp int64
}

// reset clears the per-submission fields of a slot between encode
// cycles, leaving the registered handles and event in place for reuse.
func (s *SlotResources) reset() {
	s.EndOfStream = false
	s.BytesWritten = 0
	s.Timestamp = 0
}
