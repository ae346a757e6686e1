package nvenc

import (
	"github.com/duskcast/streampipe/pkg/spsc"
)

// EncoderCore owns the slot pool and the pair of SPSC channels that hand
// slot indices between the submitting and draining sides: free carries
// indices available for a new frame, ready carries indices whose encode
// has been submitted and is awaiting (or has already received) its
// completion event.
//
// Slots themselves are never sent over the channels — only their
// integer index is — so the channel's cache-line-padded cells stay
// small regardless of frame size, and the actual pixel/bitstream memory
// lives once per slot in EncoderCore.slots.
type EncoderCore struct {
	cfg     SessionConfig
	session Session
	slots   []*SlotResources

	freeW spsc.Writer[int]
	freeR spsc.Reader[int]
	rdyW  spsc.Writer[int]
	rdyR  spsc.Reader[int]
}

// Build constructs an EncoderCore with n slots (n must be a power of
// two, matching the SPSC channel's capacity requirement) over session,
// plus its EncoderInput and EncoderOutput handles. Build registers an
// input buffer, a bitstream buffer, and a completion event for every
// slot up front; none of RegisterInputBuffer/CreateBitstreamBuffer/
// NewEventHandle are called again on the hot path.
func Build(session Session, cfg SessionConfig, n int) (*EncoderCore, EncoderInput, EncoderOutput, error) {
	bufFmt, ok := bufferFormat(cfg.Format)
	if !ok {
		return nil, EncoderInput{}, EncoderOutput{}, newError("build", KindBadArgument, nil)
	}

	slots := make([]*SlotResources, n)
	for i := range slots {
		inHandle, err := session.RegisterInputBuffer(i, cfg.Width, cfg.Height, bufFmt)
		if err != nil {
			return nil, EncoderInput{}, EncoderOutput{}, err
		}
		outHandle, err := session.CreateBitstreamBuffer(i)
		if err != nil {
			return nil, EncoderInput{}, EncoderOutput{}, err
		}
		event, err := NewEventHandle()
		if err != nil {
			return nil, EncoderInput{}, EncoderOutput{}, err
		}
		slots[i] = &SlotResources{
			Index:        i,
			InputHandle:  inHandle,
			OutputHandle: outHandle,
			Event:        event,
		}
	}

	// Channel starts with head == tail (empty) regardless of the slice
	// passed to it; init only seeds cell storage. Every free index must
	// be pushed explicitly so EncoderInput can pop one without blocking,
	// while the ready channel is left genuinely empty until a submit
	// happens.
	freeW, freeR, ok := spsc.Channel(make([]int, n))
	if !ok {
		return nil, EncoderInput{}, EncoderOutput{}, newError("build", KindBadArgument, nil)
	}
	for i := 0; i < n; i++ {
		spsc.Write(freeW, i, func(_ int, cell *int, v int) struct{} {
			*cell = v
			return struct{}{}
		})
	}

	rdyW, rdyR, ok := spsc.Channel(make([]int, n))
	if !ok {
		return nil, EncoderInput{}, EncoderOutput{}, newError("build", KindBadArgument, nil)
	}

	core := &EncoderCore{
		cfg:     cfg,
		session: session,
		slots:   slots,
		freeW:   freeW,
		freeR:   freeR,
		rdyW:    rdyW,
		rdyR:    rdyR,
	}

	return core, EncoderInput{core: core}, EncoderOutput{core: core}, nil
}

// Close tears down every slot's registered resources and the underlying
// session, in the reverse order Build acquired them.
func (c *EncoderCore) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, s := range c.slots {
		record(s.Event.Close())
		record(c.session.DestroyBitstreamBuffer(s.OutputHandle))
		record(c.session.UnregisterInputBuffer(s.InputHandle))
	}
	record(c.session.Close())
	return firstErr
}
