package nvenc

import (
	"sync"
)

// cpuSession is a software Session used when no hardware encode library
// is present on the host. It does not produce a real H.264/HEVC
// bitstream; it run-length encodes each submitted frame so the
// rest of the pipeline (slot lifecycle, back-pressure, flush ordering)
// can be exercised end to end without a GPU. Swapping in a real
// cgo-bound vendor library only requires a new Session implementation;
// nothing above this package depends on which one is in use.
type cpuSession struct {
	cfg SessionConfig

	mu      sync.Mutex
	inputs  map[uintptr][]byte
	outputs map[uintptr][]byte
	next    uintptr
}

// NewCPUSession builds the software fallback Session for cfg.
func NewCPUSession(cfg SessionConfig) (Session, error) {
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, newError("new_cpu_session", KindBadArgument, nil)
	}
	if _, ok := bufferFormat(cfg.Format); !ok {
		return nil, newError("new_cpu_session", KindBadArgument, nil)
	}
	return &cpuSession{
		cfg:     cfg,
		inputs:  make(map[uintptr][]byte),
		outputs: make(map[uintptr][]byte),
		next:    1,
	}, nil
}

func (s *cpuSession) allocHandle() uintptr {
	s.next++
	return s.next - 1
}

func (s *cpuSession) RegisterInputBuffer(idx int, width, height uint32, format BufferFormat) (uintptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.allocHandle()
	s.inputs[h] = make([]byte, 0, width*height*4)
	return h, nil
}

func (s *cpuSession) UnregisterInputBuffer(handle uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inputs[handle]; !ok {
		return newError("unregister_input_buffer", KindInvalidState, nil)
	}
	delete(s.inputs, handle)
	return nil
}

func (s *cpuSession) CreateBitstreamBuffer(idx int) (uintptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.allocHandle()
	s.outputs[h] = nil
	return h, nil
}

func (s *cpuSession) DestroyBitstreamBuffer(handle uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.outputs[handle]; !ok {
		return newError("destroy_bitstream_buffer", KindInvalidState, nil)
	}
	delete(s.outputs, handle)
	return nil
}

// EncodePicture packs pixels (or a zero-length flush marker) into the
// output slot and signals event immediately: the software path has no
// asynchronous completion of its own, so it just fulfils the same
// contract a hardware session honours over a real interrupt.
func (s *cpuSession) EncodePicture(input, output uintptr, event EventHandle, pixels []byte, endOfStream bool) error {
	s.mu.Lock()
	if _, ok := s.outputs[output]; !ok {
		s.mu.Unlock()
		return newError("encode_picture", KindInvalidState, nil)
	}
	if endOfStream {
		s.outputs[output] = nil
	} else {
		payload := encodeFrame(pixels, s.cfg)
		s.outputs[output] = payload
	}
	s.mu.Unlock()

	return event.Set()
}

func (s *cpuSession) ReadBitstream(handle uintptr, dst []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.outputs[handle]
	if !ok {
		return 0, newError("read_bitstream", KindInvalidState, nil)
	}
	n := copy(dst, payload)
	if n < len(payload) {
		return n, newError("read_bitstream", KindBufferTooSmall, nil)
	}
	return n, nil
}

func (s *cpuSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = nil
	s.outputs = nil
	return nil
}

// encodeFrame produces a deterministic stand-in bitstream: a run-length
// reduction of the pixel buffer. It is not a real codec; it exists so
// round-trip tests can assert on something more specific than "got some
// bytes back".
func encodeFrame(pixels []byte, cfg SessionConfig) []byte {
	if len(pixels) == 0 {
		return nil
	}
	out := make([]byte, 0, len(pixels)/4+8)
	var run byte
	count := byte(0)
	flush := func() {
		if count > 0 {
			out = append(out, count, run)
		}
	}
	for i, b := range pixels {
		if i == 0 {
			run, count = b, 1
			continue
		}
		if b == run && count < 255 {
			count++
			continue
		}
		flush()
		run, count = b, 1
	}
	flush()
	return out
}
