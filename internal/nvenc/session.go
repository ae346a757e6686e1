package nvenc

// Session is the driver-facing half of an encoder: registering input
// buffers, submitting frames for encode, and draining encoded
// bitstreams from a slot. A Session implementation owns whatever
// hardware or software encode library actually produces bits; everything
// else in this package is driver-agnostic plumbing around it.
//
// EncoderCore calls EncodePicture from the producer's goroutine and
// ReadBitstream from the consumer's goroutine, so those calls can run
// concurrently; implementations must be safe for that (cpuSession
// guards its state with a mutex).
type Session interface {
	// RegisterInputBuffer maps slot index idx's input storage for the
	// given frame dimensions and buffer format, returning an opaque
	// handle Submit and Unregister will use.
	RegisterInputBuffer(idx int, width, height uint32, format BufferFormat) (inputHandle uintptr, err error)

	// UnregisterInputBuffer releases a handle returned by
	// RegisterInputBuffer.
	UnregisterInputBuffer(handle uintptr) error

	// CreateBitstreamBuffer allocates the output bitstream storage for
	// slot idx, returning an opaque handle.
	CreateBitstreamBuffer(idx int) (outputHandle uintptr, err error)

	// DestroyBitstreamBuffer releases a handle returned by
	// CreateBitstreamBuffer.
	DestroyBitstreamBuffer(handle uintptr) error

	// EncodePicture submits pixels for encode in the slot whose handles
	// are input and output, to be signaled complete on event once the
	// bitstream at output is ready. endOfStream requests a flush picture instead of
	// real pixel data; pixels is ignored in that case.
	EncodePicture(input uintptr, output uintptr, event EventHandle, pixels []byte, endOfStream bool) error

	// ReadBitstream copies the encoded payload at handle into dst,
	// returning the number of bytes written. It is only valid to call
	// after the slot's event has fired.
	ReadBitstream(handle uintptr, dst []byte) (int, error)

	// Close releases all session-wide state. Individual slot handles
	// must already have been unregistered/destroyed by the caller.
	Close() error
}

// SessionConfig carries the parameters a Session needs to initialize
// itself, mirroring the subset of NV_ENC_INITIALIZE_PARAMS the driver
// actually varies per spec.md §6.
type SessionConfig struct {
	Width      uint32
	Height     uint32
	Format     PixelFormat
	Codec      Codec
	Preset     Preset
	Tuning     TuningInfo
	FrameRate  uint32
	BitrateBps uint32
}
