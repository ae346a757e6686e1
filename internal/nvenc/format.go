package nvenc

// PixelFormat identifies the captured texture's pixel layout, as
// reported by the display-duplication collaborator.
type PixelFormat int

const (
	PixelFormatBGRA8Unorm PixelFormat = iota
	PixelFormatRGB10A2Unorm
	PixelFormatRGBA8Unorm
)

// BufferFormat is the encoder-native input buffer layout a PixelFormat
// maps onto.
type BufferFormat int

const (
	BufferFormatARGB BufferFormat = iota
	BufferFormatABGR10
	BufferFormatABGR
)

// bufferFormat implements spec.md §6's bit-exact pixel-format mapping.
// Any format outside the three named here fails at build time rather
// than silently falling back to a default.
func bufferFormat(f PixelFormat) (BufferFormat, bool) {
	switch f {
	case PixelFormatBGRA8Unorm:
		return BufferFormatARGB, true
	case PixelFormatRGB10A2Unorm:
		return BufferFormatABGR10, true
	case PixelFormatRGBA8Unorm:
		return BufferFormatABGR, true
	default:
		return 0, false
	}
}

// Codec selects the output video codec.
type Codec int

const (
	CodecH264 Codec = iota
	CodecHEVC
)

// Preset selects the encoder's speed/quality tradeoff, named after the
// vendor's p1..p7 preset ladder.
type Preset int

const (
	PresetP1 Preset = iota + 1
	PresetP2
	PresetP3
	PresetP4
	PresetP5
	PresetP6
	PresetP7
)

// TuningInfo selects the encoder's rate-control tuning target.
type TuningInfo int

const (
	TuningLowLatency TuningInfo = iota
	TuningUltraLowLatency
	TuningHighQuality
	TuningLossless
)

// DisplayDesc describes the captured display/texture array dimensions
// and format, mirroring DXGI_OUTDUPL_DESC in original_source.
type DisplayDesc struct {
	Width       uint32
	Height      uint32
	Format      PixelFormat
	RefreshRate uint32
}

// AspectRatio returns (w/gcd(w,h), h/gcd(w,h)) — e.g. AspectRatio(1920,
// 1080) == (16, 9).
func AspectRatio(width, height uint32) (uint32, uint32) {
	d := gcd(width, height)
	if d == 0 {
		return 0, 0
	}
	return width / d, height / d
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
