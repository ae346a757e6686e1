// Package capture defines the collaborator seams the encoder core reads
// frames and samples from. Real screen/microphone capture is out of
// scope; these interfaces are what a platform capture backend would
// implement, plus synthetic sources used by tests and by cmd/streampipe
// when no real capture device is configured.
package capture

import (
	"math"

	"github.com/duskcast/streampipe/internal/nvenc"
)

// TextureSource produces successive frames of raw pixel data matching a
// fixed DisplayDesc, the capture-side collaborator spec.md's encoder
// core submits into EncoderInput.
type TextureSource interface {
	Describe() nvenc.DisplayDesc
	// NextFrame blocks until a frame is available and returns its raw
	// bytes in the format Describe().Format implies plus the frame's
	// presentation timestamp in microseconds, or ok=false once the
	// source is exhausted/stopped.
	NextFrame() (pixels []byte, timestampUs int64, ok bool)
	Close() error
}

// SyntheticTextureSource generates a deterministic moving-gradient frame
// sequence, sized for the given DisplayDesc, so the encoder pipeline can
// be exercised without a real display-duplication backend.
type SyntheticTextureSource struct {
	desc    nvenc.DisplayDesc
	frame   int
	maxFrames int
	closed  bool
}

// NewSyntheticTextureSource builds a source that yields maxFrames frames
// (maxFrames <= 0 means unbounded) of desc's dimensions.
func NewSyntheticTextureSource(desc nvenc.DisplayDesc, maxFrames int) *SyntheticTextureSource {
	return &SyntheticTextureSource{desc: desc, maxFrames: maxFrames}
}

func (s *SyntheticTextureSource) Describe() nvenc.DisplayDesc { return s.desc }

func (s *SyntheticTextureSource) NextFrame() ([]byte, int64, bool) {
	if s.closed || (s.maxFrames > 0 && s.frame >= s.maxFrames) {
		return nil, 0, false
	}
	pixels := make([]byte, s.desc.Width*s.desc.Height*4)
	phase := byte(s.frame)
	for i := range pixels {
		pixels[i] = byte(i) + phase
	}

	rate := s.desc.RefreshRate
	if rate == 0 {
		rate = 60
	}
	timestampUs := int64(s.frame) * 1_000_000 / int64(rate)

	s.frame++
	return pixels, timestampUs, true
}

func (s *SyntheticTextureSource) Close() error {
	s.closed = true
	return nil
}

// SampleSource produces interleaved PCM audio frames, the capture-side
// collaborator the Opus encoder path pulls from.
type SampleSource interface {
	SampleRate() int
	Channels() int
	// NextFrame blocks until framesPerChannel*Channels() int16 samples
	// are available, or ok=false once the source is exhausted/stopped.
	NextFrame(framesPerChannel int) (pcm []int16, ok bool)
	Close() error
}

// SyntheticSampleSource generates a sine wave, used by tests and as a
// stand-in microphone source.
type SyntheticSampleSource struct {
	sampleRate int
	channels   int
	freqHz     float64
	sample     int
	maxFrames  int
	framesOut  int
	closed     bool
}

// NewSyntheticSampleSource builds a sine-wave source at freqHz, yielding
// at most maxFrames calls to NextFrame (maxFrames <= 0 means unbounded).
func NewSyntheticSampleSource(sampleRate, channels int, freqHz float64, maxFrames int) *SyntheticSampleSource {
	return &SyntheticSampleSource{sampleRate: sampleRate, channels: channels, freqHz: freqHz, maxFrames: maxFrames}
}

func (s *SyntheticSampleSource) SampleRate() int { return s.sampleRate }
func (s *SyntheticSampleSource) Channels() int    { return s.channels }

func (s *SyntheticSampleSource) NextFrame(framesPerChannel int) ([]int16, bool) {
	if s.closed || (s.maxFrames > 0 && s.framesOut >= s.maxFrames) {
		return nil, false
	}
	pcm := make([]int16, framesPerChannel*s.channels)
	for i := 0; i < framesPerChannel; i++ {
		t := float64(s.sample) / float64(s.sampleRate)
		v := int16(math.Sin(2*math.Pi*s.freqHz*t) * 0.25 * math.MaxInt16)
		for c := 0; c < s.channels; c++ {
			pcm[i*s.channels+c] = v
		}
		s.sample++
	}
	s.framesOut++
	return pcm, true
}

func (s *SyntheticSampleSource) Close() error {
	s.closed = true
	return nil
}
