// Package audio adapts the Opus codec (via github.com/thesyncim/gopus) to
// the capture/playback paths of the streaming agent, and carries the
// teacher-derived recorder/player built on PortAudio.
package audio

import "github.com/duskcast/streampipe/internal/nvenc"

// SampleRate is one of the five sample rates libopus accepts natively.
type SampleRate int

const (
	SampleRate8000  SampleRate = 8000
	SampleRate12000 SampleRate = 12000
	SampleRate16000 SampleRate = 16000
	SampleRate24000 SampleRate = 24000
	SampleRate48000 SampleRate = 48000
)

func (r SampleRate) valid() bool {
	switch r {
	case SampleRate8000, SampleRate12000, SampleRate16000, SampleRate24000, SampleRate48000:
		return true
	default:
		return false
	}
}

// Channels selects mono or stereo.
type Channels int

const (
	Mono Channels = iota + 1
	Stereo
)

func (c Channels) valid() bool { return c == Mono || c == Stereo }

// FramesPerChannel converts a total interleaved sample count into a
// per-channel frame count: mono -> f, stereo -> f/2. This is the
// num_frames_per_channel(f, channels) law libopus's own decode path
// uses to size its per-channel frame capacity from a caller-provided
// buffer length.
func (c Channels) FramesPerChannel(totalFrames int) int {
	return totalFrames >> (int(c) - 1)
}

// FrameSize returns the number of samples-per-channel a
// frameDurationMs-long frame holds at this sample rate — e.g.
// (SampleRate48000).FrameSize(10) == 480. This sizes PCM buffers for a
// fixed-duration frame; it is distinct from Channels.FramesPerChannel,
// which converts a total sample count into a per-channel one.
func (r SampleRate) FrameSize(frameDurationMs int) int {
	return int(r) * frameDurationMs / 1000
}

// ApplicationMode selects libopus's internal tuning target.
type ApplicationMode int

const (
	ApplicationVoIP ApplicationMode = iota
	ApplicationAudio
	ApplicationLowDelay
)

func (m ApplicationMode) valid() bool {
	switch m {
	case ApplicationVoIP, ApplicationAudio, ApplicationLowDelay:
		return true
	default:
		return false
	}
}

// Bitrate is either an explicit bits-per-second target in [500,512000],
// or one of the Auto/Max sentinels libopus accepts in place of a number.
type Bitrate struct {
	bps     int
	auto    bool
	maxRate bool
}

const (
	minBitrateBps = 500
	maxBitrateBps = 512000
)

// BitrateAuto lets libopus pick a bitrate from the signal and channel
// configuration.
var BitrateAuto = Bitrate{auto: true}

// BitrateMax requests the highest rate the mode supports.
var BitrateMax = Bitrate{maxRate: true}

// NewBitrate validates bps against libopus's accepted range.
func NewBitrate(bps int) (Bitrate, error) {
	if bps < minBitrateBps || bps > maxBitrateBps {
		return Bitrate{}, nvenc.NewError("new_bitrate", nvenc.KindBadArgument, nil)
	}
	return Bitrate{bps: bps}, nil
}

// opusValue converts to the integer libopus's OPUS_SET_BITRATE expects,
// including the negative sentinel values for Auto (-1000) and Max
// (-1), matching libopus's own OPUS_AUTO / OPUS_BITRATE_MAX constants.
func (b Bitrate) opusValue() int {
	switch {
	case b.auto:
		return -1000
	case b.maxRate:
		return -1
	default:
		return b.bps
	}
}

// Settings bundles the parameters an Encoder or Decoder needs.
type Settings struct {
	SampleRate  SampleRate
	Channels    Channels
	Application ApplicationMode
	Bitrate     Bitrate
}

func (s Settings) validate() error {
	if !s.SampleRate.valid() {
		return nvenc.NewError("settings_validate", nvenc.KindBadArgument, nil)
	}
	if !s.Channels.valid() {
		return nvenc.NewError("settings_validate", nvenc.KindBadArgument, nil)
	}
	if !s.Application.valid() {
		return nvenc.NewError("settings_validate", nvenc.KindBadArgument, nil)
	}
	return nil
}
