package audio

import (
	"github.com/thesyncim/gopus"

	"github.com/duskcast/streampipe/internal/nvenc"
)

// Encoder wraps a gopus encoder configured per Settings.
type Encoder struct {
	settings Settings
	enc      *gopus.Encoder
}

// NewEncoder constructs an Encoder, validating settings the same way
// libopus's opus_encoder_create would reject them.
func NewEncoder(settings Settings) (*Encoder, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	enc, err := gopus.NewEncoder(int(settings.SampleRate), int(settings.Channels), gopusApplication(settings.Application))
	if err != nil {
		return nil, nvenc.NewError("new_encoder", nvenc.KindAllocationFailed, err)
	}
	if err := enc.SetBitrate(settings.Bitrate.opusValue()); err != nil {
		return nil, nvenc.NewError("new_encoder", nvenc.KindBadArgument, err)
	}
	return &Encoder{settings: settings, enc: enc}, nil
}

// Encode compresses exactly one frame of
// settings.SampleRate.FrameSize(frameDurationMs) samples per channel of
// interleaved PCM into dst, returning the number of bytes written. A pcm
// slice of the wrong length is a KindBadArgument error — libopus frames
// are fixed-duration, not stream-oriented.
func (e *Encoder) Encode(pcm []int16, dst []byte) (int, error) {
	n, err := e.enc.Encode(pcm, dst)
	if err != nil {
		return 0, mapOpusErr("encode", err)
	}
	return n, nil
}

// Close releases the underlying libopus encoder state.
func (e *Encoder) Close() error {
	return e.enc.Close()
}

// Decoder wraps a gopus decoder configured per Settings.
type Decoder struct {
	settings Settings
	dec      *gopus.Decoder
}

// NewDecoder constructs a Decoder.
func NewDecoder(settings Settings) (*Decoder, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	dec, err := gopus.NewDecoder(int(settings.SampleRate), int(settings.Channels))
	if err != nil {
		return nil, nvenc.NewError("new_decoder", nvenc.KindAllocationFailed, err)
	}
	return &Decoder{settings: settings, dec: dec}, nil
}

// Decode expands one Opus packet into pcm, returning the number of
// samples per channel written. pcm's length must be an exact multiple
// of the configured channel count, per Channels.FramesPerChannel's "for
// even f" boundary.
//
// When decodeFEC is true, packet is discarded and a nil packet is
// decoded instead, which runs gopus's packet-loss concealment and
// yields a concealed frame. No forward-error-correction data is read,
// from packet or from any other packet.
func (d *Decoder) Decode(packet []byte, pcm []int16, decodeFEC bool) (int, error) {
	framesPerChannel := d.settings.Channels.FramesPerChannel(len(pcm))
	if framesPerChannel*int(d.settings.Channels) != len(pcm) {
		return 0, nvenc.NewError("decode", nvenc.KindBadArgument, nil)
	}

	in := packet
	if decodeFEC {
		in = nil
	}
	n, err := d.dec.Decode(in, pcm)
	if err != nil {
		return 0, mapOpusErr("decode", err)
	}
	return n, nil
}

// Close releases the underlying libopus decoder state.
func (d *Decoder) Close() error {
	return d.dec.Close()
}

func gopusApplication(m ApplicationMode) int {
	switch m {
	case ApplicationVoIP:
		return gopus.ApplicationVoIP
	case ApplicationLowDelay:
		return gopus.ApplicationRestrictedLowDelay
	default:
		return gopus.ApplicationAudio
	}
}

// mapOpusErr classifies a gopus error onto the shared Kind taxonomy so
// audio and video error handling compose through the same switch.
func mapOpusErr(op string, err error) error {
	switch err {
	case gopus.ErrBadArg:
		return nvenc.NewError(op, nvenc.KindBadArgument, err)
	case gopus.ErrBufferTooSmall:
		return nvenc.NewError(op, nvenc.KindBufferTooSmall, err)
	case gopus.ErrInvalidPacket:
		return nvenc.NewError(op, nvenc.KindInvalidPacket, err)
	case gopus.ErrUnimplemented:
		return nvenc.NewError(op, nvenc.KindUnimplemented, err)
	case gopus.ErrInvalidState:
		return nvenc.NewError(op, nvenc.KindInvalidState, err)
	case gopus.ErrAllocFail:
		return nvenc.NewError(op, nvenc.KindAllocationFailed, err)
	default:
		return nvenc.NewError(op, nvenc.KindInternalError, err)
	}
}
