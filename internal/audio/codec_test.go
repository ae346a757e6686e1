package audio

import (
	"math"
	"testing"
)

// TestOpusRoundTrip is scenario 4 from spec.md §8: 48kHz mono low-delay
// 128kbps, 10 frames of 480 samples each, sine wave in, and each frame
// decodes back to 480 samples without error.
func TestOpusRoundTrip(t *testing.T) {
	bitrate, err := NewBitrate(128000)
	if err != nil {
		t.Fatalf("NewBitrate: %v", err)
	}
	settings := Settings{
		SampleRate:  SampleRate48000,
		Channels:    Mono,
		Application: ApplicationLowDelay,
		Bitrate:     bitrate,
	}

	enc, err := NewEncoder(settings)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	defer enc.Close()

	dec, err := NewDecoder(settings)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer dec.Close()

	const frames = 10
	framesPerChannel := settings.SampleRate.FrameSize(10)
	if framesPerChannel != 480 {
		t.Fatalf("FrameSize(10) = %d, want 480", framesPerChannel)
	}

	for i := 0; i < frames; i++ {
		pcm := make([]int16, framesPerChannel)
		for j := range pcm {
			t := float64(i*framesPerChannel+j) / float64(settings.SampleRate)
			pcm[j] = int16(math.Sin(2*math.Pi*440*t) * 0.5 * math.MaxInt16)
		}

		packet := make([]byte, 4000)
		n, err := enc.Encode(pcm, packet)
		if err != nil {
			t.Fatalf("Encode frame %d: %v", i, err)
		}
		if n == 0 {
			t.Fatalf("Encode frame %d produced no bytes", i)
		}

		out := make([]int16, framesPerChannel)
		got, err := dec.Decode(packet[:n], out, false)
		if err != nil {
			t.Fatalf("Decode frame %d: %v", i, err)
		}
		if got != framesPerChannel {
			t.Fatalf("Decode frame %d: got %d samples, want %d", i, got, framesPerChannel)
		}
	}
}

func TestNewBitrate_RejectsOutOfRange(t *testing.T) {
	if _, err := NewBitrate(499); err == nil {
		t.Fatal("expected rejection below 500bps")
	}
	if _, err := NewBitrate(512001); err == nil {
		t.Fatal("expected rejection above 512000bps")
	}
}

// TestDecoder_FECRequestsConcealment is scenario-adjacent to the round
// trip above: a decodeFEC request with no packet must still return a
// full frame of samples (concealment, not an error).
func TestDecoder_FECRequestsConcealment(t *testing.T) {
	bitrate, err := NewBitrate(128000)
	if err != nil {
		t.Fatalf("NewBitrate: %v", err)
	}
	settings := Settings{
		SampleRate:  SampleRate48000,
		Channels:    Mono,
		Application: ApplicationLowDelay,
		Bitrate:     bitrate,
	}

	dec, err := NewDecoder(settings)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	defer dec.Close()

	framesPerChannel := settings.SampleRate.FrameSize(10)
	out := make([]int16, framesPerChannel)
	n, err := dec.Decode(nil, out, true)
	if err != nil {
		t.Fatalf("Decode with decodeFEC: %v", err)
	}
	if n != framesPerChannel {
		t.Fatalf("Decode with decodeFEC: got %d samples, want %d", n, framesPerChannel)
	}
}

// TestChannels_FramesPerChannel matches the num_frames_per_channel law's
// own worked table: mono passes a total sample count through unchanged,
// stereo halves it.
func TestChannels_FramesPerChannel(t *testing.T) {
	totals := []int{240, 480, 960, 1920, 3840, 5760}
	for _, f := range totals {
		if got := Mono.FramesPerChannel(f); got != f {
			t.Fatalf("Mono.FramesPerChannel(%d) = %d, want %d", f, got, f)
		}
		if got := Stereo.FramesPerChannel(f); got != f/2 {
			t.Fatalf("Stereo.FramesPerChannel(%d) = %d, want %d", f, got, f/2)
		}
	}
}
