package audio

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/duskcast/streampipe/internal/config"
)

// Recorder captures microphone audio through PortAudio and exposes it
// as a pull-based capture.SampleSource, resampling from the device's
// actual capture rate to the configured output rate when they differ.
type Recorder struct {
	config *config.AudioConfig

	targetDevice            *portaudio.DeviceInfo
	isPortAudioInit         bool
	deviceInitialized       bool
	actualCaptureSampleRate int

	isRecording bool
	stream      *portaudio.Stream
	mutex       sync.RWMutex

	frames      chan []int16
	pending     []int16 // samples accumulated toward the next output-rate chunk
	enableDebug bool
}

// NewRecorder creates a new audio recorder.
func NewRecorder(cfg *config.AudioConfig, enableDebug bool) *Recorder {
	return &Recorder{
		config:                  cfg,
		actualCaptureSampleRate: cfg.CaptureSampleRate,
		frames:                  make(chan []int16, 32),
		enableDebug:             enableDebug,
	}
}

// SampleRate implements capture.SampleSource.
func (r *Recorder) SampleRate() int { return r.config.SampleRate }

// Channels implements capture.SampleSource.
func (r *Recorder) Channels() int { return r.config.Channels }

// Close implements capture.SampleSource by stopping the capture stream
// (StopRecording).
func (r *Recorder) Close() error { return r.StopRecording() }

// NextFrame implements capture.SampleSource by pulling the next chunk
// the audio callback has resampled and queued.
func (r *Recorder) NextFrame(framesPerChannel int) ([]int16, bool) {
	want := framesPerChannel * r.config.Channels
	for len(r.pending) < want {
		chunk, ok := <-r.frames
		if !ok {
			return nil, false
		}
		r.pending = append(r.pending, chunk...)
	}
	out := make([]int16, want)
	copy(out, r.pending[:want])
	r.pending = r.pending[want:]
	return out, true
}

// Initialize initializes the audio device.
func (r *Recorder) Initialize() error {
	if r.deviceInitialized {
		return nil
	}

	if !r.isPortAudioInit {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio initialize: %w", err)
		}
		r.isPortAudioInit = true
	}

	if err := r.findAudioDevice(); err != nil {
		if r.isPortAudioInit {
			portaudio.Terminate()
			r.isPortAudioInit = false
		}
		return err
	}

	r.deviceInitialized = true
	return nil
}

// findAudioDevice picks an input device using the same priority ladder
// as a desktop audio stack: PulseAudio/PipeWire front-ends first, then
// explicit microphones, then embedded hardware codecs, skipping monitor
// and rate-conversion pseudo-devices.
func (r *Recorder) findAudioDevice() error {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		defDev, defErr := portaudio.DefaultInputDevice()
		if defErr == nil && defDev != nil {
			r.targetDevice = defDev
			return nil
		}
		return fmt.Errorf("no audio devices found")
	}

	var candidates []*portaudio.DeviceInfo
	var priorities []int

	for _, dev := range devices {
		if dev.MaxInputChannels == 0 {
			continue
		}
		nameLower := strings.ToLower(dev.Name)
		priority := 0

		switch {
		case strings.Contains(nameLower, "pulse"):
			priority = 200
		case strings.Contains(nameLower, "pipewire"):
			priority = 190
		}
		if strings.Contains(nameLower, "microphone") || strings.Contains(nameLower, "mic") {
			priority += 100
		}
		if strings.Contains(nameLower, "digital") {
			priority += 50
		}
		if strings.Contains(nameLower, "audiocodec") || strings.Contains(nameLower, "sunxi-codec") {
			priority += 180
		}
		if strings.HasPrefix(nameLower, "capture") && !strings.Contains(nameLower, "dsnoop") {
			priority += 170
		}
		if nameLower == "default" {
			priority = 150
		}
		if strings.Contains(nameLower, "monitor") || strings.Contains(nameLower, "loopback") ||
			strings.Contains(nameLower, "samplerate") || strings.Contains(nameLower, "upmix") {
			continue
		}
		if priority == 0 {
			priority = 10
		}

		candidates = append(candidates, dev)
		priorities = append(priorities, priority)
	}

	maxPriority := -1
	for i, p := range priorities {
		if p > maxPriority {
			maxPriority = p
			r.targetDevice = candidates[i]
		}
	}

	if r.targetDevice == nil {
		defDev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return fmt.Errorf("no available recording device: %w", err)
		}
		r.targetDevice = defDev
	}

	if r.enableDebug {
		log.Printf("recorder: selected device %s (default rate %.0fHz)", r.targetDevice.Name, r.targetDevice.DefaultSampleRate)
	}
	return nil
}

// Terminate tears down the audio device.
func (r *Recorder) Terminate() error {
	r.mutex.Lock()
	if r.stream != nil {
		_ = r.stream.Stop()
		_ = r.stream.Close()
		r.stream = nil
	}
	r.mutex.Unlock()

	if r.isPortAudioInit {
		err := portaudio.Terminate()
		r.isPortAudioInit = false
		r.deviceInitialized = false
		return err
	}
	return nil
}

// StartRecording opens the capture stream.
func (r *Recorder) StartRecording() error {
	if !r.deviceInitialized {
		return fmt.Errorf("audio device not initialized")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.isRecording {
		return nil
	}

	actualSampleRate := r.config.CaptureSampleRate
	if r.targetDevice.DefaultSampleRate > 0 && int(r.targetDevice.DefaultSampleRate) == r.config.SampleRate {
		actualSampleRate = int(r.targetDevice.DefaultSampleRate)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   r.targetDevice,
			Channels: r.config.Channels,
			Latency:  r.targetDevice.DefaultLowInputLatency,
		},
		SampleRate:      float64(actualSampleRate),
		FramesPerBuffer: 1024,
	}

	var err error
	r.stream, err = portaudio.OpenStream(params, r.audioCallback)
	if err != nil && r.targetDevice.DefaultSampleRate > 0 && actualSampleRate != int(r.targetDevice.DefaultSampleRate) {
		actualSampleRate = int(r.targetDevice.DefaultSampleRate)
		params.SampleRate = float64(actualSampleRate)
		r.stream, err = portaudio.OpenStream(params, r.audioCallback)
	}
	if err != nil {
		return fmt.Errorf("open audio stream: %w", err)
	}
	r.actualCaptureSampleRate = actualSampleRate

	if err := r.stream.Start(); err != nil {
		_ = r.stream.Close()
		r.stream = nil
		return fmt.Errorf("start audio stream: %w", err)
	}

	r.isRecording = true
	return nil
}

// StopRecording closes the capture stream and the pull-side channel.
func (r *Recorder) StopRecording() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if !r.isRecording {
		return nil
	}
	r.isRecording = false

	if r.stream != nil {
		_ = r.stream.Stop()
		_ = r.stream.Close()
		r.stream = nil
	}
	close(r.frames)
	return nil
}

// audioCallback resamples captured audio to the output rate and queues
// it for NextFrame to drain.
func (r *Recorder) audioCallback(in []int16) {
	if !r.isRecording {
		return
	}

	resampled := in
	if r.actualCaptureSampleRate != r.config.SampleRate {
		resampled = resample(in, r.actualCaptureSampleRate, r.config.SampleRate)
	}

	if r.enableDebug && isSilent(resampled, 200.0) {
		log.Printf("recorder: silent chunk (rms=%.1f)", rms(resampled))
	}

	chunk := make([]int16, len(resampled))
	copy(chunk, resampled)
	select {
	case r.frames <- chunk:
	default:
		// Consumer fell behind; drop the chunk rather than block the
		// PortAudio callback thread.
	}
}

// DumpToWAV renders samples as a WAV file, used by debug tooling only —
// the wire format is Opus, never raw PCM.
func (r *Recorder) DumpToWAV(samples []int16) []byte {
	return pcmToWAV(samples, r.config.SampleRate, r.config.Channels, r.config.BitDepth)
}
