// Package config holds the typed configuration tree for the streaming
// agent.
package config

import "time"

// Config is the application configuration.
type Config struct {
	Display   DisplayConfig   `json:"display"`
	Encoder   EncoderConfig   `json:"encoder"`
	Audio     AudioConfig     `json:"audio"`
	WebSocket WebSocketConfig `json:"websocket"`
	Control   ControlConfig   `json:"control"`
}

// DisplayConfig describes the captured display/texture stream.
type DisplayConfig struct {
	Width       uint32 `json:"width"`
	Height      uint32 `json:"height"`
	RefreshRate uint32 `json:"refreshRate"`
}

// EncoderConfig configures the NVENC-style encoder session.
type EncoderConfig struct {
	Slots      int    `json:"slots"`      // must be a power of two
	BitrateBps uint32 `json:"bitrateBps"`
	FrameRate  uint32 `json:"frameRate"`
}

// AudioConfig configures capture, Opus encode, and playback.
type AudioConfig struct {
	SampleRate       int           `json:"sampleRate"`
	Channels         int           `json:"channels"`
	BitDepth         int           `json:"bitDepth"`
	BitrateBps       int           `json:"bitrateBps"`
	BufferSize       int           `json:"bufferSize"`       // playback PCM ring buffer capacity in samples
	CaptureSampleRate int          `json:"captureSampleRate"` // device capture rate before resample
	ChunkDuration    time.Duration `json:"chunkDuration"`
	ChunkSampleCount int           `json:"chunkSampleCount"`
}

// WebSocketConfig configures the relay client.
type WebSocketConfig struct {
	URL            string        `json:"url"`
	ReconnectDelay time.Duration `json:"reconnectDelay"`
	PingInterval   time.Duration `json:"pingInterval"`
	WriteTimeout   time.Duration `json:"writeTimeout"`
	ReadTimeout    time.Duration `json:"readTimeout"`
	MaxMessageSize int64         `json:"maxMessageSize"`
}

// ControlConfig configures the control surface that starts/stops a
// capture session.
type ControlConfig struct {
	FilePath      string        `json:"filePath"`
	MonitorDelay  time.Duration `json:"monitorDelay"`
	ChannelBuffer int           `json:"channelBuffer"`
	UseStdin      bool          `json:"useStdin"`
	GPIOPin       int           `json:"gpioPin"` // 0 disables GPIO control
}

// DefaultConfig returns the configuration used when no environment
// overrides are present.
func DefaultConfig() *Config {
	const (
		sampleRate    = 48000
		audioChannels = 1
		bitDepth      = 2
		chunkDuration = 10 * time.Millisecond
	)

	chunkSampleCount := int(sampleRate * chunkDuration / time.Second)

	return &Config{
		Display: DisplayConfig{
			Width:       1920,
			Height:      1080,
			RefreshRate: 60,
		},
		Encoder: EncoderConfig{
			Slots:      8,
			BitrateBps: 6_000_000,
			FrameRate:  60,
		},
		Audio: AudioConfig{
			SampleRate:        sampleRate,
			Channels:          audioChannels,
			BitDepth:          bitDepth,
			BitrateBps:        128000,
			BufferSize:        10 * sampleRate * audioChannels, // 10 seconds, in samples
			CaptureSampleRate: sampleRate,
			ChunkDuration:     chunkDuration,
			ChunkSampleCount:  chunkSampleCount,
		},
		WebSocket: WebSocketConfig{
			URL:            "ws://127.0.0.1:8088/relay",
			ReconnectDelay: 5 * time.Second,
			PingInterval:   30 * time.Second,
			WriteTimeout:   10 * time.Second,
			ReadTimeout:    60 * time.Second,
			MaxMessageSize: 4 * 1024 * 1024,
		},
		Control: ControlConfig{
			FilePath:      "/tmp/streampipe-control",
			MonitorDelay:  100 * time.Millisecond,
			UseStdin:      true,
			ChannelBuffer: 1,
			GPIOPin:       0,
		},
	}
}
