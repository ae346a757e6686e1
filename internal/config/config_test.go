package config

import "testing"

func TestDefaultConfig_EncoderSlotsPowerOfTwo(t *testing.T) {
	cfg := DefaultConfig()
	n := cfg.Encoder.Slots
	if n == 0 || n&(n-1) != 0 {
		t.Fatalf("Encoder.Slots = %d, want a power of two", n)
	}
}

func TestDefaultConfig_AudioChunkSampleCount(t *testing.T) {
	cfg := DefaultConfig()
	want := int(int64(cfg.Audio.SampleRate) * cfg.Audio.ChunkDuration.Milliseconds() / 1000)
	if cfg.Audio.ChunkSampleCount != want {
		t.Fatalf("ChunkSampleCount = %d, want %d", cfg.Audio.ChunkSampleCount, want)
	}
}
