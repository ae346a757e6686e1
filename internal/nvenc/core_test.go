package nvenc

import (
	"errors"
	"testing"
)

func testConfig() SessionConfig {
	return SessionConfig{
		Width:      64,
		Height:     64,
		Format:     PixelFormatBGRA8Unorm,
		Codec:      CodecH264,
		Preset:     PresetP4,
		Tuning:     TuningLowLatency,
		FrameRate:  60,
		BitrateBps: 4_000_000,
	}
}

// TestEncoderCore_FlushOrdering is scenario 6 from spec.md §8: on a
// 4-slot core, submit 5 frames then EndOfStream; the consumer must
// observe exactly 5 non-EOS results followed by exactly one EOS result,
// and every slot must be returned to the free pool by the end.
func TestEncoderCore_FlushOrdering(t *testing.T) {
	cfg := testConfig()
	session, err := NewCPUSession(cfg)
	if err != nil {
		t.Fatalf("NewCPUSession: %v", err)
	}
	core, in, out, err := Build(session, cfg, 4)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer core.Close()

	const frames = 5
	done := make(chan error, 1)
	go func() {
		for i := 0; i < frames; i++ {
			pixels := make([]byte, cfg.Width*cfg.Height*4)
			for j := range pixels {
				pixels[j] = byte(i)
			}
			if err := in.Submit(pixels, int64(i)); err != nil {
				done <- err
				return
			}
		}
		done <- in.EndOfStream()
	}()

	seenFrames := 0
	sawEOS := false
	for i := 0; i < frames+1; i++ {
		res, err := out.WaitForOutput(-1)
		if errors.Is(err, ErrEndOfStream) {
			if i != frames {
				t.Fatalf("EndOfStream observed early at result %d, want %d", i, frames)
			}
			sawEOS = true
			continue
		}
		if err != nil {
			t.Fatalf("WaitForOutput at result %d: %v", i, err)
		}
		if res.Timestamp != int64(seenFrames) {
			t.Fatalf("result %d: Timestamp = %d, want %d", i, res.Timestamp, seenFrames)
		}
		seenFrames++
	}

	if err := <-done; err != nil {
		t.Fatalf("producer goroutine: %v", err)
	}
	if seenFrames != frames {
		t.Fatalf("want %d frame results, got %d", frames, seenFrames)
	}
	if !sawEOS {
		t.Fatal("never observed EndOfStream")
	}

	// Every slot must have cycled back to the free pool: N more Submits
	// in a row, with no drain in between, must all complete without
	// blocking forever.
	blockedDone := make(chan struct{})
	go func() {
		for i := 0; i < 4; i++ {
			_ = in.Submit(make([]byte, cfg.Width*cfg.Height*4), 0)
		}
		for i := 0; i < 4; i++ {
			_, _ = out.WaitForOutput(-1)
		}
		close(blockedDone)
	}()
	<-blockedDone
}

// TestBuild_RejectsUndefinedFormat is the Build-level regression test
// for the bufferFormat mapping: an undefined PixelFormat must fail
// Build with a KindBadArgument error rather than silently defaulting to
// a buffer format, matching spec.md §6.
func TestBuild_RejectsUndefinedFormat(t *testing.T) {
	cfg := testConfig()
	session, err := NewCPUSession(cfg)
	if err != nil {
		t.Fatalf("NewCPUSession: %v", err)
	}
	defer session.Close()

	badCfg := cfg
	badCfg.Format = PixelFormat(99)

	_, _, _, err = Build(session, badCfg, 4)
	if err == nil {
		t.Fatal("Build succeeded with an undefined pixel format, want an error")
	}
	var nvErr *Error
	if !errors.As(err, &nvErr) || nvErr.Kind != KindBadArgument {
		t.Fatalf("Build error = %v, want KindBadArgument", err)
	}
}

// TestEncoderCore_SlotIndexMultiset verifies that across many
// submit/drain cycles, slot indices are drawn from exactly {0..N-1} and
// every index is reused — no index is ever leaked.
func TestEncoderCore_SlotIndexMultiset(t *testing.T) {
	cfg := testConfig()
	session, err := NewCPUSession(cfg)
	if err != nil {
		t.Fatalf("NewCPUSession: %v", err)
	}
	const n = 4
	core, in, out, err := Build(session, cfg, n)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer core.Close()

	const rounds = 64
	done := make(chan error, 1)
	go func() {
		for i := 0; i < rounds; i++ {
			if err := in.Submit([]byte{byte(i)}, int64(i)); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	seen := make(map[int]bool)
	for i := 0; i < rounds; i++ {
		if _, err := out.WaitForOutput(-1); err != nil {
			t.Fatalf("WaitForOutput %d: %v", i, err)
		}
		idx := *out.pending
		if idx < 0 || idx >= n {
			t.Fatalf("WaitForOutput %d: slot index %d outside [0, %d)", i, idx, n)
		}
		seen[idx] = true
	}
	if err := <-done; err != nil {
		t.Fatalf("producer: %v", err)
	}
	if len(seen) != n {
		t.Fatalf("expected all %d slot indices exercised, saw %d", n, len(seen))
	}
}
