package ws

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeFrame(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	raw := EncodeFrame(FrameTypeVideo, 42, true, payload)

	frame, ok := DecodeFrame(raw)
	if !ok {
		t.Fatal("DecodeFrame rejected a well-formed frame")
	}
	if frame.Type != FrameTypeVideo {
		t.Fatalf("Type = %v, want FrameTypeVideo", frame.Type)
	}
	if frame.Sequence != 42 {
		t.Fatalf("Sequence = %d, want 42", frame.Sequence)
	}
	if !frame.EndOfStream {
		t.Fatal("EndOfStream = false, want true")
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("Payload = %v, want %v", frame.Payload, payload)
	}
}

func TestDecodeFrame_RejectsUndersized(t *testing.T) {
	if _, ok := DecodeFrame([]byte{1, 2, 3}); ok {
		t.Fatal("expected rejection of a frame shorter than the header")
	}
}
