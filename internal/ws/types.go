package ws

import "encoding/binary"

// FrameType distinguishes the payload carried by a binary WebSocket
// message.
type FrameType byte

const (
	FrameTypeVideo FrameType = 1
	FrameTypeAudio FrameType = 2
)

// frameHeaderSize is type(1) + flags(1) + sequence(4).
const frameHeaderSize = 6

const flagEndOfStream byte = 1 << 0

// EncodeFrame packs a binary wire frame: [type][flags][seq big-endian][payload].
// This is the concrete realization of spec.md's "downstream WebRTC
// sender" for video, reused for Opus audio packets too since both are
// just sequenced binary blobs from the relay's point of view.
func EncodeFrame(typ FrameType, seq uint32, endOfStream bool, payload []byte) []byte {
	out := make([]byte, frameHeaderSize+len(payload))
	out[0] = byte(typ)
	if endOfStream {
		out[1] = flagEndOfStream
	}
	binary.BigEndian.PutUint32(out[2:6], seq)
	copy(out[frameHeaderSize:], payload)
	return out
}

// Frame is a decoded binary wire frame.
type Frame struct {
	Type        FrameType
	Sequence    uint32
	EndOfStream bool
	Payload     []byte
}

// DecodeFrame reverses EncodeFrame. ok is false if raw is too short to
// contain a header.
func DecodeFrame(raw []byte) (Frame, bool) {
	if len(raw) < frameHeaderSize {
		return Frame{}, false
	}
	return Frame{
		Type:        FrameType(raw[0]),
		EndOfStream: raw[1]&flagEndOfStream != 0,
		Sequence:    binary.BigEndian.Uint32(raw[2:6]),
		Payload:     raw[frameHeaderSize:],
	}, true
}

// ControlAckMessage is the one JSON text message the relay protocol
// uses, acknowledging a session start/stop control command.
type ControlAckMessage struct {
	Action  string `json:"action"`
	Session string `json:"session"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}
