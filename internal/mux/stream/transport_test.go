package stream

import (
	"testing"

	"github.com/big21ray/ionia/internal/stream/buffer"
)

func TestPacedTransportWritesVideoThroughGate(t *testing.T) {
	fc := &fakeContainer{}
	m := NewMuxer(fc, 1280, 720, 30, 48000, 2)
	tr := PacedTransport{Muxer: m}

	sps := []byte{0x67, 0x42, 0x00, 0x1e}
	pps := []byte{0x68, 0xCE, 0x3C}
	idr := append(append([]byte{0, 0, 0, 1}, sps...), append([]byte{0, 0, 0, 1}, pps...)...)
	idr = append(idr, append([]byte{0, 0, 0, 1}, 0x65, 1)...)

	err := tr.Write(buffer.Packet{Kind: buffer.KindVideo, Payload: idr, IsKeyframe: true, Index: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.GateOpen() {
		t.Fatal("expected gate open after keyframe")
	}
}

func TestPacedTransportWritesAudio(t *testing.T) {
	fc := &fakeContainer{}
	m := NewMuxer(fc, 1280, 720, 30, 48000, 2)
	tr := PacedTransport{Muxer: m}

	// Open the gate first with a video keyframe.
	sps := []byte{0x67, 0x42, 0x00, 0x1e}
	pps := []byte{0x68, 0xCE, 0x3C}
	key := append(append([]byte{0, 0, 0, 1}, sps...), append([]byte{0, 0, 0, 1}, pps...)...)
	key = append(key, append([]byte{0, 0, 0, 1}, 0x65, 1)...)
	tr.Write(buffer.Packet{Kind: buffer.KindVideo, Payload: key, IsKeyframe: true, Index: 0})

	if err := tr.Write(buffer.Packet{Kind: buffer.KindAudio, Payload: []byte{1, 2, 3}, Index: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc.packets) != 2 {
		t.Fatalf("want 2 packets (video+audio), got %d", len(fc.packets))
	}
}
