package stream

import (
	"testing"

	"github.com/big21ray/ionia/internal/audio/pcm"
	"github.com/big21ray/ionia/internal/platform/codec"
	"github.com/big21ray/ionia/internal/video/frame"
)

type writtenPacket struct {
	streamIndex int
	pts, dts    int64
	keyframe    bool
}

type fakeContainer struct {
	headerWritten  bool
	trailerWritten bool
	closed         bool
	streams        []codec.StreamParams
	packets        []writtenPacket
}

func (f *fakeContainer) AddStream(p codec.StreamParams) (int, error) {
	f.streams = append(f.streams, p)
	return len(f.streams) - 1, nil
}

func (f *fakeContainer) WriteHeader() error {
	f.headerWritten = true
	return nil
}

func (f *fakeContainer) WritePacket(streamIndex int, data []byte, pts, dts int64, keyframe bool) error {
	f.packets = append(f.packets, writtenPacket{streamIndex, pts, dts, keyframe})
	return nil
}

func (f *fakeContainer) WriteTrailer() error {
	f.trailerWritten = true
	return nil
}

func (f *fakeContainer) Close() error {
	f.closed = true
	return nil
}

func annexBFrame(nals ...[]byte) []byte {
	var out []byte
	for _, n := range nals {
		out = append(out, 0, 0, 0, 1)
		out = append(out, n...)
	}
	return out
}

func TestWriteVideoPacketDropsBeforeKeyframe(t *testing.T) {
	fc := &fakeContainer{}
	m := NewMuxer(fc, 1280, 720, 30, 48000, 2)

	nonKey := frame.Encoded{Payload: annexBFrame([]byte{0x41, 1, 2}), IsKeyframe: false}
	if err := m.WriteVideoPacket(nonKey, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.headerWritten {
		t.Fatal("header should not be written before a keyframe")
	}
	if len(fc.packets) != 0 {
		t.Fatal("non-keyframe before gate should be dropped")
	}
}

func TestWriteVideoPacketOpensGateOnKeyframe(t *testing.T) {
	fc := &fakeContainer{}
	m := NewMuxer(fc, 1280, 720, 30, 48000, 2)

	sps := []byte{0x67, 0x42, 0x00, 0x1e, 0xAA}
	pps := []byte{0x68, 0xCE, 0x3C}
	idr := []byte{0x65, 0xAA, 0xBB}
	key := frame.Encoded{Payload: annexBFrame(sps, pps, idr), IsKeyframe: true}

	if err := m.WriteVideoPacket(key, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fc.headerWritten {
		t.Fatal("expected header to be written on first keyframe")
	}
	if !m.GateOpen() {
		t.Fatal("expected gate to be open")
	}
	if len(fc.streams) != 2 {
		t.Fatalf("want 2 streams (video+audio), got %d", len(fc.streams))
	}
	if len(fc.packets) != 1 {
		t.Fatalf("want 1 packet written, got %d", len(fc.packets))
	}
}

func TestWriteAudioPacketBufferedBeforeGateThenFlushed(t *testing.T) {
	fc := &fakeContainer{}
	m := NewMuxer(fc, 1280, 720, 30, 48000, 2)

	// Two audio packets arrive before any keyframe: spec §4.8 says these
	// must not be dropped, only held until the deferred header is written.
	if err := m.WriteAudioPacket(pcm.EncodedAudioPacket{Payload: []byte{1, 2, 3}, NumSamples: 1024}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.WriteAudioPacket(pcm.EncodedAudioPacket{Payload: []byte{4, 5, 6}, NumSamples: 1024}, 1024); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc.packets) != 0 {
		t.Fatal("audio before gate should not be written to the container yet")
	}

	sps := []byte{0x67, 0x42, 0x00, 0x1e}
	pps := []byte{0x68, 0xCE, 0x3C}
	key := frame.Encoded{Payload: annexBFrame(sps, pps, []byte{0x65, 1}), IsKeyframe: true}
	if err := m.WriteVideoPacket(key, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fc.packets) != 3 {
		t.Fatalf("want 1 video + 2 buffered audio packets flushed, got %d", len(fc.packets))
	}
	// The buffered audio is flushed as soon as the header is written, before
	// the keyframe itself, so it occupies packets[0] and packets[1].
	if fc.packets[0].dts >= fc.packets[1].dts {
		t.Fatalf("expected strictly increasing DTS across flushed audio, got %d then %d", fc.packets[0].dts, fc.packets[1].dts)
	}
}

func TestMonotonicDTSEnforcedAcrossDuplicateFrameIndexes(t *testing.T) {
	fc := &fakeContainer{}
	m := NewMuxer(fc, 1280, 720, 30, 48000, 2)

	sps := []byte{0x67, 0x42, 0x00, 0x1e}
	pps := []byte{0x68, 0xCE, 0x3C}
	key := frame.Encoded{Payload: annexBFrame(sps, pps, []byte{0x65, 1}), IsKeyframe: true}
	if err := m.WriteVideoPacket(key, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dup := frame.Encoded{Payload: annexBFrame([]byte{0x41, 2}), IsKeyframe: false}
	if err := m.WriteVideoPacket(dup, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc.packets) != 2 {
		t.Fatalf("want 2 packets, got %d", len(fc.packets))
	}
	if fc.packets[1].dts <= fc.packets[0].dts {
		t.Fatalf("expected strictly increasing DTS, got %d then %d", fc.packets[0].dts, fc.packets[1].dts)
	}
}

func TestCloseWritesTrailerOnlyIfGateOpened(t *testing.T) {
	fc := &fakeContainer{}
	m := NewMuxer(fc, 1280, 720, 30, 48000, 2)
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.trailerWritten {
		t.Fatal("trailer should not be written if the gate never opened")
	}
	if !fc.closed {
		t.Fatal("container should still be closed")
	}
}
