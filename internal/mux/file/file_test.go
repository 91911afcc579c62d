package file

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
func (f *fakeContainer) WriteHeader() error { f.headerWritten = true; return nil }
func (f *fakeContainer) WritePacket(streamIndex int, data []byte, pts, dts int64, keyframe bool) error {
	f.packets = append(f.packets, writtenPacket{streamIndex, pts, dts, keyframe})
	return nil
}
func (f *fakeContainer) WriteTrailer() error { f.trailerWritten = true; return nil }
func (f *fakeContainer) Close() error        { f.closed = true; return nil }

func TestNewWritesHeaderEagerly(t *testing.T) {
	fc := &fakeContainer{}
	m, err := New(fc, Options{Width: 1280, Height: 720, FPS: 30, SampleRate: 48000, Channels: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fc.headerWritten {
		t.Fatal("expected header written immediately")
	}
	if len(fc.streams) != 2 {
		t.Fatalf("want 2 streams, got %d", len(fc.streams))
	}
	_ = m
}

func TestWriteVideoPacketRejectsNonMonotonicDTS(t *testing.T) {
	fc := &fakeContainer{}
	m, _ := New(fc, Options{FPS: 30, SampleRate: 48000, Channels: 2})

	if err := m.WriteVideoPacket(frame.Encoded{Payload: []byte{1}, IsKeyframe: true}, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.WriteVideoPacket(frame.Encoded{Payload: []byte{2}}, 5); err == nil {
		t.Fatal("expected error for repeated frame index")
	}
	if err := m.WriteVideoPacket(frame.Encoded{Payload: []byte{2}}, 4); err == nil {
		t.Fatal("expected error for decreasing frame index")
	}
}

func TestWriteAudioPacketAdvancesSampleCount(t *testing.T) {
	fc := &fakeContainer{}
	m, _ := New(fc, Options{FPS: 30, SampleRate: 48000, Channels: 2})

	if err := m.WriteAudioPacket(pcm.EncodedAudioPacket{Payload: []byte{1, 2}, NumSamples: 1024}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.AudioSampleCount() != 1024 {
		t.Fatalf("want 1024, got %d", m.AudioSampleCount())
	}
	if err := m.WriteAudioPacket(pcm.EncodedAudioPacket{Payload: []byte{3, 4}, NumSamples: 1024}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.AudioSampleCount() != 2048 {
		t.Fatalf("want 2048, got %d", m.AudioSampleCount())
	}
	if fc.packets[1].pts != 1024 {
		t.Fatalf("want second packet pts=1024, got %d", fc.packets[1].pts)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	fc := &fakeContainer{}
	m, _ := New(fc, Options{FPS: 30, SampleRate: 48000, Channels: 2})
	if err := m.Finalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Finalize(); err != nil {
		t.Fatalf("unexpected error on second finalize: %v", err)
	}
	if !fc.trailerWritten || !fc.closed {
		t.Fatal("expected trailer written and container closed")
	}
}
