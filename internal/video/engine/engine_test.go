package engine

import (
	"testing"
	"time"

	"github.com/big21ray/ionia/internal/video/frame"
	"github.com/big21ray/ionia/internal/video/ring"
)

type passthroughEncoder struct{ encodeCount int }

func (p *passthroughEncoder) Encode(f frame.BGRA) ([]frame.Encoded, error) {
	p.encodeCount++
	return []frame.Encoded{{Payload: f.Data, IsKeyframe: p.encodeCount == 1}}, nil
}
func (p *passthroughEncoder) Flush() ([]frame.Encoded, error) { return nil, nil }
func (p *passthroughEncoder) Extradata() []byte               { return nil }
func (p *passthroughEncoder) Name() string                    { return "stub" }
func (p *passthroughEncoder) Close() error                    { return nil }

type recordingMuxer struct {
	frameIndexes []int64
}

func (m *recordingMuxer) WriteVideoPacket(pkt frame.Encoded, frameIndex int64) error {
	m.frameIndexes = append(m.frameIndexes, frameIndex)
	return nil
}

func TestTickAdvancesToExpectedFrame(t *testing.T) {
	r := ring.New(8)
	r.Push(frame.BGRA{Width: 1, Height: 1, Data: []byte{1, 2, 3, 4}})
	enc := &passthroughEncoder{}
	mux := &recordingMuxer{}
	e := New(30, r, enc, mux, 2, 2)
	e.Start()

	time.Sleep(70 * time.Millisecond) // ~2 frames @ 30fps

	if err := e.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if e.FrameNumber() < 1 {
		t.Fatalf("expected at least 1 frame written, got %d", e.FrameNumber())
	}
	if len(mux.frameIndexes) != int(e.FrameNumber()) {
		t.Fatalf("muxer writes %d != frame number %d", len(mux.frameIndexes), e.FrameNumber())
	}
	for i, idx := range mux.frameIndexes {
		if idx != int64(i) {
			t.Fatalf("frame index %d out of sequence: %d", i, idx)
		}
	}
}

func TestTickDuplicatesWhenCaptureLags(t *testing.T) {
	r := ring.New(8)
	r.Push(frame.BGRA{Width: 1, Height: 1, Data: []byte{9, 9, 9, 9}})
	enc := &passthroughEncoder{}
	mux := &recordingMuxer{}
	e := New(100, r, enc, mux, 1, 1) // fast fps so many ticks are expected quickly
	e.Start()
	time.Sleep(60 * time.Millisecond)
	e.Tick()

	if e.FramesDuplicated() == 0 {
		t.Fatal("expected duplication counter to increase once the single ring frame is exhausted")
	}
}

func TestTickBeforeStartIsNoop(t *testing.T) {
	r := ring.New(4)
	e := New(30, r, &passthroughEncoder{}, &recordingMuxer{}, 1, 1)
	if err := e.Tick(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.FrameNumber() != 0 {
		t.Fatal("expected no frames written before Start")
	}
}
