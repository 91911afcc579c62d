package videocapture

import (
	"sync"
	"testing"
	"time"

	"github.com/big21ray/ionia/internal/video/frame"
)

type recordingSink struct {
	mu     sync.Mutex
	frames []frame.BGRA
}

func (r *recordingSink) Push(f frame.BGRA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func TestSoftwareSourceProducesFrames(t *testing.T) {
	sink := &recordingSink{}
	s := NewSoftwareSource(4, 4, 60, sink)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(300 * time.Millisecond)
	for sink.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if sink.count() < 2 {
		t.Fatalf("want at least 2 frames, got %d", sink.count())
	}
	f := sink.frames[0]
	if len(f.Data) != 4*4*4 {
		t.Fatalf("want %d bytes, got %d", 4*4*4, len(f.Data))
	}
}

func TestSoftwareSourceStartStopIdempotent(t *testing.T) {
	sink := &recordingSink{}
	s := NewSoftwareSource(2, 2, 30, sink)
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
