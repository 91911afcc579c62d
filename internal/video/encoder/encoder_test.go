package encoder

import (
	"testing"

	"github.com/big21ray/ionia/internal/video/frame"
)

type stubBackend struct {
	name string
}

func (s *stubBackend) Encode(frame.BGRA) ([]frame.Encoded, error) { return nil, nil }
func (s *stubBackend) Flush() ([]frame.Encoded, error)            { return nil, nil }
func (s *stubBackend) Extradata() []byte                          { return nil }
func (s *stubBackend) Name() string                               { return s.name }
func (s *stubBackend) Close() error                                { return nil }

type fixedProbe struct{ sta bool }

func (f fixedProbe) IsSingleThreaded() bool { return f.sta }

func TestSelectPrefersHardwareWhenRequested(t *testing.T) {
	hw := &stubBackend{name: "hw"}
	sw := &stubBackend{name: "sw"}
	got, err := Select([]Candidate{{KindSoftware, sw}, {KindHardware, hw}}, true, fixedProbe{})
	if err != nil || got != Backend(hw) {
		t.Fatalf("expected hw backend, got %v err=%v", got, err)
	}
}

func TestSelectFallsBackToSoftware(t *testing.T) {
	sw := &stubBackend{name: "sw"}
	got, err := Select([]Candidate{{KindSoftware, sw}}, true, fixedProbe{})
	if err != nil || got != Backend(sw) {
		t.Fatalf("expected sw backend, got %v err=%v", got, err)
	}
}

func TestSelectRejectsWrapperUnderSTA(t *testing.T) {
	wrapper := &stubBackend{name: "mf"}
	_, err := Select([]Candidate{{KindPlatformWrapper, wrapper}}, false, fixedProbe{sta: true})
	if err != ErrSingleThreadedApartmentWrapper {
		t.Fatalf("expected STA rejection, got %v", err)
	}
}

func TestSelectAllowsWrapperUnderMTA(t *testing.T) {
	wrapper := &stubBackend{name: "mf"}
	got, err := Select([]Candidate{{KindPlatformWrapper, wrapper}}, false, fixedProbe{sta: false})
	if err != nil || got != Backend(wrapper) {
		t.Fatalf("expected wrapper backend, got %v err=%v", got, err)
	}
}

func TestSelectNoBackendsErrors(t *testing.T) {
	if _, err := Select(nil, true, fixedProbe{}); err == nil {
		t.Fatal("expected error with no candidates")
	}
}
