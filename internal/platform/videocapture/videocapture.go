// Package videocapture is C11's desktop-frame source adapter. The real
// desktop-duplication backend (DXGI on Windows, a platform capture API
// elsewhere) is outside what any library in this module's dependency set
// can provide, so the only backend implemented here is a deterministic
// software generator used for tests and headless operation; it satisfies
// the same Source contract a hardware backend would (spec §4.11, Open
// Question: desktop-duplication backend).
package videocapture

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/big21ray/ionia/internal/video/frame"
)

// Sink receives captured BGRA frames, satisfied by internal/video/ring.Ring
// via a small adapter in the pipeline wiring.
type Sink interface {
	Push(f frame.BGRA) error
}

// Source is the narrow capture-backend contract; SoftwareSource is the only
// implementation this module ships.
type Source interface {
	Start() error
	Stop()
}

// SoftwareSource produces a fixed-pattern BGRA frame at a steady rate. It
// never reads the real screen; it exists so the pipeline has a frame
// source to drive the video engine's clock master without a native
// capture dependency.
type SoftwareSource struct {
	width, height int
	fps           int
	sink          Sink

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	frameN  atomic.Int64
}

// NewSoftwareSource returns a SoftwareSource producing width x height BGRA
// frames at fps.
func NewSoftwareSource(width, height, fps int, sink Sink) *SoftwareSource {
	return &SoftwareSource{width: width, height: height, fps: fps, sink: sink}
}

// Start begins producing frames on a ticker until Stop.
func (s *SoftwareSource) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.loop()
	return nil
}

func (s *SoftwareSource) loop() {
	defer s.wg.Done()
	interval := time.Second / time.Duration(s.fps)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-t.C:
			n := s.frameN.Add(1)
			s.sink.Push(frame.BGRA{
				Width:  s.width,
				Height: s.height,
				Data:   s.renderPattern(n),
				PTS:    n,
			})
		}
	}
}

// renderPattern fills the whole frame with one deterministic colour derived
// from the frame number, so output is visually distinguishable
// frame-to-frame without touching any OS capture API.
func (s *SoftwareSource) renderPattern(n int64) []byte {
	data := make([]byte, s.width*s.height*4)
	shade := byte(n % 256)
	for i := 0; i < len(data); i += 4 {
		data[i] = shade       // B
		data[i+1] = shade / 2 // G
		data[i+2] = 255 - shade
		data[i+3] = 0xFF
	}
	return data
}

// Stop halts frame production and joins the loop goroutine.
func (s *SoftwareSource) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
}
