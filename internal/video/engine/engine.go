// Package engine implements the video engine (C5): the CFR clock master
// that decides how many frames "should" exist by now and writes exactly
// that many to the muxer, duplicating the last frame rather than stalling
// when capture falls behind (spec §4.5).
package engine

import (
	"sync/atomic"
	"time"

	"github.com/big21ray/ionia/internal/video/encoder"
	"github.com/big21ray/ionia/internal/video/frame"
	"github.com/big21ray/ionia/internal/video/ring"
)

// MuxWriter is the narrow sink the video engine writes encoded packets to.
// Satisfied by internal/mux/file.Muxer and internal/mux/stream.Muxer.
type MuxWriter interface {
	WriteVideoPacket(pkt frame.Encoded, frameIndex int64) error
}

// Engine drives the fixed-frame-rate encode loop.
type Engine struct {
	fps   int
	ring  *ring.Ring
	enc   encoder.Backend
	muxer MuxWriter

	startTime   time.Time
	started     bool
	frameNumber int64

	duplicated    atomic.Uint64
	synthesised   atomic.Bool // true once the one-time black-frame fallback has fired
	blackW, blackH int
}

// New returns an Engine targeting fps frames per second.
func New(fps int, r *ring.Ring, enc encoder.Backend, muxer MuxWriter, blackW, blackH int) *Engine {
	return &Engine{fps: fps, ring: r, enc: enc, muxer: muxer, blackW: blackW, blackH: blackH}
}

// Start arms the monotonic clock used to compute the expected frame number.
func (e *Engine) Start() {
	if e.started {
		return
	}
	e.startTime = time.Now()
	e.started = true
}

// expectedFrameNumber returns floor((now - start) / (1s/fps)) (spec §4.5).
func (e *Engine) expectedFrameNumber() int64 {
	elapsed := time.Since(e.startTime)
	frameDur := time.Second / time.Duration(e.fps)
	return int64(elapsed / frameDur)
}

// Tick runs the encode loop "while frame_number < expected", writing every
// resulting packet through the muxer with frame_index = frame_number before
// incrementing (spec §4.5 steps 1-4).
func (e *Engine) Tick() error {
	if !e.started {
		return nil
	}
	expected := e.expectedFrameNumber()

	for e.frameNumber < expected {
		f, duplicated, err := e.nextFrame()
		if err != nil {
			return err
		}
		if duplicated {
			e.duplicated.Add(1)
		}

		packets, err := e.enc.Encode(f)
		if err != nil {
			return err
		}
		for _, pkt := range packets {
			if err := e.muxer.WriteVideoPacket(pkt, e.frameNumber); err != nil {
				return err
			}
		}
		e.frameNumber++
	}
	return nil
}

// nextFrame implements step 1 of the tick loop: pop from the ring, else
// duplicate the last frame, else synthesise a black frame exactly once.
func (e *Engine) nextFrame() (frame.BGRA, bool, error) {
	if f, err := e.ring.Pop(); err == nil {
		return f, false, nil
	}
	if f, err := e.ring.Last(); err == nil {
		return f, true, nil
	}
	if !e.synthesised.Load() {
		e.synthesised.Store(true)
		return frame.BGRA{
			Width:  e.blackW,
			Height: e.blackH,
			Data:   make([]byte, e.blackW*e.blackH*4),
		}, false, nil
	}
	// No frame has ever existed and the one-time synthesis already fired;
	// nothing to encode this iteration. Advance the frame number via the
	// caller's loop without writing output by returning a zero-size frame
	// that the encoder backend treats as a no-op. In practice capture
	// always produces a first frame before Start, so this path is inert.
	return frame.BGRA{}, true, nil
}

// FrameNumber returns the number of frames submitted so far, which is also
// the frame index the next submitted frame will get.
func (e *Engine) FrameNumber() int64 {
	return e.frameNumber
}

// FramesDuplicated returns the running duplication counter (spec §4.5,
// §8 S3).
func (e *Engine) FramesDuplicated() uint64 {
	return e.duplicated.Load()
}
