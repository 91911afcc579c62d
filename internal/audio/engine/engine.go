// Package engine implements the audio engine (C2): the clock master that
// turns two asynchronous PCM streams (desktop, mic) into a single gap-free
// 48 kHz stereo float timeline, independent of how fast either source feeds
// it (spec §4.2).
package engine

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/big21ray/ionia/internal/audio/pcm"
)

// Source identifies which capture ring a Feed call targets.
type Source int

const (
	SourceDesktop Source = iota
	SourceMic
)

const (
	sampleRate     = 48000
	ringCapacityS  = 2 * sampleRate // 2s of headroom per source, in frames
	maxTickFrames  = 4800           // <= 100ms clamp to avoid bursts after a stall (spec §4.2)
	defaultMicGain = float32(1.2)
)

// Engine is the audio clock master (C2). Feed is called by the capture
// workers; Tick is called by the orchestrator's audio-tick worker at AAC
// frame cadence.
type Engine struct {
	mu      sync.Mutex
	desktop *sampleRing
	mic     *sampleRing

	t0         time.Time
	started    bool
	framesSent int64 // guarded by mu

	micGainBits atomic.Uint32 // float32 bits
}

// New returns an Engine with both rings empty and the default mic gain.
func New() *Engine {
	e := &Engine{
		desktop: newSampleRing(ringCapacityS),
		mic:     newSampleRing(ringCapacityS),
	}
	e.micGainBits.Store(math.Float32bits(defaultMicGain))
	return e
}

// Start arms the monotonic clock. Never rewinds once armed; calling Start
// again is a no-op (mirrors the clock-master contract of spec §3).
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.t0 = time.Now()
	e.started = true
	e.framesSent = 0
}

// SetMicGain sets the gain applied to mic samples before mixing. Safe to
// call concurrently with Tick.
func (e *Engine) SetMicGain(gain float32) {
	e.micGainBits.Store(math.Float32bits(gain))
}

// MicGain returns the current mic gain.
func (e *Engine) MicGain() float32 {
	return math.Float32frombits(e.micGainBits.Load())
}

// Feed pushes interleaved stereo float32 samples into the ring for source.
// On would-overflow the oldest samples are dropped (spec §4.2).
func (e *Engine) Feed(source Source, samples []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch source {
	case SourceDesktop:
		e.desktop.push(samples)
	case SourceMic:
		e.mic.push(samples)
	}
}

// FramesSent returns the running total of stereo frames emitted so far.
func (e *Engine) FramesSent() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.framesSent
}

// clampf clamps v to [-1, 1] (spec §4.2 mix clamp).
func clampf(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Tick runs the non-blocking mix for whatever time has elapsed since the
// last Tick (or Start), emitting exactly one AudioPacket when there is
// anything to send. The second return is false when to_send <= 0.
func (e *Engine) Tick() (pcm.AudioPacket, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return pcm.AudioPacket{}, false
	}

	elapsedMs := time.Since(e.t0).Milliseconds()
	expected := elapsedMs * sampleRate / 1000
	toSend := expected - e.framesSent
	if toSend <= 0 {
		return pcm.AudioPacket{}, false
	}
	if toSend > maxTickFrames {
		toSend = maxTickFrames
	}

	micGain := e.MicGain()
	desktopAvail := int64(e.desktop.availableFrames())
	micAvail := int64(e.mic.availableFrames())

	out := make([]float32, toSend*2)
	for i := int64(0); i < toSend; i++ {
		var dl, dr, ml, mr float32
		if i < desktopAvail {
			dl, dr, _ = e.desktop.frame(int(i))
		}
		if i < micAvail {
			ml, mr, _ = e.mic.frame(int(i))
		}
		out[i*2] = clampf(dl + ml*micGain)
		out[i*2+1] = clampf(dr + mr*micGain)
	}

	desktopAdvance := desktopAvail
	if toSend < desktopAdvance {
		desktopAdvance = toSend
	}
	e.desktop.advance(int(desktopAdvance))

	micAdvance := micAvail
	if toSend < micAdvance {
		micAdvance = toSend
	}
	e.mic.advance(int(micAdvance))

	ptsBefore := e.framesSent
	e.framesSent += toSend

	return pcm.AudioPacket{
		Payload:  floatsToBytes(out),
		PTS:      ptsBefore,
		DTS:      ptsBefore,
		Duration: toSend,
	}, true
}

// floatsToBytes encodes interleaved float32 samples as little-endian raw
// bytes — the AudioPacket payload representation (spec §4.2: "payload is
// the raw f32 bytes").
func floatsToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}
