// Package ring implements the video capture ring (C4): a fixed-capacity
// ring of captured BGRA frames. Unlike the audio engine's rings, overflow
// here REJECTS the new frame rather than evicting older data — the older
// frame is already closer to the video engine's current expected encode
// slot (spec §4.4).
package ring

import (
	"errors"
	"sync"

	"github.com/big21ray/ionia/internal/video/frame"
)

// DefaultCapacity is the default number of slots (spec §4.4).
const DefaultCapacity = 4

// ErrEmpty is returned by Pop and Last when no frame is available.
var ErrEmpty = errors.New("ring: no frame available")

// ErrFull is returned by Push when the ring is at capacity; the caller's
// frame is rejected and the ring's own contents are left untouched.
var ErrFull = errors.New("ring: full, frame rejected")

// Ring is a fixed-capacity FIFO of BGRA frames, mutex-protected so the
// capture producer, the video-tick consumer, and InjectFrame can share one
// instance across goroutines (spec §5: "C4 ring: mutex-protected").
type Ring struct {
	mu sync.Mutex

	slots    []frame.BGRA
	readIdx  int
	writeIdx int
	size     int

	last    frame.BGRA
	hasLast bool
}

// New returns a Ring with the given capacity (each slot holds one BGRA
// frame; every Push stores a fresh copy of the frame's data).
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{slots: make([]frame.BGRA, capacity)}
}

// Push copies f into the next write slot. On overflow it rejects the new
// frame, preserving older, causally earlier data, and returns ErrFull.
func (r *Ring) Push(f frame.BGRA) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == len(r.slots) {
		return ErrFull
	}
	cp := make([]byte, len(f.Data))
	copy(cp, f.Data)
	r.slots[r.writeIdx] = frame.BGRA{Width: f.Width, Height: f.Height, Data: cp, PTS: f.PTS}
	r.writeIdx = (r.writeIdx + 1) % len(r.slots)
	r.size++

	r.last = r.slots[(r.writeIdx-1+len(r.slots))%len(r.slots)]
	r.hasLast = true
	return nil
}

// Pop copies the oldest buffered frame out and advances the read index.
func (r *Ring) Pop() (frame.BGRA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == 0 {
		return frame.BGRA{}, ErrEmpty
	}
	f := r.slots[r.readIdx]
	r.readIdx = (r.readIdx + 1) % len(r.slots)
	r.size--
	return f, nil
}

// Last returns the most recently successfully pushed frame, for
// duplication when the ring is empty. Fails if nothing has ever been
// pushed.
func (r *Ring) Last() (frame.BGRA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasLast {
		return frame.BGRA{}, ErrEmpty
	}
	return r.last, nil
}

// Len returns the number of frames currently buffered.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
