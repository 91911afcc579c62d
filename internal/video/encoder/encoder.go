// Package encoder implements the video encoder (C6): H.264 encoding with a
// hardware/software selection policy, plus a final-resort platform-wrapper
// rejection rule driven by the ambient apartment-threading mode (spec §4.6,
// §9).
package encoder

import (
	"errors"
	"fmt"

	"github.com/big21ray/ionia/internal/video/frame"
)

// Backend is the narrow interface each concrete H.264 backend satisfies.
// Concrete backends live in internal/platform/codec, wrapping the codec
// library's find/open/push/pull/drain operations (spec §6).
type Backend interface {
	Encode(bgra frame.BGRA) ([]frame.Encoded, error)
	Flush() ([]frame.Encoded, error)
	// Extradata returns avcC-ready SPS/PPS if the backend produced it at
	// open time, or nil. Only the file muxer receives it; the stream muxer
	// always defers its header until the first keyframe and builds avcC
	// from that keyframe (spec §4.8 "Deferred header").
	Extradata() []byte
	Name() string
	Close() error
}

// Kind identifies the backend family a Selector chose.
type Kind int

const (
	KindSoftware Kind = iota
	KindHardware
	KindPlatformWrapper
)

// ErrSingleThreadedApartmentWrapper is returned when the only available
// H.264 backend is the platform wrapper (e.g. Media Foundation) and the
// ambient thread-affinity mode is single-threaded apartment. Using that
// wrapper under STA deadlocks at first encode, so the selector refuses up
// front with an actionable message instead (spec §4.6, §9).
var ErrSingleThreadedApartmentWrapper = errors.New(
	"ionia: only a single-threaded-apartment-incompatible platform H.264 wrapper is available; install a software H.264 encoder (e.g. an x264-backed build) and retry")

// ApartmentProbe reports whether the ambient apartment mode is
// single-threaded (STA). Implemented by internal/platform/apartment.
type ApartmentProbe interface {
	IsSingleThreaded() bool
}

// Candidate is one backend offered to the selector, tagged with its Kind.
type Candidate struct {
	Kind    Kind
	Backend Backend
}

// Select implements the cascade of spec §4.6:
//  1. hardware H.264 if requested and present,
//  2. else software H.264,
//  3. else, if only a platform wrapper remains and the apartment mode is
//     STA, reject with ErrSingleThreadedApartmentWrapper.
func Select(candidates []Candidate, preferHardware bool, probe ApartmentProbe) (Backend, error) {
	var hw, sw, wrapper Backend
	for _, c := range candidates {
		switch c.Kind {
		case KindHardware:
			hw = c.Backend
		case KindSoftware:
			sw = c.Backend
		case KindPlatformWrapper:
			wrapper = c.Backend
		}
	}

	if preferHardware && hw != nil {
		return hw, nil
	}
	if sw != nil {
		return sw, nil
	}
	if wrapper != nil {
		if probe != nil && probe.IsSingleThreaded() {
			return nil, ErrSingleThreadedApartmentWrapper
		}
		return wrapper, nil
	}
	return nil, fmt.Errorf("ionia: no H.264 encoder backend available")
}
