// Package pcm holds the audio data-model types shared across the
// normaliser (C1), the audio engine (C2), and the AAC encoder (C3): the
// canonical interleaved-stereo-float frame, the timestamped packet the
// engine emits, and the timestamp-free packet the encoder produces (spec
// §3).
package pcm

import "fmt"

// UnifiedFrame is interleaved float32 stereo at 48 kHz — the canonical
// internal PCM form after C1. len(Samples) must equal 2*Frames.
type UnifiedFrame struct {
	Samples []float32
	Frames  int
}

// Valid reports whether the frame satisfies its length invariant.
func (f UnifiedFrame) Valid() bool {
	return len(f.Samples) == 2*f.Frames
}

// AudioPacket is a PTS/DTS-stamped chunk of encoded or raw audio in a
// stream-local time base. For PCM and AAC frames the base is 1/48000 and
// the unit is one sample (spec §3).
type AudioPacket struct {
	Payload     []byte
	PTS         int64
	DTS         int64
	Duration    int64
	StreamIndex uint32
}

// Valid implements the data-model validity predicate: non-empty payload and
// a non-negative PTS.
func (p AudioPacket) Valid() bool {
	return len(p.Payload) > 0 && p.PTS >= 0
}

// CheckInvariants returns an error describing the first violated AudioPacket
// invariant (DTS <= PTS, Duration > 0, PTS >= 0), or nil if all hold.
func (p AudioPacket) CheckInvariants() error {
	if p.PTS < 0 {
		return fmt.Errorf("pcm: pts %d is negative", p.PTS)
	}
	if p.DTS > p.PTS {
		return fmt.Errorf("pcm: dts %d exceeds pts %d", p.DTS, p.PTS)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("pcm: duration %d is not positive", p.Duration)
	}
	return nil
}

// EncodedAudioPacket carries AAC-LC output with no timestamp; NumSamples
// (typically 1024) is the exclusive basis from which muxers derive PTS
// (spec §3, §4.7).
type EncodedAudioPacket struct {
	Payload    []byte
	NumSamples int64
}
