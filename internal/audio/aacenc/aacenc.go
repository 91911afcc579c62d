// Package aacenc implements C3: the AAC-LC frame accumulator that sits
// between the audio engine's interleaved stereo packets and the codec's
// fixed 1024-sample-per-channel framing requirement (spec §4.3).
package aacenc

import (
	"fmt"
	"math"

	"github.com/big21ray/ionia/internal/audio/pcm"
)

const frameSize = 1024

// Codec is the narrow contract onto the AAC-LC codec leaf
// (internal/platform/codec.AACEncoder satisfies this).
type Codec interface {
	EncodeFrame(planar [][]float32) ([][]byte, error)
	Flush() ([][]byte, error)
}

// Accumulator de-interleaves incoming stereo PCM into planar L/R buffers and
// forwards exactly 1024-sample frames to the codec, carrying any partial
// remainder to the next call.
type Accumulator struct {
	codec   Codec
	left    []float32
	right   []float32
	samples int64 // running count of samples forwarded to the codec, for PTS

	framesEncoded int64 // running count of AAC-LC frames the codec has emitted
}

// New wraps codec with 1024-sample accumulation.
func New(codec Codec) *Accumulator {
	return &Accumulator{codec: codec}
}

// Push appends an interleaved stereo packet and returns any complete encoded
// AAC frames, each carrying NumSamples = 1024 and no timestamp (the muxer
// derives PTS from the sample count).
func (a *Accumulator) Push(pkt pcm.AudioPacket) ([]pcm.EncodedAudioPacket, error) {
	if err := pkt.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("aacenc: %w", err)
	}
	interleaved := bytesToFloats(pkt.Payload)
	for i := 0; i+1 < len(interleaved); i += 2 {
		a.left = append(a.left, interleaved[i])
		a.right = append(a.right, interleaved[i+1])
	}

	var out []pcm.EncodedAudioPacket
	for len(a.left) >= frameSize {
		planar := [][]float32{a.left[:frameSize], a.right[:frameSize]}
		payloads, err := a.codec.EncodeFrame(planar)
		if err != nil {
			return out, fmt.Errorf("aacenc: encode frame: %w", err)
		}
		a.samples += frameSize
		for _, p := range payloads {
			out = append(out, pcm.EncodedAudioPacket{Payload: p, NumSamples: frameSize})
		}
		a.framesEncoded += int64(len(payloads))
		a.left = a.left[frameSize:]
		a.right = a.right[frameSize:]
	}
	return out, nil
}

// Flush drains the codec's internal buffer. Any residual partial frame
// (<1024 samples) is discarded, never silence-padded (spec §4.3 "never
// fabricate samples that were never captured").
func (a *Accumulator) Flush() ([]pcm.EncodedAudioPacket, error) {
	a.left = nil
	a.right = nil

	payloads, err := a.codec.Flush()
	if err != nil {
		return nil, fmt.Errorf("aacenc: flush: %w", err)
	}
	out := make([]pcm.EncodedAudioPacket, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, pcm.EncodedAudioPacket{Payload: p, NumSamples: frameSize})
	}
	a.framesEncoded += int64(len(payloads))
	return out, nil
}

// SamplesEncoded returns the running count of samples per channel that have
// been forwarded to the codec (used by the stream muxer to derive PTS).
func (a *Accumulator) SamplesEncoded() int64 {
	return a.samples
}

// FramesEncoded returns the running count of AAC-LC frames the codec has
// emitted, for the scripting surface's get_statistics() (spec §6
// audio_frames_encoded).
func (a *Accumulator) FramesEncoded() int64 {
	return a.framesEncoded
}

func bytesToFloats(data []byte) []float32 {
	n := len(data) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
