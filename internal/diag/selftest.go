// selftest exercises the codec/capture wiring independently of the real
// AAC/H.264 path: it generates a synthetic tone and round-trips it through
// Opus, checking the codec library end-to-end without a real microphone
// attached.
package diag

import (
	"fmt"
	"math"

	"gopkg.in/hraban/opus.v2"
)

const (
	selfTestFreqHz     = 440.0
	selfTestAmplitude  = 0.3
	selfTestSampleRate = 48000
	selfTestChannels   = 1
)

// GenerateTone returns frames samples of a 440 Hz sine wave at 48 kHz with
// peak amplitude selfTestAmplitude.
func GenerateTone(frames int) []float32 {
	out := make([]float32, frames)
	for i := range out {
		out[i] = float32(selfTestAmplitude * math.Sin(2*math.Pi*selfTestFreqHz*float64(i)/selfTestSampleRate))
	}
	return out
}

// RoundTripOpus encodes pcm (float32, mono, 48kHz) to Opus and decodes it
// back, returning the reconstructed samples. It exists purely as a
// self-test: a caller that can successfully round-trip a known tone knows
// the Opus codec library loaded and linked correctly on this platform,
// independent of whether the AAC/H.264 capture path has real hardware to
// drive it.
func RoundTripOpus(pcm []float32) ([]float32, error) {
	enc, err := opus.NewEncoder(selfTestSampleRate, selfTestChannels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("diag: new opus encoder: %w", err)
	}
	dec, err := opus.NewDecoder(selfTestSampleRate, selfTestChannels)
	if err != nil {
		return nil, fmt.Errorf("diag: new opus decoder: %w", err)
	}

	in := make([]int16, len(pcm))
	for i, s := range pcm {
		in[i] = int16(clamp(s) * 32767)
	}

	buf := make([]byte, 4000)
	n, err := enc.Encode(in, buf)
	if err != nil {
		return nil, fmt.Errorf("diag: opus encode: %w", err)
	}

	out := make([]int16, len(pcm))
	frames, err := dec.Decode(buf[:n], out)
	if err != nil {
		return nil, fmt.Errorf("diag: opus decode: %w", err)
	}

	result := make([]float32, frames)
	for i := 0; i < frames; i++ {
		result[i] = float32(out[i]) / 32767
	}
	return result, nil
}

func clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
