// Package normalize implements the audio normaliser (C1): it converts any
// source PCM format to the pipeline's canonical float32 48 kHz stereo
// UnifiedFrame, in three ordered passes (decode, resample, channel adapt).
package normalize

import (
	"sync/atomic"

	"github.com/big21ray/ionia/internal/audio/format"
	"github.com/big21ray/ionia/internal/audio/pcm"
)

// Normalizer runs the three-pass conversion pipeline and counts frames it
// had to discard because the source encoding was unsupported. Failure never
// poisons the pipeline (spec §4.1): the caller receives a zero-frame result
// and moves on.
type Normalizer struct {
	discarded atomic.Uint64
}

// New returns a ready-to-use Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize converts data (frameCount interleaved frames in the given
// format) into a UnifiedFrame at 48 kHz stereo float32.
func (n *Normalizer) Normalize(data []byte, frameCount int, f format.Format) pcm.UnifiedFrame {
	enc := f.Encoding
	if enc == format.EncodingF32Extensible {
		enc = format.EncodingF32
	}

	decoded, ok := decodeToFloat32(data, enc, f.Channels)
	if !ok {
		n.discarded.Add(1)
		return pcm.UnifiedFrame{}
	}

	resampled := resampleLinear(decoded, f.Channels, f.SampleRate)
	stereo := toStereo(resampled, f.Channels)

	return pcm.UnifiedFrame{
		Samples: stereo,
		Frames:  len(stereo) / 2,
	}
}

// Discarded returns the running count of frames discarded due to an
// unsupported sample encoding.
func (n *Normalizer) Discarded() uint64 {
	return n.discarded.Load()
}
