package normalize

import (
	"encoding/binary"
	"math"

	"github.com/big21ray/ionia/internal/audio/format"
)

// decodeToFloat32 converts packed interleaved source bytes to interleaved
// float32, preserving channel interleaving (spec §4.1 pass 1). It returns
// false if the encoding is unrecognised; the caller treats that as a
// discard-and-count failure, never a fatal error.
func decodeToFloat32(data []byte, enc format.Encoding, channels int) ([]float32, bool) {
	bps := enc.BytesPerSample()
	if bps == 0 || channels <= 0 {
		return nil, false
	}
	n := len(data) / bps
	if n == 0 {
		return []float32{}, true
	}
	out := make([]float32, n)
	switch enc {
	case format.EncodingF32, format.EncodingF32Extensible:
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(data[i*4:])
			out[i] = math.Float32frombits(bits)
		}
	case format.EncodingI16:
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(data[i*2:]))
			out[i] = float32(v) / 32768.0
		}
	case format.EncodingI32:
		for i := 0; i < n; i++ {
			v := int32(binary.LittleEndian.Uint32(data[i*4:]))
			out[i] = float32(v) / 2147483648.0
		}
	default:
		return nil, false
	}
	return out, true
}
