package normalize

// toStereo adapts an interleaved multi-channel buffer to interleaved stereo
// (spec §4.1 pass 3):
//   - 1ch -> duplicate L=R=S
//   - 2ch -> identity
//   - N>=3 -> take the first two channels as L and R
func toStereo(samples []float32, channels int) []float32 {
	if channels == 2 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}
	frames := len(samples) / channels
	out := make([]float32, frames*2)

	switch {
	case channels == 1:
		for i := 0; i < frames; i++ {
			s := samples[i]
			out[2*i] = s
			out[2*i+1] = s
		}
	case channels >= 3:
		for i := 0; i < frames; i++ {
			out[2*i] = samples[i*channels]
			out[2*i+1] = samples[i*channels+1]
		}
	}
	return out
}
