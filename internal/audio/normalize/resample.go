package normalize

// targetRate is the only output rate the pipeline's internal PCM form
// supports (spec §3 UnifiedFrame).
const targetRate = 48000

// resampleLinear converts interleaved samples at srcRate to targetRate using
// linear interpolation between consecutive frames, per channel. Channel
// count is unchanged by this pass (spec §4.1 pass 2).
//
// Linear interpolation is cheap and audibly aliases at large conversion
// ratios (e.g. 96kHz -> 48kHz); a band-limited resampler is deferred to
// implementers per spec §9 "Resample quality — open question". The
// interface is kept stable so that decision can be revisited without
// touching callers.
func resampleLinear(samples []float32, channels, srcRate int) []float32 {
	if channels <= 0 || srcRate <= 0 || len(samples) == 0 {
		return nil
	}
	inFrames := len(samples) / channels
	if srcRate == targetRate {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}

	outFrames := ceilDiv(inFrames*targetRate, srcRate)
	out := make([]float32, outFrames*channels)

	// ratio maps an output frame index back into source-frame space.
	ratio := float64(srcRate) / float64(targetRate)
	for of := 0; of < outFrames; of++ {
		srcPos := float64(of) * ratio
		i0 := int(srcPos)
		if i0 >= inFrames-1 {
			i0 = inFrames - 1
		}
		i1 := i0 + 1
		if i1 >= inFrames {
			i1 = inFrames - 1
		}
		frac := float32(srcPos - float64(i0))

		for c := 0; c < channels; c++ {
			a := samples[i0*channels+c]
			b := samples[i1*channels+c]
			out[of*channels+c] = a + (b-a)*frac
		}
	}
	return out
}

// ceilDiv returns ceil(a/b) for positive a, b — used for out_frames =
// ceil(in_frames * 48000 / Rs) (spec §4.1).
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
