package stream

import "fmt"

// aacSampleRateIndex maps common sample rates to the AudioSpecificConfig
// index table (ISO/IEC 14496-3 Table 1.18).
var aacSampleRateIndex = map[int]byte{
	96000: 0, 88200: 1, 64000: 2, 48000: 3,
	44100: 4, 32000: 5, 24000: 6, 22050: 7,
	16000: 8, 12000: 9, 11025: 10, 8000: 11, 7350: 12,
}

// BuildAudioSpecificConfig returns the 2-byte AAC-LC AudioSpecificConfig
// (spec §4.8: "object type 2 (AAC-LC), sample rate index, channel
// configuration, packed into 2 bytes"). Exported so the file muxer (C7) can
// build the same side data without re-deriving it.
func BuildAudioSpecificConfig(sampleRate, channels int) ([]byte, error) {
	idx, ok := aacSampleRateIndex[sampleRate]
	if !ok {
		return nil, fmt.Errorf("stream: unsupported AAC sample rate %d", sampleRate)
	}
	if channels < 1 || channels > 7 {
		return nil, fmt.Errorf("stream: unsupported AAC channel count %d", channels)
	}
	const objectTypeAACLC byte = 2
	b0 := (objectTypeAACLC << 3) | (idx >> 1)
	b1 := (idx&1)<<7 | byte(channels)<<3
	return []byte{b0, b1}, nil
}
