// Package format describes the source PCM formats the audio normaliser (C1)
// accepts, mirroring the platform audio-capture contract of spec §6: a
// WAVEFORMATEX-equivalent descriptor (tag, channels, sample rate, bits,
// block align, extension sub-format).
package format

// Encoding identifies how samples are packed in the byte stream.
type Encoding int

const (
	// EncodingUnknown marks a format the normaliser cannot decode; frames in
	// this encoding are discarded (spec §4.1 failure modes), never fatal.
	EncodingUnknown Encoding = iota
	EncodingF32
	EncodingI16
	EncodingI32
	// EncodingF32Extensible is the WAVE_FORMAT_EXTENSIBLE tag whose embedded
	// sub-format GUID identifies IEEE float. Decoded identically to
	// EncodingF32 once recognised.
	EncodingF32Extensible
)

func (e Encoding) String() string {
	switch e {
	case EncodingF32:
		return "f32"
	case EncodingI16:
		return "i16"
	case EncodingI32:
		return "i32"
	case EncodingF32Extensible:
		return "f32-extensible"
	default:
		return "unknown"
	}
}

// BytesPerSample returns the size of a single sample in this encoding, or 0
// if the encoding is unrecognised.
func (e Encoding) BytesPerSample() int {
	switch e {
	case EncodingF32, EncodingF32Extensible:
		return 4
	case EncodingI16:
		return 2
	case EncodingI32:
		return 4
	default:
		return 0
	}
}

// Format is the immutable descriptor produced by capture and consumed only
// by the normaliser (C1). Additional WAVEFORMATEX-equivalent fields
// (BlockAlign, ExtensionSize) are carried for parity with the platform
// capture contract even though the normaliser only needs SampleRate,
// Channels and Encoding to do its work.
type Format struct {
	SampleRate  int
	Channels    int
	Encoding    Encoding
	BlockAlign  int // bytes per interleaved frame across all channels
	Extensible  bool
}

// Stereo48kF32 is the canonical output format of the normaliser (C1) and the
// shared-mode initialisation target for capture devices (spec §6).
var Stereo48kF32 = Format{SampleRate: 48000, Channels: 2, Encoding: EncodingF32, BlockAlign: 8}
