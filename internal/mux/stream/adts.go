package stream

import "fmt"

// adtsHeaderSize is the size of a 7-byte ADTS header with no CRC (spec
// §4.8 "ADTS framing for raw AAC when the container needs self-framed
// access units").
const adtsHeaderSize = 7

// buildADTSHeader produces a 7-byte ADTS header wrapping an AAC-LC raw
// frame of payloadLen bytes.
func buildADTSHeader(sampleRate, channels, payloadLen int) ([]byte, error) {
	idx, ok := aacSampleRateIndex[sampleRate]
	if !ok {
		return nil, fmt.Errorf("stream: unsupported AAC sample rate %d", sampleRate)
	}
	if channels < 1 || channels > 7 {
		return nil, fmt.Errorf("stream: unsupported AAC channel count %d", channels)
	}

	frameLen := adtsHeaderSize + payloadLen
	h := make([]byte, adtsHeaderSize)
	h[0] = 0xFF
	h[1] = 0xF1 // MPEG-4, no CRC
	const objectTypeAACLC = 1 // profile field is object_type - 1
	h[2] = byte(objectTypeAACLC<<6) | (idx << 2) | (byte(channels) >> 2)
	h[3] = (byte(channels)&0x3)<<6 | byte(frameLen>>11)
	h[4] = byte(frameLen >> 3)
	h[5] = byte(frameLen<<5) | 0x1F
	h[6] = 0xFC
	return h, nil
}

// wrapADTS prepends an ADTS header to a raw AAC-LC payload.
func wrapADTS(sampleRate, channels int, payload []byte) ([]byte, error) {
	h, err := buildADTSHeader(sampleRate, channels, len(payload))
	if err != nil {
		return nil, err
	}
	return append(h, payload...), nil
}
