package stream

import (
	"errors"
	"fmt"
)

// ErrNoSPSPPS is returned when an avcC record is requested before both an
// SPS and a PPS NAL have been observed (spec §4.8 "cannot emit a header
// before the codec has produced its first SPS/PPS pair").
var ErrNoSPSPPS = errors.New("stream: no SPS/PPS observed yet")

// High-profile family AVCProfileIndication values that carry the chroma/bit
// depth extension tail in the avcC record (ISO/IEC 14496-15 §5.2.4.1.1).
const (
	profileHigh           = 100
	profileHigh10         = 110
	profileHigh422        = 122
	profileHigh444Predict = 244
)

// buildAVCDecoderConfigurationRecord constructs the avcC box payload from a
// single SPS and single PPS NAL, per ISO/IEC 14496-15.
func buildAVCDecoderConfigurationRecord(sps, pps []byte) ([]byte, error) {
	if len(sps) < 4 {
		return nil, fmt.Errorf("stream: SPS too short (%d bytes)", len(sps))
	}
	if len(pps) == 0 {
		return nil, fmt.Errorf("stream: empty PPS")
	}

	out := make([]byte, 0, 11+len(sps)+len(pps))
	out = append(out, 1)          // configurationVersion
	out = append(out, sps[1])     // AVCProfileIndication
	out = append(out, sps[2])     // profile_compatibility
	out = append(out, sps[3])     // AVCLevelIndication
	out = append(out, 0xff)       // reserved(6) + lengthSizeMinusOne=3 (4-byte lengths)
	out = append(out, 0xe1)       // reserved(3) + numOfSequenceParameterSets=1
	out = appendU16(out, uint16(len(sps)))
	out = append(out, sps...)
	out = append(out, 1) // numOfPictureParameterSets
	out = appendU16(out, uint16(len(pps)))
	out = append(out, pps...)

	switch sps[1] {
	case profileHigh, profileHigh10, profileHigh422, profileHigh444Predict:
		chroma, lumaDepth, chromaDepth, err := parseSPSChromaAndDepth(sps)
		if err != nil {
			return nil, fmt.Errorf("stream: parsing High-profile SPS extension: %w", err)
		}
		out = append(out, 0xfc|chroma)
		out = append(out, 0xf8|lumaDepth)
		out = append(out, 0xf8|chromaDepth)
		out = append(out, 0x00) // numOfSequenceParameterSetExt = 0
	}
	return out, nil
}

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

// stripEmulationPrevention removes the 0x03 emulation-prevention byte from
// any "00 00 03" run in a NAL payload, producing the raw RBSP the exp-golomb
// reader below expects (spec §4.8(b): "parsed from SPS RBSP after removing
// emulation-prevention bytes").
func stripEmulationPrevention(nal []byte) []byte {
	out := make([]byte, 0, len(nal))
	zeros := 0
	for _, b := range nal {
		if zeros >= 2 && b == 0x03 {
			zeros = 0
			continue
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}

// bitReader reads unsigned Exp-Golomb fields (ue(v)) from an RBSP, MSB first.
type bitReader struct {
	data []byte
	pos  int // bit offset
}

func (r *bitReader) bit() (int, error) {
	byteIdx := r.pos / 8
	if byteIdx >= len(r.data) {
		return 0, fmt.Errorf("stream: bit reader exhausted RBSP")
	}
	b := (r.data[byteIdx] >> (7 - uint(r.pos%8))) & 1
	r.pos++
	return int(b), nil
}

func (r *bitReader) bits(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint32(b)
	}
	return v, nil
}

func (r *bitReader) ue() (uint32, error) {
	leadingZeros := 0
	for {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		leadingZeros++
		if leadingZeros > 32 {
			return 0, fmt.Errorf("stream: exp-golomb code too long")
		}
	}
	if leadingZeros == 0 {
		return 0, nil
	}
	rest, err := r.bits(leadingZeros)
	if err != nil {
		return 0, err
	}
	return (1 << uint(leadingZeros)) - 1 + rest, nil
}

// parseSPSChromaAndDepth walks the SPS RBSP past profile_idc/level_idc and
// seq_parameter_set_id to recover chroma_format_idc,
// bit_depth_luma_minus8 and bit_depth_chroma_minus8, needed for the avcC
// High-profile extension tail.
func parseSPSChromaAndDepth(sps []byte) (chroma, lumaDepth, chromaDepth byte, err error) {
	if len(sps) < 4 {
		return 0, 0, 0, fmt.Errorf("SPS too short")
	}
	// sps[0] is the NAL header byte; sps[1..3] are
	// profile_idc/constraint flags/level_idc, already consumed by the caller.
	rbsp := stripEmulationPrevention(sps[4:])
	r := &bitReader{data: rbsp}
	if _, err = r.ue(); err != nil { // seq_parameter_set_id
		return 0, 0, 0, err
	}
	chromaIdc, err := r.ue() // chroma_format_idc
	if err != nil {
		return 0, 0, 0, err
	}
	if chromaIdc == 3 {
		if _, err = r.bit(); err != nil { // separate_colour_plane_flag
			return 0, 0, 0, err
		}
	}
	lumaMinus8, err := r.ue()
	if err != nil {
		return 0, 0, 0, err
	}
	chromaMinus8, err := r.ue()
	if err != nil {
		return 0, 0, 0, err
	}
	return byte(chromaIdc), byte(lumaMinus8), byte(chromaMinus8), nil
}

// extractSPSPPS scans a set of raw (Annex-B-stripped) NALs and returns the
// first SPS and PPS found, for avcC construction.
func extractSPSPPS(nals [][]byte) (sps, pps []byte, ok bool) {
	for _, n := range nals {
		switch nalType(n) {
		case nalTypeSPS:
			if sps == nil {
				sps = n
			}
		case nalTypePPS:
			if pps == nil {
				pps = n
			}
		}
	}
	return sps, pps, sps != nil && pps != nil
}

// validateNoAnnexBInside rejects a NAL payload that itself still contains an
// embedded Annex-B start code, which would indicate the Annex-B->AVCC
// conversion ran on already-length-prefixed data (spec §4.8 invariant).
func validateNoAnnexBInside(nal []byte) error {
	for i := 0; i+2 < len(nal); i++ {
		if nal[i] == 0 && nal[i+1] == 0 && (nal[i+2] == 1 || (i+3 < len(nal) && nal[i+2] == 0 && nal[i+3] == 1)) {
			return fmt.Errorf("stream: NAL payload contains embedded start code at offset %d", i)
		}
	}
	return nil
}
