package stream

// annexBToAVCC splits an Annex-B bitstream (NALs separated by 0x000001 or
// 0x00000001 start codes) into a slice of raw NAL payloads (start codes and
// emulation prevention bytes untouched beyond the NAL boundary itself).
func annexBToAVCC(data []byte) [][]byte {
	starts := findStartCodes(data)
	if len(starts) == 0 {
		return nil
	}
	var nals [][]byte
	for i, s := range starts {
		begin := s.end
		var end int
		if i+1 < len(starts) {
			end = starts[i+1].start
		} else {
			end = len(data)
		}
		if end > begin {
			nals = append(nals, trimTrailingZeroPadding(data[begin:end]))
		}
	}
	return nals
}

// trimTrailingZeroPadding drops trailing zero bytes some encoders leave
// between a NAL's payload and the next start code, so the AVCC length
// prefix reflects only the actual NAL (spec §4.8(a)(ii)).
func trimTrailingZeroPadding(nal []byte) []byte {
	end := len(nal)
	for end > 0 && nal[end-1] == 0 {
		end--
	}
	return nal[:end]
}

type startCode struct{ start, end int }

// findStartCodes locates every 3- or 4-byte Annex-B start code in data.
func findStartCodes(data []byte) []startCode {
	var out []startCode
	for i := 0; i+2 < len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 {
			if data[i+2] == 1 {
				out = append(out, startCode{start: i, end: i + 3})
				i += 2
				continue
			}
			if i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1 {
				out = append(out, startCode{start: i, end: i + 4})
				i += 3
				continue
			}
		}
	}
	return out
}

// lengthPrefixNALs rewrites a set of raw NALs into AVCC's 4-byte
// big-endian-length-prefixed framing (spec §4.8 "convert Annex-B to AVCC
// before writing into the FLV/MP4 packet").
func lengthPrefixNALs(nals [][]byte) []byte {
	var out []byte
	for _, n := range nals {
		var lenBuf [4]byte
		l := uint32(len(n))
		lenBuf[0] = byte(l >> 24)
		lenBuf[1] = byte(l >> 16)
		lenBuf[2] = byte(l >> 8)
		lenBuf[3] = byte(l)
		out = append(out, lenBuf[:]...)
		out = append(out, n...)
	}
	return out
}

// nalType returns the H.264 NAL unit type (low 5 bits of the header byte).
func nalType(nal []byte) byte {
	if len(nal) == 0 {
		return 0
	}
	return nal[0] & 0x1f
}

const (
	nalTypeSPS = 7
	nalTypePPS = 8
	nalTypeIDR = 5
)
